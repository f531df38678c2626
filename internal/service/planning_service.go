package service

import (
	"context"
	"time"

	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/google/uuid"
)

// PlanningService événements de calendrier et détection de conflits
type PlanningService struct {
	repo *repository.PlanningRepository
}

func NewPlanningService(repo *repository.PlanningRepository) *PlanningService {
	return &PlanningService{repo: repo}
}

// EventRequest création ou mise à jour d'un événement
type EventRequest struct {
	Titre        string    `json:"titre" binding:"required"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	Statut       string    `json:"statut"`
	DateDebut    time.Time `json:"date_debut" binding:"required"`
	DateFin      time.Time `json:"date_fin" binding:"required"`
	ChantierID   string    `json:"chantier_id"`
	Lieu         string    `json:"lieu"`
	Participants []string  `json:"participants"`
}

var typesEvenement = map[string]bool{
	entity.PlanningRDVClient:  true,
	entity.PlanningChantier:   true,
	entity.PlanningLivraison:  true,
	entity.PlanningInspection: true,
	entity.PlanningConges:     true,
	entity.PlanningReunion:    true,
	entity.PlanningAutre:      true,
}

func (s *PlanningService) valider(req *EventRequest) error {
	var champs []string
	if req.Titre == "" {
		champs = append(champs, "titre")
	}
	if !req.DateFin.After(req.DateDebut) {
		champs = append(champs, "date_fin")
	}
	if req.Type != "" && !typesEvenement[req.Type] {
		champs = append(champs, "type")
	}
	if len(champs) > 0 {
		return newValidationError(champs...)
	}
	return nil
}

// dédoublonne en préservant l'ordre
func dedupIDs(ids []string) entity.IDList {
	seen := make(map[string]bool, len(ids))
	var out entity.IDList
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// List liste paginée avec filtres et fenêtre temporelle
func (s *PlanningService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PlanningEvent, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// Get détail d'un événement
func (s *PlanningService) Get(ctx context.Context, id string) (*entity.PlanningEvent, error) {
	return s.repo.FindByID(ctx, id)
}

// Create crée un événement planifié par l'utilisateur courant
func (s *PlanningService) Create(ctx context.Context, organisateurID string, req *EventRequest) (*entity.PlanningEvent, error) {
	if err := s.valider(req); err != nil {
		return nil, err
	}

	now := time.Now()
	event := &entity.PlanningEvent{
		ID:             uuid.New().String()[:32],
		Titre:          req.Titre,
		Description:    req.Description,
		Type:           req.Type,
		Statut:         req.Statut,
		DateDebut:      req.DateDebut,
		DateFin:        req.DateFin,
		OrganisateurID: organisateurID,
		ChantierID:     req.ChantierID,
		Lieu:           req.Lieu,
		Participants:   dedupIDs(req.Participants),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if event.Type == "" {
		event.Type = entity.PlanningAutre
	}
	if event.Statut == "" {
		event.Statut = entity.EventPlanifie
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, event.ID)
}

// Update met à jour un événement ; mêmes règles de validation qu'à la création
func (s *PlanningService) Update(ctx context.Context, id string, req *EventRequest) (*entity.PlanningEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.valider(req); err != nil {
		return nil, err
	}

	event.Titre = req.Titre
	event.Description = req.Description
	if req.Type != "" {
		event.Type = req.Type
	}
	if req.Statut != "" {
		event.Statut = req.Statut
	}
	event.DateDebut = req.DateDebut
	event.DateFin = req.DateFin
	event.ChantierID = req.ChantierID
	event.Lieu = req.Lieu
	event.Participants = dedupIDs(req.Participants)
	event.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, event.ID)
}

// Delete supprime un événement
func (s *PlanningService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ConflictQuery requête de détection de conflits de planning
type ConflictQuery struct {
	DateDebut    time.Time `json:"date_debut" binding:"required"`
	DateFin      time.Time `json:"date_fin" binding:"required"`
	Participants []string  `json:"participants"`
	ExcludeID    string    `json:"exclude_id"`
}

// CheckConflicts retourne les événements non annulés qui chevauchent
// l'intervalle demandé (bornes incluses) et partagent au moins un
// participant ou l'organisateur avec la requête. Sans participants,
// tout chevauchement est un conflit.
func (s *PlanningService) CheckConflicts(ctx context.Context, q *ConflictQuery) ([]entity.PlanningEvent, error) {
	if !q.DateFin.After(q.DateDebut) {
		return nil, newValidationError("date_fin")
	}

	overlapping, err := s.repo.FindOverlapping(ctx, q.DateDebut, q.DateFin, q.ExcludeID)
	if err != nil {
		return nil, err
	}
	if len(q.Participants) == 0 {
		return overlapping, nil
	}

	demande := dedupIDs(q.Participants)
	conflits := make([]entity.PlanningEvent, 0)
	for _, ev := range overlapping {
		if eventConcerne(&ev, demande) {
			conflits = append(conflits, ev)
		}
	}
	return conflits, nil
}

// eventConcerne vrai si l'événement implique l'un des utilisateurs donnés
// (comme participant ou organisateur)
func eventConcerne(ev *entity.PlanningEvent, users entity.IDList) bool {
	for _, id := range users {
		if ev.OrganisateurID == id || ev.Participants.Contains(id) {
			return true
		}
	}
	return false
}
