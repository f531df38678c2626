package service

import (
	"context"
	"fmt"
	"time"

	"github.com/chantierpro/chantierpro/internal/entity"
	"github.com/chantierpro/chantierpro/internal/repository"
	"github.com/google/uuid"
)

// transitions de statut chantier autorisées
var transitionsChantier = map[string][]string{
	entity.ChantierPlanifie:  {entity.ChantierEnCours, entity.ChantierAnnule},
	entity.ChantierEnCours:   {entity.ChantierEnAttente, entity.ChantierTermine, entity.ChantierAnnule},
	entity.ChantierEnAttente: {entity.ChantierEnCours, entity.ChantierAnnule},
}

// ChantierService gestion des chantiers
type ChantierService struct {
	repo *repository.ChantierRepository
}

func NewChantierService(repo *repository.ChantierRepository) *ChantierService {
	return &ChantierService{repo: repo}
}

// ChantierRequest création ou mise à jour d'un chantier
type ChantierRequest struct {
	Nom         string     `json:"nom" binding:"required"`
	Description string     `json:"description"`
	Adresse     string     `json:"adresse"`
	ClientID    string     `json:"client_id"`
	AssigneID   string     `json:"assigne_id"`
	DateDebut   *time.Time `json:"date_debut"`
	DateFin     *time.Time `json:"date_fin"`
	Budget      *float64   `json:"budget"`
}

func validerChantier(req *ChantierRequest) error {
	var champs []string
	if req.Nom == "" {
		champs = append(champs, "nom")
	}
	if req.DateDebut != nil && req.DateFin != nil && !req.DateFin.After(*req.DateDebut) {
		champs = append(champs, "date_fin")
	}
	if req.Budget != nil && *req.Budget < 0 {
		champs = append(champs, "budget")
	}
	if len(champs) > 0 {
		return newValidationError(champs...)
	}
	return nil
}

// List liste paginée avec filtres statut/client/assigné/recherche
func (s *ChantierService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Chantier, int64, error) {
	return s.repo.FindAll(ctx, page, pageSize, filters)
}

// Get détail d'un chantier
func (s *ChantierService) Get(ctx context.Context, id string) (*entity.Chantier, error) {
	return s.repo.FindByID(ctx, id)
}

// Create crée un chantier en statut PLANIFIE
func (s *ChantierService) Create(ctx context.Context, req *ChantierRequest) (*entity.Chantier, error) {
	if err := validerChantier(req); err != nil {
		return nil, err
	}

	now := time.Now()
	chantier := &entity.Chantier{
		ID:          uuid.New().String()[:32],
		Nom:         req.Nom,
		Description: req.Description,
		Adresse:     req.Adresse,
		Statut:      entity.ChantierPlanifie,
		ClientID:    req.ClientID,
		AssigneID:   req.AssigneID,
		DateDebut:   req.DateDebut,
		DateFin:     req.DateFin,
		Budget:      req.Budget,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, chantier); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, chantier.ID)
}

// Update met à jour les champs descriptifs, pas le statut
func (s *ChantierService) Update(ctx context.Context, id string, req *ChantierRequest) (*entity.Chantier, error) {
	chantier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validerChantier(req); err != nil {
		return nil, err
	}

	chantier.Nom = req.Nom
	chantier.Description = req.Description
	chantier.Adresse = req.Adresse
	chantier.ClientID = req.ClientID
	chantier.AssigneID = req.AssigneID
	chantier.DateDebut = req.DateDebut
	chantier.DateFin = req.DateFin
	chantier.Budget = req.Budget
	chantier.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, chantier); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, chantier.ID)
}

// ChangeStatut applique une transition contrôlée
func (s *ChantierService) ChangeStatut(ctx context.Context, id, nouveau string) (*entity.Chantier, error) {
	chantier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, target := range transitionsChantier[chantier.Statut] {
		if target == nouveau {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s → %s", ErrTransitionInvalide, chantier.Statut, nouveau)
	}

	chantier.Statut = nouveau
	if nouveau == entity.ChantierTermine {
		chantier.Avancement = 100
	}
	chantier.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, chantier); err != nil {
		return nil, err
	}
	return chantier, nil
}

// SetAvancement met à jour le pourcentage d'avancement (0-100)
func (s *ChantierService) SetAvancement(ctx context.Context, id string, avancement int) (*entity.Chantier, error) {
	if avancement < 0 || avancement > 100 {
		return nil, newValidationError("avancement")
	}
	chantier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	chantier.Avancement = avancement
	chantier.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, chantier); err != nil {
		return nil, err
	}
	return chantier, nil
}

// Delete supprime un chantier
func (s *ChantierService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
