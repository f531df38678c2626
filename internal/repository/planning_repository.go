package repository

import (
	"context"
	"errors"
	"time"

	"github.com/chantierpro/chantierpro/internal/entity"
	"gorm.io/gorm"
)

// PlanningRepository dépôt événements de planning
type PlanningRepository struct {
	db *gorm.DB
}

func NewPlanningRepository(db *gorm.DB) *PlanningRepository {
	return &PlanningRepository{db: db}
}

// FindAll liste paginée, filtres type/chantier/organisateur et fenêtre temporelle
func (r *PlanningRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PlanningEvent, int64, error) {
	var items []entity.PlanningEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PlanningEvent{})

	if eventType := filters["type"]; eventType != "" {
		query = query.Where("type = ?", eventType)
	}
	if chantierID := filters["chantier_id"]; chantierID != "" {
		query = query.Where("chantier_id = ?", chantierID)
	}
	if organisateurID := filters["organisateur_id"]; organisateurID != "" {
		query = query.Where("organisateur_id = ?", organisateurID)
	}
	if from := filters["from"]; from != "" {
		query = query.Where("date_fin >= ?", from)
	}
	if to := filters["to"]; to != "" {
		query = query.Where("date_debut <= ?", to)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Organisateur").
		Order("date_debut ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID recherche par identifiant
func (r *PlanningRepository) FindByID(ctx context.Context, id string) (*entity.PlanningEvent, error) {
	var e entity.PlanningEvent
	err := r.db.WithContext(ctx).
		Preload("Organisateur").
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create crée un événement
func (r *PlanningRepository) Create(ctx context.Context, e *entity.PlanningEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Update enregistre un événement
func (r *PlanningRepository) Update(ctx context.Context, e *entity.PlanningEvent) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// Delete supprime un événement
func (r *PlanningRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.PlanningEvent{}).Error
}

// FindOverlapping événements dont l'intervalle chevauche [debut, fin]
// (test inclusif : date_debut <= fin ET date_fin >= debut), hors excludeID.
// Le filtrage par participants se fait côté service, la liste étant
// sérialisée en texte.
func (r *PlanningRepository) FindOverlapping(ctx context.Context, debut, fin time.Time, excludeID string) ([]entity.PlanningEvent, error) {
	var items []entity.PlanningEvent
	query := r.db.WithContext(ctx).
		Where("date_debut <= ? AND date_fin >= ?", fin, debut).
		Where("statut <> ?", entity.EventAnnule)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Order("date_debut ASC").Find(&items).Error
	return items, err
}
