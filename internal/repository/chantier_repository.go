package repository

import (
	"context"
	"errors"

	"github.com/chantierpro/chantierpro/internal/entity"
	"gorm.io/gorm"
)

// ChantierRepository dépôt chantiers
type ChantierRepository struct {
	db *gorm.DB
}

func NewChantierRepository(db *gorm.DB) *ChantierRepository {
	return &ChantierRepository{db: db}
}

// FindAll liste paginée avec filtres statut/client/assigné/search
func (r *ChantierRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Chantier, int64, error) {
	var items []entity.Chantier
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Chantier{})

	if statut := filters["statut"]; statut != "" {
		query = query.Where("statut = ?", statut)
	}
	if clientID := filters["client_id"]; clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if assigneID := filters["assigne_id"]; assigneID != "" {
		query = query.Where("assigne_id = ?", assigneID)
	}
	if search := filters["search"]; search != "" {
		like := "%" + search + "%"
		query = query.Where("nom ILIKE ? OR adresse ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Client").
		Preload("Assigne").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID recherche par identifiant
func (r *ChantierRepository) FindByID(ctx context.Context, id string) (*entity.Chantier, error) {
	var c entity.Chantier
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Assigne").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create crée un chantier
func (r *ChantierRepository) Create(ctx context.Context, c *entity.Chantier) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Update enregistre un chantier
func (r *ChantierRepository) Update(ctx context.Context, c *entity.Chantier) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete supprime un chantier
func (r *ChantierRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Chantier{}).Error
}
