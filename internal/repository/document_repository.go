package repository

import (
	"context"
	"errors"

	"github.com/chantierpro/chantierpro/internal/entity"
	"gorm.io/gorm"
)

// DocumentRepository dépôt documents
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindAll liste paginée, filtres conjonctifs chantier/type/dossier + recherche
// plein texte sur nom, nom original et tags
func (r *DocumentRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Document, int64, error) {
	var items []entity.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Document{})

	if chantierID := filters["chantier_id"]; chantierID != "" {
		query = query.Where("chantier_id = ?", chantierID)
	}
	if docType := filters["type"]; docType != "" {
		query = query.Where("type = ?", docType)
	}
	if dossier := filters["dossier"]; dossier != "" {
		query = query.Where("dossier = ?", dossier)
	}
	if search := filters["search"]; search != "" {
		like := "%" + search + "%"
		query = query.Where("nom ILIKE ? OR nom_original ILIKE ? OR tags ILIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Uploader").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID recherche par identifiant
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	var d entity.Document
	err := r.db.WithContext(ctx).
		Preload("Uploader").
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Create crée un document
func (r *DocumentRepository) Create(ctx context.Context, d *entity.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// Update enregistre un document
func (r *DocumentRepository) Update(ctx context.Context, d *entity.Document) error {
	return r.db.WithContext(ctx).Save(d).Error
}

// Delete suppression définitive, sans cascade référentielle
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Document{}).Error
}
