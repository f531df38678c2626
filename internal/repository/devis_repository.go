package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/chantierpro/chantierpro/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DevisRepository dépôt devis/factures
type DevisRepository struct {
	db *gorm.DB
}

func NewDevisRepository(db *gorm.DB) *DevisRepository {
	return &DevisRepository{db: db}
}

// DB accès brut pour les transactions de service
func (r *DevisRepository) DB() *gorm.DB {
	return r.db
}

// FindAll liste paginée avec filtres type/statut/client/chantier/search
func (r *DevisRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Devis, int64, error) {
	var items []entity.Devis
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Devis{})

	if docType := filters["type"]; docType != "" {
		query = query.Where("type = ?", docType)
	}
	if statut := filters["statut"]; statut != "" {
		query = query.Where("statut = ?", statut)
	}
	if clientID := filters["client_id"]; clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if chantierID := filters["chantier_id"]; chantierID != "" {
		query = query.Where("chantier_id = ?", chantierID)
	}
	if search := filters["search"]; search != "" {
		like := "%" + search + "%"
		query = query.Where("numero ILIKE ? OR objet ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Lignes", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordre ASC")
		}).
		Preload("Client").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID recherche par identifiant, lignes triées par ordre
func (r *DevisRepository) FindByID(ctx context.Context, id string) (*entity.Devis, error) {
	var d entity.Devis
	err := r.db.WithContext(ctx).
		Preload("Lignes", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordre ASC")
		}).
		Preload("Paiements", func(db *gorm.DB) *gorm.DB {
			return db.Order("date_paiement ASC")
		}).
		Preload("Client").
		Preload("Chantier").
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

// Create crée le devis et ses lignes
func (r *DevisRepository) Create(ctx context.Context, d *entity.Devis) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// Update enregistre l'entête du devis (sans toucher aux lignes)
func (r *DevisRepository) Update(ctx context.Context, d *entity.Devis) error {
	return r.db.WithContext(ctx).Omit("Lignes", "Paiements").Save(d).Error
}

// ReplaceLignes remplace intégralement les lignes (delete-then-recreate)
func (r *DevisRepository) ReplaceLignes(ctx context.Context, devisID string, lignes []entity.LigneDevis) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("devis_id = ?", devisID).Delete(&entity.LigneDevis{}).Error; err != nil {
			return err
		}
		if len(lignes) == 0 {
			return nil
		}
		return tx.Create(&lignes).Error
	})
}

// Delete supprime le devis, ses lignes et ses paiements
func (r *DevisRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("devis_id = ?", id).Delete(&entity.LigneDevis{}).Error; err != nil {
			return err
		}
		if err := tx.Where("devis_id = ?", id).Delete(&entity.Paiement{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Devis{}).Error
	})
}

// NextNumero réserve le prochain numéro pour un type de document.
// Le compteur est verrouillé (SELECT ... FOR UPDATE) dans la transaction
// fournie : pas de doublon possible en création concurrente.
func (r *DevisRepository) NextNumero(tx *gorm.DB, docType string) (string, error) {
	var seq entity.SequenceNumero
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("type = ?", docType).
		First(&seq).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		seq = entity.SequenceNumero{Type: docType}
		if err := tx.Create(&seq).Error; err != nil {
			return "", err
		}
	}

	seq.Compteur++
	if err := tx.Save(&seq).Error; err != nil {
		return "", err
	}

	prefix := "DEV"
	if docType == entity.TypeFacture {
		prefix = "FAC"
	}
	return fmt.Sprintf("%s%04d", prefix, seq.Compteur), nil
}

// CountSituations nombre de situations déjà rattachées au parent
func (r *DevisRepository) CountSituations(ctx context.Context, parentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Devis{}).
		Where("situation_parent = ?", parentID).
		Count(&count).Error
	return count, err
}

// FindSituations situations rattachées à un parent, par numéro croissant
func (r *DevisRepository) FindSituations(ctx context.Context, parentID string) ([]entity.Devis, error) {
	var items []entity.Devis
	err := r.db.WithContext(ctx).
		Preload("Lignes", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordre ASC")
		}).
		Where("situation_parent = ?", parentID).
		Order("situation_numero ASC").
		Find(&items).Error
	return items, err
}

// CreatePaiement enregistre un paiement
func (r *DevisRepository) CreatePaiement(ctx context.Context, p *entity.Paiement) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// SumPaiements total des paiements enregistrés sur un document
func (r *DevisRepository) SumPaiements(ctx context.Context, devisID string) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).
		Model(&entity.Paiement{}).
		Where("devis_id = ?", devisID).
		Select("COALESCE(SUM(montant), 0)").
		Scan(&sum).Error
	return sum, err
}

// FindPaiements paiements d'un document, par date croissante
func (r *DevisRepository) FindPaiements(ctx context.Context, devisID string) ([]entity.Paiement, error) {
	var items []entity.Paiement
	err := r.db.WithContext(ctx).
		Where("devis_id = ?", devisID).
		Order("date_paiement ASC").
		Find(&items).Error
	return items, err
}

// StatsParStatut agrégats par statut pour un type de document
type StatutStat struct {
	Statut   string  `json:"statut"`
	Count    int64   `json:"count"`
	TotalTTC float64 `json:"total_ttc"`
}

// Stats agrégats comptage + montants par statut
func (r *DevisRepository) Stats(ctx context.Context, docType string) ([]StatutStat, error) {
	var stats []StatutStat
	query := r.db.WithContext(ctx).
		Model(&entity.Devis{}).
		Select("statut, COUNT(*) as count, COALESCE(SUM(total_ttc), 0) as total_ttc").
		Group("statut")
	if docType != "" {
		query = query.Where("type = ?", docType)
	}
	err := query.Scan(&stats).Error
	return stats, err
}
