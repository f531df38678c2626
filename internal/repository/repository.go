package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Erreurs communes
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories collection des dépôts
type Repositories struct {
	User     *UserRepository
	Chantier *ChantierRepository
	Devis    *DevisRepository
	Document *DocumentRepository
	Message  *MessageRepository
	Planning *PlanningRepository
}

// NewRepositories crée la collection des dépôts
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Chantier: NewChantierRepository(db),
		Devis:    NewDevisRepository(db),
		Document: NewDocumentRepository(db),
		Message:  NewMessageRepository(db),
		Planning: NewPlanningRepository(db),
	}
}
