package entity

import "time"

// Statuts chantier
const (
	ChantierPlanifie = "PLANIFIE"
	ChantierEnCours  = "EN_COURS"
	ChantierEnAttente = "EN_ATTENTE"
	ChantierTermine  = "TERMINE"
	ChantierAnnule   = "ANNULE"
)

// Chantier chantier de construction, agrégat racine
type Chantier struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	Nom         string     `json:"nom" gorm:"size:256;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Adresse     string     `json:"adresse" gorm:"size:256"`
	Statut      string     `json:"statut" gorm:"size:20;default:PLANIFIE;index"` // PLANIFIE/EN_COURS/EN_ATTENTE/TERMINE/ANNULE
	ClientID    string     `json:"client_id" gorm:"size:32;index"`
	AssigneID   string     `json:"assigne_id" gorm:"size:32;index"`
	DateDebut   *time.Time `json:"date_debut"`
	DateFin     *time.Time `json:"date_fin"`
	Budget      *float64   `json:"budget" gorm:"type:decimal(15,2)"`
	Avancement  int        `json:"avancement" gorm:"default:0"` // pourcentage 0-100
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Client  *User `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Assigne *User `json:"assigne,omitempty" gorm:"foreignKey:AssigneID"`
}

func (Chantier) TableName() string {
	return "chantiers"
}
