package entity

import (
	"database/sql/driver"
	"strings"
	"time"
)

// Types d'événement planning
const (
	PlanningRDVClient       = "RDV_CLIENT"
	PlanningChantier        = "PLANNING_CHANTIER"
	PlanningLivraison       = "LIVRAISON"
	PlanningInspection      = "INSPECTION"
	PlanningConges          = "CONGES"
	PlanningReunion         = "REUNION"
	PlanningAutre           = "AUTRE"
)

// Statuts d'événement
const (
	EventPlanifie = "PLANIFIE"
	EventConfirme = "CONFIRME"
	EventAnnule   = "ANNULE"
	EventTermine  = "TERMINE"
)

// PlanningEvent événement de calendrier sur l'intervalle [DateDebut, DateFin]
type PlanningEvent struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	Titre          string    `json:"titre" gorm:"size:256;not null"`
	Description    string    `json:"description" gorm:"type:text"`
	Type           string    `json:"type" gorm:"size:32;default:AUTRE;index"`
	Statut         string    `json:"statut" gorm:"size:16;default:PLANIFIE"`
	DateDebut      time.Time `json:"date_debut" gorm:"not null;index"`
	DateFin        time.Time `json:"date_fin" gorm:"not null;index"`
	OrganisateurID string    `json:"organisateur_id" gorm:"size:32;not null;index"`
	ChantierID     string    `json:"chantier_id" gorm:"size:32;index"`
	Lieu           string    `json:"lieu" gorm:"size:256"`

	// Participants : identifiants utilisateur, sans doublon
	Participants IDList `json:"participants" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organisateur *User     `json:"organisateur,omitempty" gorm:"foreignKey:OrganisateurID"`
	Chantier     *Chantier `json:"chantier,omitempty" gorm:"foreignKey:ChantierID"`
}

func (PlanningEvent) TableName() string {
	return "planning_events"
}

// IDList ensemble d'identifiants stocké en texte séparé par des virgules
type IDList []string

func (l *IDList) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	}
	if s == "" {
		*l = nil
		return nil
	}
	*l = strings.Split(s, ",")
	return nil
}

func (l IDList) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

// Contains teste la présence d'un identifiant
func (l IDList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}
