package entity

import "time"

// Types de document financier
const (
	TypeDevis   = "DEVIS"
	TypeFacture = "FACTURE"
)

// Statuts devis/facture
const (
	DevisBrouillon = "BROUILLON"
	DevisEnvoye    = "ENVOYE"
	DevisAccepte   = "ACCEPTE"
	DevisRefuse    = "REFUSE"
	DevisPaye      = "PAYE"
	DevisAnnule    = "ANNULE"
)

// MentionAutoliquidationDefaut mention légale par défaut (article 283-2 du CGI)
const MentionAutoliquidationDefaut = "Autoliquidation de la TVA - article 283-2 du CGI. " +
	"TVA due par le preneur assujetti."

// Devis document financier unifié : devis ou facture selon Type
type Devis struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	Numero     string `json:"numero" gorm:"size:32;uniqueIndex;not null"`
	Type       string `json:"type" gorm:"size:16;default:DEVIS;index"` // DEVIS/FACTURE
	Statut     string `json:"statut" gorm:"size:16;default:BROUILLON;index"`
	Objet      string `json:"objet" gorm:"size:256"`
	ClientID   string `json:"client_id" gorm:"size:32;not null;index"`
	ChantierID string `json:"chantier_id" gorm:"size:32;index"`

	// Totaux calculés côté serveur, jamais repris du client
	TotalHT  float64 `json:"total_ht" gorm:"type:decimal(15,2);default:0"`
	TotalTVA float64 `json:"total_tva" gorm:"type:decimal(15,2);default:0"`
	TotalTTC float64 `json:"total_ttc" gorm:"type:decimal(15,2);default:0"`

	// Ventilation TVA multi-taux (montants de TVA par taux)
	TVA55 float64 `json:"tva_55" gorm:"column:tva_55;type:decimal(15,2);default:0"`
	TVA10 float64 `json:"tva_10" gorm:"column:tva_10;type:decimal(15,2);default:0"`
	TVA20 float64 `json:"tva_20" gorm:"column:tva_20;type:decimal(15,2);default:0"`

	// Autoliquidation : TVA à 0, TTC = HT, mention légale obligatoire
	Autoliquidation bool   `json:"autoliquidation" gorm:"default:false"`
	MentionAutoliq  string `json:"mention_autoliq" gorm:"size:512"`

	// Situation de travaux (facturation partielle)
	SituationNumero int    `json:"situation_numero" gorm:"default:0"`
	SituationParent string `json:"situation_parent" gorm:"size:32;index"`
	Avancement      int    `json:"avancement" gorm:"default:0"` // pourcentage 0-100

	// Lien devis→facture après conversion
	FactureID string `json:"facture_id" gorm:"size:32;index"`

	DateEnvoi       *time.Time `json:"date_envoi"`
	DateAcceptation *time.Time `json:"date_acceptation"`
	DateEcheance    *time.Time `json:"date_echeance"`
	CreatedBy       string     `json:"created_by" gorm:"size:32"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Notes           string     `json:"notes" gorm:"type:text"`

	// Relations
	Lignes    []LigneDevis `json:"lignes,omitempty" gorm:"foreignKey:DevisID"`
	Paiements []Paiement   `json:"paiements,omitempty" gorm:"foreignKey:DevisID"`
	Client    *User        `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Chantier  *Chantier    `json:"chantier,omitempty" gorm:"foreignKey:ChantierID"`
}

func (Devis) TableName() string {
	return "devis"
}

// LigneDevis ligne de devis/facture, total = quantité × prix unitaire
type LigneDevis struct {
	ID           string  `json:"id" gorm:"primaryKey;size:32"`
	DevisID      string  `json:"devis_id" gorm:"size:32;not null;index"`
	Designation  string  `json:"designation" gorm:"size:256;not null"`
	Description  string  `json:"description" gorm:"type:text"`
	Unite        string  `json:"unite" gorm:"size:16"`
	Quantite     float64 `json:"quantite" gorm:"type:decimal(12,3);not null"`
	PrixUnitaire float64 `json:"prix_unitaire" gorm:"type:decimal(15,4);not null"`
	Total        float64 `json:"total" gorm:"type:decimal(15,2);not null"`
	Ordre        int     `json:"ordre" gorm:"default:0"`

	// Taux TVA par ligne (nil = taux global du document)
	TauxTVA *float64 `json:"taux_tva" gorm:"type:decimal(4,2)"`

	CreatedAt time.Time `json:"created_at"`
}

func (LigneDevis) TableName() string {
	return "lignes_devis"
}

// Méthodes de paiement acceptées
const (
	PaiementVirement = "VIREMENT"
	PaiementCheque   = "CHEQUE"
	PaiementCarte    = "CARTE"
	PaiementEspeces  = "ESPECES"
)

// Paiement règlement enregistré sur une facture
type Paiement struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	DevisID      string    `json:"devis_id" gorm:"size:32;not null;index"`
	Montant      float64   `json:"montant" gorm:"type:decimal(15,2);not null"`
	Methode      string    `json:"methode" gorm:"size:20;not null"` // VIREMENT/CHEQUE/CARTE/ESPECES
	Reference    string    `json:"reference" gorm:"size:64"`
	DatePaiement time.Time `json:"date_paiement"`
	CreatedBy    string    `json:"created_by" gorm:"size:32"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Paiement) TableName() string {
	return "paiements"
}

// SequenceNumero compteur de numérotation par type de document.
// Incrémenté sous verrou dans une transaction pour garantir des numéros
// uniques et monotones même en création concurrente.
type SequenceNumero struct {
	Type     string `gorm:"primaryKey;size:16"`
	Compteur int64  `gorm:"not null;default:0"`
}

func (SequenceNumero) TableName() string {
	return "sequences_numero"
}
