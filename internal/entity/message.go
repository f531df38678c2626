package entity

import (
	"database/sql/driver"
	"strings"
	"time"
)

// MessageMaxLen taille maximale du corps d'un message
const MessageMaxLen = 2000

// MessageSupprime texte de remplacement après suppression (tombstone)
const MessageSupprime = "Message supprimé"

// Message message d'une conversation de chantier ou conversation directe
type Message struct {
	ID             string `json:"id" gorm:"primaryKey;size:32"`
	ExpediteurID   string `json:"expediteur_id" gorm:"size:32;not null;index"`
	ChantierID     string `json:"chantier_id" gorm:"size:32;index"`
	DestinataireID string `json:"destinataire_id" gorm:"size:32;index"`
	Message        string `json:"message" gorm:"type:text;not null"`

	// URLs de photos jointes, ordre préservé
	Photos PhotoList `json:"photos" gorm:"type:text"`

	Lu       bool   `json:"lu" gorm:"default:false;index"`
	ThreadID string `json:"thread_id" gorm:"size:32;index"` // message parent en cas de réponse
	Supprime bool   `json:"supprime" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Expediteur *User             `json:"expediteur,omitempty" gorm:"foreignKey:ExpediteurID"`
	Reactions  []MessageReaction `json:"reactions,omitempty" gorm:"foreignKey:MessageID"`
}

func (Message) TableName() string {
	return "messages"
}

// MessageReaction réaction emoji d'un utilisateur sur un message
type MessageReaction struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	MessageID string    `json:"message_id" gorm:"size:32;not null;index"`
	UserID    string    `json:"user_id" gorm:"size:32;not null;index"`
	Emoji     string    `json:"emoji" gorm:"size:16;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (MessageReaction) TableName() string {
	return "message_reactions"
}

// PhotoList liste ordonnée d'URLs, stockée en texte séparé par des sauts de ligne
type PhotoList []string

func (p *PhotoList) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	}
	if s == "" {
		*p = nil
		return nil
	}
	*p = strings.Split(s, "\n")
	return nil
}

func (p PhotoList) Value() (driver.Value, error) {
	return strings.Join(p, "\n"), nil
}
