package entity

import (
	"database/sql/driver"
	"strings"
	"time"
)

// Types de document
const (
	DocumentPhoto = "PHOTO"
	DocumentPDF   = "PDF"
	DocumentPlan  = "PLAN"
	DocumentAutre = "AUTRE"
)

// Document métadonnées d'un fichier déposé (le binaire vit dans MinIO)
type Document struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	Nom         string `json:"nom" gorm:"size:256;not null"`
	NomOriginal string `json:"nom_original" gorm:"size:256"`
	Type        string `json:"type" gorm:"size:16;default:AUTRE;index"` // PHOTO/PDF/PLAN/AUTRE
	Taille      int64  `json:"taille"`
	MimeType    string `json:"mime_type" gorm:"size:128"`
	URL         string `json:"url" gorm:"size:512;not null"`
	CheminMinio string `json:"-" gorm:"size:512"`
	UploaderID  string `json:"uploader_id" gorm:"size:32;not null;index"`
	ChantierID  string `json:"chantier_id" gorm:"size:32;index"`
	Dossier     string `json:"dossier" gorm:"size:128"`
	Public      bool   `json:"public" gorm:"default:false"`

	// Tags sérialisés "a,b,c" en base
	Tags TagList `json:"tags" gorm:"type:text"`

	Metadonnees string    `json:"metadonnees" gorm:"type:text"` // JSON libre
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Uploader *User     `json:"uploader,omitempty" gorm:"foreignKey:UploaderID"`
	Chantier *Chantier `json:"chantier,omitempty" gorm:"foreignKey:ChantierID"`
}

func (Document) TableName() string {
	return "documents"
}

// TagList ensemble de tags, stocké en texte séparé par des virgules
type TagList []string

func (t *TagList) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	}
	if s == "" {
		*t = nil
		return nil
	}
	*t = strings.Split(s, ",")
	return nil
}

func (t TagList) Value() (driver.Value, error) {
	return strings.Join(t, ","), nil
}

// Contains teste la présence d'un tag
func (t TagList) Contains(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}
