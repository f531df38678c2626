package entity

import "time"

// Rôles utilisateur
const (
	RoleAdmin      = "ADMIN"
	RoleCommercial = "COMMERCIAL"
	RoleOuvrier    = "OUVRIER"
	RoleClient     = "CLIENT"
)

// User utilisateur de la plateforme
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	Name         string     `json:"name" gorm:"size:128;not null"`
	Email        string     `json:"email" gorm:"size:128;uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"size:128;not null"`
	Role         string     `json:"role" gorm:"size:20;default:OUVRIER;index"` // ADMIN/COMMERCIAL/OUVRIER/CLIENT
	Company      string     `json:"company" gorm:"size:128"`
	Phone        string     `json:"phone" gorm:"size:32"`
	Address      string     `json:"address" gorm:"size:256"`
	Status       string     `json:"status" gorm:"size:16;default:active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// PermissionsForRole permissions dérivées du rôle (mapping figé, pas de moteur de règles)
func PermissionsForRole(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{"*"}
	case RoleCommercial:
		return []string{
			"chantiers:read", "chantiers:write",
			"devis:read", "devis:write", "devis:send",
			"documents:read", "documents:write",
			"messages:read", "messages:write",
			"planning:read", "planning:write",
			"users:read",
		}
	case RoleOuvrier:
		return []string{
			"chantiers:read",
			"documents:read", "documents:write",
			"messages:read", "messages:write",
			"planning:read",
		}
	default:
		// CLIENT et rôles inconnus : lecture seule sur ses propres données
		return []string{
			"chantiers:read",
			"devis:read",
			"documents:read",
			"messages:read", "messages:write",
			"planning:read",
		}
	}
}
