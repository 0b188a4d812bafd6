package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Employee struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	PartnerID  uint           `gorm:"column:partenaire_id;not null;index" json:"partenaire_id"`
	Nom        string         `gorm:"size:100;not null" json:"nom"`
	Prenom     string         `gorm:"size:100" json:"prenom"`
	Email      string         `gorm:"size:255;index" json:"email"`
	Telephone  string         `gorm:"size:20;index" json:"telephone"`
	Poste      string         `gorm:"size:100" json:"poste"`
	SalaireNet int64          `gorm:"not null;default:0" json:"salaire_net"`
	UserID     *uint          `gorm:"uniqueIndex" json:"user_id"` // auth account, nil until synced
	FCMToken   string         `gorm:"size:512" json:"-"`
	Actif      bool           `gorm:"default:true;index" json:"actif"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Partner *Partner `gorm:"foreignKey:PartnerID" json:"partenaire,omitempty"`
}

func (Employee) TableName() string {
	return "employes"
}

// FullName is "Prenom Nom", or whichever part is set.
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.Prenom + " " + e.Nom)
}
