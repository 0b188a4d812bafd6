package models

import (
	"time"

	"gorm.io/gorm"
)

// Partner is an employer whose employees can request salary advances.
type Partner struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Nom       string         `gorm:"size:150;not null;index" json:"nom"`
	Email     string         `gorm:"size:255" json:"email"`
	Telephone string         `gorm:"size:20" json:"telephone"`
	Adresse   string         `gorm:"size:255" json:"adresse"`
	Secteur   string         `gorm:"size:100" json:"secteur"`
	Actif     bool           `gorm:"default:true;index" json:"actif"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Employees []Employee `gorm:"foreignKey:PartnerID" json:"employes,omitempty"`
}

func (Partner) TableName() string {
	return "partenaires"
}
