package models

import (
	"time"

	"gorm.io/gorm"
)

// SalaryAdvanceRequest is an employee's request for part of their salary ahead of payday.
type SalaryAdvanceRequest struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	EmployeeID     uint           `gorm:"column:employe_id;not null;index" json:"employe_id"`
	PartnerID      uint           `gorm:"column:partenaire_id;not null;index" json:"partenaire_id"`
	MontantDemande int64          `gorm:"not null" json:"montant_demande"`
	Motif          string         `gorm:"type:text" json:"motif"`
	Statut         string         `gorm:"size:20;not null;index" json:"statut"` // EN_ATTENTE, APPROUVEE, REJETEE
	MotifRejet     string         `gorm:"type:text" json:"motif_rejet"`
	DateTraitement *time.Time     `json:"date_traitement"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employe,omitempty"`
}

func (SalaryAdvanceRequest) TableName() string {
	return "demandes_avance"
}
