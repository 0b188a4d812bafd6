package models

import "time"

// Transaction is a salary advance payout. Never deleted.
type Transaction struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	AdvanceID       *uint      `gorm:"column:demande_avance_id;index" json:"demande_avance_id"`
	EmployeeID      uint       `gorm:"column:employe_id;not null;index" json:"employe_id"`
	PartnerID       uint       `gorm:"column:partenaire_id;not null;index" json:"partenaire_id"`
	Montant         int64      `gorm:"not null" json:"montant"`
	Devise          string     `gorm:"size:3;default:'GNF'" json:"devise"`
	PayID           string     `gorm:"column:pay_id;size:128;index" json:"pay_id"`
	PaymentURL      string     `gorm:"size:512" json:"payment_url"`
	Statut          string     `gorm:"size:20;not null;index" json:"statut"` // EN_COURS, EFFECTUEE, ECHOUE, ANNULEE
	NumeroReception string     `gorm:"size:128" json:"numero_reception"`
	DateTransaction time.Time  `gorm:"not null;index" json:"date_transaction"`
	DateEffectuee   *time.Time `json:"date_effectuee"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employe,omitempty"`
	Partner  *Partner  `gorm:"foreignKey:PartnerID" json:"partenaire,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}
