package models

import (
	"time"

	"zalama/internal/domain"
)

// Reimbursement is what a partner owes for one disbursed advance.
// MontantTotalRemboursement always equals MontantTransaction.
type Reimbursement struct {
	ID                        uint       `gorm:"primaryKey" json:"id"`
	TransactionID             uint       `gorm:"uniqueIndex;not null" json:"transaction_id"`
	PartnerID                 uint       `gorm:"column:partenaire_id;not null;index" json:"partenaire_id"`
	EmployeeID                uint       `gorm:"column:employe_id;not null;index" json:"employe_id"`
	MontantTransaction        int64      `gorm:"not null" json:"montant_transaction"`
	FraisService              int64      `gorm:"not null" json:"frais_service"`
	MontantNetEmploye         int64      `gorm:"not null" json:"montant_net_employe"`
	MontantTotalRemboursement int64      `gorm:"not null" json:"montant_total_remboursement"`
	Statut                    string     `gorm:"size:20;not null;index" json:"statut"` // EN_ATTENTE, PAYE, ANNULE
	DateLimiteRemboursement   time.Time  `gorm:"not null;index" json:"date_limite_remboursement"`
	DateRemboursement         *time.Time `json:"date_remboursement"`
	PayID                     string     `gorm:"column:pay_id;size:128;index" json:"pay_id"`
	PaymentURL                string     `gorm:"size:512" json:"payment_url"`
	MethodePaiement           string     `gorm:"size:30" json:"methode_paiement"`
	NumeroReception           string     `gorm:"size:128" json:"numero_reception"`
	CommentaireAdmin          string     `gorm:"type:text" json:"commentaire_admin"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`

	Transaction *Transaction           `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	Partner     *Partner               `gorm:"foreignKey:PartnerID" json:"partenaire,omitempty"`
	Employee    *Employee              `gorm:"foreignKey:EmployeeID" json:"employe,omitempty"`
	History     []ReimbursementHistory `gorm:"foreignKey:ReimbursementID" json:"historique,omitempty"`
}

func (Reimbursement) TableName() string {
	return "remboursements"
}

// EffectiveStatus derives EN_RETARD for pending reimbursements past their due date.
func (r *Reimbursement) EffectiveStatus(now time.Time) string {
	if r.Statut == domain.ReimbursementPending && now.After(r.DateLimiteRemboursement) {
		return domain.ReimbursementOverdue
	}
	return r.Statut
}

type ReimbursementHistory struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ReimbursementID uint      `gorm:"column:remboursement_id;not null;index" json:"remboursement_id"`
	AncienStatut    string    `gorm:"size:20" json:"ancien_statut"`
	NouveauStatut   string    `gorm:"size:20;not null" json:"nouveau_statut"`
	Source          string    `gorm:"size:20;not null" json:"source"` // callback, status_check, admin
	Description     string    `gorm:"type:text" json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

func (ReimbursementHistory) TableName() string {
	return "historique_remboursements"
}
