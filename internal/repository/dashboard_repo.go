package repository

import (
	"context"
	"time"

	"zalama/internal/domain"
	"zalama/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalPartners         int64            `json:"total_partenaires"`
	TotalEmployees        int64            `json:"total_employes"`
	PendingAdvances       int64            `json:"demandes_en_attente"`
	TotalTransactions     int64            `json:"total_transactions"`
	AmountDisbursed       int64            `json:"montant_total_avances"`
	FeesCollected         int64            `json:"frais_collectes"`
	ReimbursementsByState map[string]int64 `json:"remboursements_par_statut"`
	AmountOutstanding     int64            `json:"montant_a_rembourser"`
	AmountRepaid          int64            `json:"montant_rembourse"`
}

type MonthlyPoint struct {
	Month  string `json:"mois"`
	Count  int64  `json:"nombre"`
	Amount int64  `json:"montant"`
}

type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) sum(q *gorm.DB, column string) (int64, error) {
	var out struct{ Total int64 }
	err := q.Select("COALESCE(SUM(" + column + "), 0) AS total").Scan(&out).Error
	return out.Total, err
}

// Stats aggregates dashboard counters, optionally scoped to one partner.
func (r *DashboardRepository) Stats(ctx context.Context, partnerID uint) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	scope := func(m interface{}) *gorm.DB {
		q := db.Model(m)
		if partnerID != 0 {
			q = q.Where("partenaire_id = ?", partnerID)
		}
		return q
	}
	s := DashboardStats{ReimbursementsByState: map[string]int64{}}
	var err error

	if partnerID == 0 {
		if err = db.Model(&models.Partner{}).Where("actif = ?", true).Count(&s.TotalPartners).Error; err != nil {
			return nil, err
		}
	} else {
		s.TotalPartners = 1
	}
	if err = scope(&models.Employee{}).Where("actif = ?", true).Count(&s.TotalEmployees).Error; err != nil {
		return nil, err
	}
	if err = scope(&models.SalaryAdvanceRequest{}).Where("statut = ?", domain.AdvancePending).Count(&s.PendingAdvances).Error; err != nil {
		return nil, err
	}
	if err = scope(&models.Transaction{}).Where("statut = ?", domain.TransactionSucceeded).Count(&s.TotalTransactions).Error; err != nil {
		return nil, err
	}
	if s.AmountDisbursed, err = r.sum(scope(&models.Transaction{}).Where("statut = ?", domain.TransactionSucceeded), "montant"); err != nil {
		return nil, err
	}
	if s.FeesCollected, err = r.sum(scope(&models.Reimbursement{}), "frais_service"); err != nil {
		return nil, err
	}
	if s.AmountOutstanding, err = r.sum(scope(&models.Reimbursement{}).Where("statut = ?", domain.ReimbursementPending), "montant_total_remboursement"); err != nil {
		return nil, err
	}
	if s.AmountRepaid, err = r.sum(scope(&models.Reimbursement{}).Where("statut = ?", domain.ReimbursementPaid), "montant_total_remboursement"); err != nil {
		return nil, err
	}

	var rows []struct {
		Statut string
		N      int64
	}
	if err = scope(&models.Reimbursement{}).Select("statut, COUNT(*) AS n").Group("statut").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		s.ReimbursementsByState[row.Statut] = row.N
	}
	var overdue int64
	if err = scope(&models.Reimbursement{}).
		Where("statut = ? AND date_limite_remboursement < ?", domain.ReimbursementPending, time.Now()).
		Count(&overdue).Error; err != nil {
		return nil, err
	}
	if overdue > 0 {
		s.ReimbursementsByState[domain.ReimbursementOverdue] = overdue
		s.ReimbursementsByState[domain.ReimbursementPending] -= overdue
	}
	return &s, nil
}

// AdvancesByMonth returns completed payouts grouped by month since from.
func (r *DashboardRepository) AdvancesByMonth(ctx context.Context, partnerID uint, from time.Time) ([]MonthlyPoint, error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("DATE_FORMAT(date_transaction, '%Y-%m') AS month, COUNT(*) AS count, COALESCE(SUM(montant), 0) AS amount").
		Where("statut = ? AND date_transaction >= ?", domain.TransactionSucceeded, from)
	if partnerID != 0 {
		q = q.Where("partenaire_id = ?", partnerID)
	}
	var out []MonthlyPoint
	err := q.Group("month").Order("month").Scan(&out).Error
	return out, err
}
