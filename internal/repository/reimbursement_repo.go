package repository

import (
	"context"
	"time"

	"zalama/internal/domain"
	"zalama/internal/models"

	"gorm.io/gorm"
)

type ReimbursementFilter struct {
	PartnerID uint
	Status    string // EN_RETARD selects pending rows past their due date
	Page      int
	Limit     int
}

type ReimbursementRepository struct {
	db *gorm.DB
}

func NewReimbursementRepository(db *gorm.DB) *ReimbursementRepository {
	return &ReimbursementRepository{db: db}
}

func (r *ReimbursementRepository) Create(ctx context.Context, rb *models.Reimbursement) error {
	return translate(r.db.WithContext(ctx).Create(rb).Error)
}

func (r *ReimbursementRepository) GetByID(ctx context.Context, id uint) (*models.Reimbursement, error) {
	var rb models.Reimbursement
	err := r.db.WithContext(ctx).
		Preload("Partner").Preload("Employee").Preload("Transaction").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&rb, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rb, nil
}

func (r *ReimbursementRepository) ExistsForTransaction(ctx context.Context, transactionID uint) (bool, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Reimbursement{}).Where("transaction_id = ?", transactionID).Count(&c).Error
	return c > 0, err
}

func (r *ReimbursementRepository) filtered(ctx context.Context, f ReimbursementFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Reimbursement{})
	if f.PartnerID != 0 {
		q = q.Where("partenaire_id = ?", f.PartnerID)
	}
	switch f.Status {
	case "":
	case domain.ReimbursementOverdue:
		q = q.Where("statut = ? AND date_limite_remboursement < ?", domain.ReimbursementPending, time.Now())
	default:
		q = q.Where("statut = ?", f.Status)
	}
	return q
}

func (r *ReimbursementRepository) List(ctx context.Context, f ReimbursementFilter) ([]models.Reimbursement, int64, error) {
	q := r.filtered(ctx, f)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, size := Page(f.Page, f.Limit)
	var list []models.Reimbursement
	err := q.Preload("Partner").Preload("Employee").Order("created_at DESC").Limit(size).Offset(offset).Find(&list).Error
	return list, total, err
}

// ListAll is List without pagination, used by exports.
func (r *ReimbursementRepository) ListAll(ctx context.Context, f ReimbursementFilter) ([]models.Reimbursement, error) {
	var list []models.Reimbursement
	err := r.filtered(ctx, f).Preload("Partner").Preload("Employee").Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *ReimbursementRepository) ListPendingByPartner(ctx context.Context, partnerID uint) ([]models.Reimbursement, error) {
	var list []models.Reimbursement
	err := r.db.WithContext(ctx).
		Where("partenaire_id = ? AND statut = ?", partnerID, domain.ReimbursementPending).
		Order("id ASC").Find(&list).Error
	return list, err
}

func (r *ReimbursementRepository) ListByPayID(ctx context.Context, payID string) ([]models.Reimbursement, error) {
	var list []models.Reimbursement
	err := r.db.WithContext(ctx).Where("pay_id = ?", payID).Find(&list).Error
	return list, err
}

// AttachPayment stores the gateway payment on every listed row still EN_ATTENTE.
func (r *ReimbursementRepository) AttachPayment(ctx context.Context, ids []uint, payID, paymentURL, method string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Reimbursement{}).
		Where("id IN ? AND statut = ?", ids, domain.ReimbursementPending).
		Updates(map[string]interface{}{
			"pay_id":           payID,
			"payment_url":      paymentURL,
			"methode_paiement": method,
			"updated_at":       time.Now(),
		})
	return res.RowsAffected, res.Error
}

// ApplyStatus writes updates and its history entry while the row is still in status from.
func (r *ReimbursementRepository) ApplyStatus(ctx context.Context, id uint, from string, updates map[string]interface{}, h *models.ReimbursementHistory) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reimbursement{}).Where("id = ? AND statut = ?", id, from).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		if h == nil {
			return nil
		}
		h.ReimbursementID = id
		return tx.Create(h).Error
	})
	return applied, err
}
