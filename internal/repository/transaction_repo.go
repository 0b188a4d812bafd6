package repository

import (
	"context"

	"zalama/internal/domain"
	"zalama/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.WithContext(ctx).Preload("Employee").Preload("Partner").First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TransactionRepository) ListByPayID(ctx context.Context, payID string) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.WithContext(ctx).Where("pay_id = ?", payID).Find(&list).Error
	return list, err
}

// ListEligible returns completed transactions that have no reimbursement yet.
func (r *TransactionRepository) ListEligible(ctx context.Context, partnerID uint) ([]models.Transaction, error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Preload("Employee").Preload("Partner").
		Where("statut = ?", domain.TransactionSucceeded).
		Where("NOT EXISTS (SELECT 1 FROM remboursements rb WHERE rb.transaction_id = transactions.id)")
	if partnerID != 0 {
		q = q.Where("partenaire_id = ?", partnerID)
	}
	var list []models.Transaction
	err := q.Order("date_transaction DESC").Find(&list).Error
	return list, err
}

// ApplyStatus writes updates only while the row is still in status from.
func (r *TransactionRepository) ApplyStatus(ctx context.Context, id uint, from string, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND statut = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
