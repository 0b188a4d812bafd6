package repository

import (
	"context"

	"zalama/internal/models"

	"gorm.io/gorm"
)

type AdvanceRepository struct {
	db *gorm.DB
}

func NewAdvanceRepository(db *gorm.DB) *AdvanceRepository {
	return &AdvanceRepository{db: db}
}

func (r *AdvanceRepository) Create(ctx context.Context, a *models.SalaryAdvanceRequest) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AdvanceRepository) GetByID(ctx context.Context, id uint) (*models.SalaryAdvanceRequest, error) {
	var a models.SalaryAdvanceRequest
	if err := r.db.WithContext(ctx).Preload("Employee").First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *AdvanceRepository) List(ctx context.Context, status string, partnerID uint, page, limit int) ([]models.SalaryAdvanceRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.SalaryAdvanceRequest{})
	if status != "" {
		q = q.Where("statut = ?", status)
	}
	if partnerID != 0 {
		q = q.Where("partenaire_id = ?", partnerID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, size := Page(page, limit)
	var list []models.SalaryAdvanceRequest
	err := q.Preload("Employee").Order("created_at DESC").Limit(size).Offset(offset).Find(&list).Error
	return list, total, err
}

// Decide moves a request out of status from; false means it was already decided.
func (r *AdvanceRepository) Decide(ctx context.Context, id uint, from string, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.SalaryAdvanceRequest{}).
		Where("id = ? AND statut = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
