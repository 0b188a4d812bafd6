package repository

import (
	"context"

	"zalama/internal/models"

	"gorm.io/gorm"
)

type PartnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

func (r *PartnerRepository) Create(ctx context.Context, p *models.Partner) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PartnerRepository) GetByID(ctx context.Context, id uint) (*models.Partner, error) {
	var p models.Partner
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// List returns partners with search and pagination.
func (r *PartnerRepository) List(ctx context.Context, search string, page, limit int) ([]models.Partner, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Partner{})
	if search != "" {
		q = q.Where("nom LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, size := Page(page, limit)
	var list []models.Partner
	err := q.Order("created_at DESC").Limit(size).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *PartnerRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Partner{}).Where("id = ?", id).Updates(updates).Error
}
