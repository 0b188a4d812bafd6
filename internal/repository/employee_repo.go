package repository

import (
	"context"

	"zalama/internal/models"

	"gorm.io/gorm"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(ctx context.Context, e *models.Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id uint) (*models.Employee, error) {
	var e models.Employee
	if err := r.db.WithContext(ctx).Preload("Partner").First(&e, id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// GetByUserID finds the employee linked to an auth account.
func (r *EmployeeRepository) GetByUserID(ctx context.Context, userID uint) (*models.Employee, error) {
	var e models.Employee
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

// List returns employees, optionally of one partner, with search and pagination.
func (r *EmployeeRepository) List(ctx context.Context, partnerID uint, search string, page, limit int) ([]models.Employee, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Employee{})
	if partnerID != 0 {
		q = q.Where("partenaire_id = ?", partnerID)
	}
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("nom LIKE ? OR prenom LIKE ? OR email LIKE ? OR telephone LIKE ?", like, like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, size := Page(page, limit)
	var list []models.Employee
	err := q.Order("created_at DESC").Limit(size).Offset(offset).Find(&list).Error
	return list, total, err
}

// ListActiveByPartner returns every active employee of a partner (campaign audiences).
func (r *EmployeeRepository) ListActiveByPartner(ctx context.Context, partnerID uint) ([]models.Employee, error) {
	var list []models.Employee
	err := r.db.WithContext(ctx).Where("partenaire_id = ? AND actif = ?", partnerID, true).Find(&list).Error
	return list, err
}

// ListWithoutAccount returns active employees not yet linked to an auth account.
func (r *EmployeeRepository) ListWithoutAccount(ctx context.Context) ([]models.Employee, error) {
	var list []models.Employee
	err := r.db.WithContext(ctx).Where("user_id IS NULL AND actif = ?", true).Find(&list).Error
	return list, err
}

// LinkUser sets user_id only if the employee is still unlinked.
func (r *EmployeeRepository) LinkUser(ctx context.Context, employeeID, userID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("id = ? AND user_id IS NULL", employeeID).
		Update("user_id", userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EmployeeRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Employee{}).Where("id = ?", id).Updates(updates).Error
}
