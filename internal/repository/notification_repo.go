package repository

import (
	"context"

	"zalama/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// visibleTo matches notifications addressed to userID or broadcast to everyone.
func (r *NotificationRepository) visibleTo(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? OR user_id IS NULL", userID)
}

func (r *NotificationRepository) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	q := r.visibleTo(ctx, userID)
	if unreadOnly {
		q = q.Where("lu = ?", false)
	}
	var list []models.Notification
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var c int64
	err := r.visibleTo(ctx, userID).Where("lu = ?", false).Count(&c).Error
	return c, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint) error {
	return r.visibleTo(ctx, userID).Where("id = ?", id).Update("lu", true).Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint) error {
	return r.visibleTo(ctx, userID).Where("lu = ?", false).Update("lu", true).Error
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND (user_id = ? OR user_id IS NULL)", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
