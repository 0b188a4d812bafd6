package service

import (
	"context"

	"zalama/internal/domain"
	"zalama/internal/models"

	"github.com/sirupsen/logrus"
)

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

type RoleDirectory interface {
	ListIDsByRoles(ctx context.Context, roles ...string) ([]uint, error)
}

// LiveFeed pushes new notifications to connected dashboard sessions.
type LiveFeed interface {
	SendToUser(userID uint, payload interface{})
}

// NotificationService stores in-app notifications and pushes them to the live feed.
type NotificationService struct {
	repo  NotificationStore
	users RoleDirectory
	feed  LiveFeed
	log   *logrus.Logger
}

func NewNotificationService(repo NotificationStore, users RoleDirectory, feed LiveFeed, log *logrus.Logger) *NotificationService {
	return &NotificationService{repo: repo, users: users, feed: feed, log: log}
}

func (s *NotificationService) Notify(ctx context.Context, userID uint, notifType, title, message string) error {
	uid := userID
	n := &models.Notification{UserID: &uid, Type: notifType, Titre: title, Message: message}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.push(userID, n)
	return nil
}

// NotifyAdmins writes one notification per ADMIN and RH account. Failures are logged, never returned,
// so callers on a payment path are not interrupted.
func (s *NotificationService) NotifyAdmins(ctx context.Context, notifType, title, message string) {
	ids, err := s.users.ListIDsByRoles(ctx, domain.RoleAdmin, domain.RoleRH)
	if err != nil {
		s.log.WithField("type", notifType).Warnf("list admin accounts: %v", err)
		return
	}
	for _, id := range ids {
		if err := s.Notify(ctx, id, notifType, title, message); err != nil {
			s.log.WithFields(logrus.Fields{"type": notifType, "user_id": id}).Warnf("create notification: %v", err)
		}
	}
}

func (s *NotificationService) push(userID uint, n *models.Notification) {
	if s.feed == nil {
		return
	}
	s.feed.SendToUser(userID, map[string]interface{}{"type": "notification", "notification": n})
}
