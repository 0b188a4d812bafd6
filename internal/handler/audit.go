package handler

import (
	"zalama/internal/middleware"
	"zalama/internal/models"
	"zalama/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// auditTrail records admin actions. A nil repository disables it.
type auditTrail struct {
	repo *repository.AuditLogRepository
	log  *logrus.Logger
}

func (a auditTrail) record(c *gin.Context, action, resource, resourceID string) {
	if a.repo == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
	if uid := middleware.GetUserID(c); uid != 0 {
		entry.UserID = &uid
	}
	if err := a.repo.Create(c.Request.Context(), entry); err != nil {
		a.log.WithFields(logrus.Fields{"action": action, "resource": resource}).Warnf("audit log: %v", err)
	}
}
