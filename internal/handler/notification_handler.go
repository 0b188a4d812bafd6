package handler

import (
	"context"
	"net/http"
	"strconv"

	"zalama/internal/middleware"
	"zalama/internal/repository"
	"zalama/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EventDispatcher triggers the SMS/email/push message of a lifecycle event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event string, entityID uint) (*service.DispatchResult, error)
}

type NotificationHandler struct {
	repo       *repository.NotificationRepository
	dispatcher EventDispatcher
	log        *logrus.Logger
}

func NewNotificationHandler(repo *repository.NotificationRepository, dispatcher EventDispatcher, log *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{repo: repo, dispatcher: dispatcher, log: log}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := h.repo.List(c.Request.Context(), userID, c.Query("unread") == "true", limit, offset)
	if err != nil {
		fail(c, h.log, "NotificationHandler", "List", err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.repo.UnreadCount(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, "NotificationHandler", "UnreadCount", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"count": n})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.repo.MarkRead(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		fail(c, h.log, "NotificationHandler", "MarkRead", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.repo.MarkAllRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		fail(c, h.log, "NotificationHandler", "MarkAllRead", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		fail(c, h.log, "NotificationHandler", "Delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type dispatchRequest struct {
	Event    string `json:"event" binding:"required,oneof=request_received approval rejection payment_success payment_failure"`
	EntityID uint   `json:"entity_id" binding:"required"`
}

// Dispatch sends an event message by hand, e.g. after fixing an employee's phone number.
func (h *NotificationHandler) Dispatch(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	res, err := h.dispatcher.Dispatch(c.Request.Context(), req.Event, req.EntityID)
	if err != nil {
		fail(c, h.log, "NotificationHandler", "Dispatch", err)
		return
	}
	ok(c, http.StatusOK, res)
}
