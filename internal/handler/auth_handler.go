package handler

import (
	"context"
	"fmt"
	"net/http"

	"zalama/internal/domain"
	"zalama/internal/middleware"
	"zalama/internal/models"
	"zalama/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Authenticator is the part of service.AuthService the handler uses.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Me(ctx context.Context, id uint) (*models.User, error)
}

type AuthHandler struct {
	svc   Authenticator
	audit auditTrail
	log   *logrus.Logger
}

func NewAuthHandler(svc Authenticator, audit *repository.AuditLogRepository, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, audit: auditTrail{audit, log}, log: log}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is open to every role; dashboard routes check ADMIN or RH themselves.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	u, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.log, "AuthHandler", "Login", err)
		return
	}
	c.Set("user_id", u.ID)
	h.audit.record(c, "login", "auth", fmt.Sprint(u.ID))
	ok(c, http.StatusOK, gin.H{
		"user":         u,
		"access_token": token,
		"dashboard":    u.Role == domain.RoleAdmin || u.Role == domain.RoleRH,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, "AuthHandler", "Me", err)
		return
	}
	ok(c, http.StatusOK, u)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.audit.record(c, "logout", "auth", fmt.Sprint(middleware.GetUserID(c)))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
