package handler

import (
	"context"
	"fmt"
	"net/http"

	"zalama/internal/middleware"
	"zalama/internal/models"
	"zalama/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Advances is the part of service.AdvanceService the handler uses.
type Advances interface {
	Submit(ctx context.Context, employeeID uint, amount int64, motif string) (*models.SalaryAdvanceRequest, error)
	Approve(ctx context.Context, id, adminID uint) (*models.Transaction, error)
	Reject(ctx context.Context, id, adminID uint, motif string) error
}

type AdvanceHandler struct {
	svc   Advances
	repo  *repository.AdvanceRepository
	audit auditTrail
	log   *logrus.Logger
}

func NewAdvanceHandler(svc Advances, repo *repository.AdvanceRepository, audit *repository.AuditLogRepository, log *logrus.Logger) *AdvanceHandler {
	return &AdvanceHandler{svc: svc, repo: repo, audit: auditTrail{audit, log}, log: log}
}

func (h *AdvanceHandler) List(c *gin.Context) {
	page, limit := pageQuery(c)
	list, total, err := h.repo.List(c.Request.Context(), c.Query("statut"), uintQuery(c, "partenaire_id"), page, limit)
	if err != nil {
		fail(c, h.log, "AdvanceHandler", "List", err)
		return
	}
	paged(c, list, total, page, limit)
}

func (h *AdvanceHandler) Get(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "AdvanceHandler", "Get", err)
		return
	}
	ok(c, http.StatusOK, a)
}

type submitAdvanceRequest struct {
	EmployeeID     uint   `json:"employe_id" binding:"required"`
	MontantDemande int64  `json:"montant_demande" binding:"required,gt=0"`
	Motif          string `json:"motif"`
}

func (h *AdvanceHandler) Submit(c *gin.Context) {
	var req submitAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	a, err := h.svc.Submit(c.Request.Context(), req.EmployeeID, req.MontantDemande, req.Motif)
	if err != nil {
		fail(c, h.log, "AdvanceHandler", "Submit", err)
		return
	}
	ok(c, http.StatusCreated, a)
}

func (h *AdvanceHandler) Approve(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	tx, err := h.svc.Approve(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, "AdvanceHandler", "Approve", err)
		return
	}
	h.audit.record(c, "demande_approuvee", "demande_avance", fmt.Sprint(id))
	ok(c, http.StatusOK, gin.H{"transaction": tx})
}

type rejectAdvanceRequest struct {
	Motif string `json:"motif" binding:"required"`
}

func (h *AdvanceHandler) Reject(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req rejectAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	if err := h.svc.Reject(c.Request.Context(), id, middleware.GetUserID(c), req.Motif); err != nil {
		fail(c, h.log, "AdvanceHandler", "Reject", err)
		return
	}
	h.audit.record(c, "demande_rejetee", "demande_avance", fmt.Sprint(id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
