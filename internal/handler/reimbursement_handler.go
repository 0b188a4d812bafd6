package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"zalama/internal/domain"
	"zalama/internal/middleware"
	"zalama/internal/models"
	"zalama/internal/repository"
	"zalama/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Reimbursements is the part of service.ReimbursementService the handler uses.
type Reimbursements interface {
	Create(ctx context.Context, transactionID uint, comment string) (*models.Reimbursement, error)
	Get(ctx context.Context, id uint) (*service.ReimbursementView, error)
	List(ctx context.Context, f repository.ReimbursementFilter) ([]service.ReimbursementView, int64, error)
	ListForExport(ctx context.Context, f repository.ReimbursementFilter) ([]service.ReimbursementView, error)
	Eligible(ctx context.Context, partnerID uint) ([]models.Transaction, error)
	InitiateBatch(ctx context.Context, partnerID uint) (*service.PaymentResult, error)
	InitiateSingle(ctx context.Context, id uint) (*service.PaymentResult, error)
	Correct(ctx context.Context, id uint, status, comment string, adminID uint) (*service.ReimbursementView, error)
}

type ReimbursementHandler struct {
	svc   Reimbursements
	audit auditTrail
	log   *logrus.Logger
}

func NewReimbursementHandler(svc Reimbursements, audit *repository.AuditLogRepository, log *logrus.Logger) *ReimbursementHandler {
	return &ReimbursementHandler{svc: svc, audit: auditTrail{audit, log}, log: log}
}

type createReimbursementRequest struct {
	TransactionID    uint   `json:"transaction_id" binding:"required"`
	CommentaireAdmin string `json:"commentaire_admin"`
}

func (h *ReimbursementHandler) Create(c *gin.Context) {
	var req createReimbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	rb, err := h.svc.Create(c.Request.Context(), req.TransactionID, req.CommentaireAdmin)
	if err != nil {
		fail(c, h.log, "ReimbursementHandler", "Create", err)
		return
	}
	h.audit.record(c, "remboursement_cree", "remboursement", fmt.Sprint(rb.ID))
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": rb})
}

func (h *ReimbursementHandler) List(c *gin.Context) {
	page, limit := pageQuery(c)
	list, total, err := h.svc.List(c.Request.Context(), repository.ReimbursementFilter{
		PartnerID: uintQuery(c, "partenaire_id"),
		Status:    c.Query("statut"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		fail(c, h.log, "ReimbursementHandler", "List", err)
		return
	}
	paged(c, list, total, page, limit)
}

func (h *ReimbursementHandler) Get(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	v, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "ReimbursementHandler", "Get", err)
		return
	}
	ok(c, http.StatusOK, v)
}

func (h *ReimbursementHandler) Eligible(c *gin.Context) {
	list, err := h.svc.Eligible(c.Request.Context(), uintQuery(c, "partenaire_id"))
	if err != nil {
		fail(c, h.log, "ReimbursementHandler", "Eligible", err)
		return
	}
	ok(c, http.StatusOK, list)
}

type batchPaymentRequest struct {
	PartnerID uint `json:"partenaire_id" binding:"required"`
}

// InitiateBatch opens one Lengo payment for every pending reimbursement of a partner.
func (h *ReimbursementHandler) InitiateBatch(c *gin.Context) {
	var req batchPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	res, err := h.svc.InitiateBatch(c.Request.Context(), req.PartnerID)
	if err != nil {
		fail(c, h.log, "ReimbursementHandler", "InitiateBatch", err)
		return
	}
	h.audit.record(c, "paiement_lot_initie", "remboursement", res.PayID)
	c.JSON(http.StatusOK, paymentBody(res))
}

func (h *ReimbursementHandler) InitiateSingle(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	res, err := h.svc.InitiateSingle(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "ReimbursementHandler", "InitiateSingle", err)
		return
	}
	h.audit.record(c, "paiement_initie", "remboursement", res.PayID)
	c.JSON(http.StatusOK, paymentBody(res))
}

type correctStatusRequest struct {
	Statut           string `json:"statut" binding:"required,oneof=PAYE ANNULE EN_ATTENTE"`
	CommentaireAdmin string `json:"commentaire_admin"`
}

func (h *ReimbursementHandler) Correct(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req correctStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	v, err := h.svc.Correct(c.Request.Context(), id, req.Statut, req.CommentaireAdmin, middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, "ReimbursementHandler", "Correct", err)
		return
	}
	h.audit.record(c, "remboursement_corrige", "remboursement", fmt.Sprint(id))
	ok(c, http.StatusOK, v)
}

// Export streams the filtered reimbursements as an xlsx workbook.
func (h *ReimbursementHandler) Export(c *gin.Context) {
	list, err := h.svc.ListForExport(c.Request.Context(), repository.ReimbursementFilter{
		PartnerID: uintQuery(c, "partenaire_id"),
		Status:    c.Query("statut"),
	})
	if err != nil {
		fail(c, h.log, "ReimbursementHandler", "Export", err)
		return
	}
	name := fmt.Sprintf("remboursements-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Status(http.StatusOK)
	if err := service.WriteReimbursementsXLSX(c.Writer, list); err != nil {
		h.log.WithField("module", "ReimbursementHandler").Errorf("write export: %v", err)
	}
}

func paymentBody(res *service.PaymentResult) gin.H {
	return gin.H{
		"success":               true,
		"pay_id":                res.PayID,
		"payment_url":           res.PaymentURL,
		"nombre_remboursements": res.Count,
		"montant_total":         res.Total,
		"remboursement_ids":     res.IDs,
		"methode_paiement":      domain.PaymentMethodLengo,
	}
}
