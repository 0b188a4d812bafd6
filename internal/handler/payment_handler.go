package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"zalama/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Reconciler is the part of service.ReconcileService the handler uses.
type Reconciler interface {
	ReimbursementStatus(ctx context.Context, id uint) (*service.StatusReport, error)
	TransactionStatus(ctx context.Context, id uint) (*service.StatusReport, error)
	HandleCallback(ctx context.Context, cb service.CallbackPayload) (*service.CallbackResult, error)
	VerifySignature(body []byte, signature string) error
}

type PaymentHandler struct {
	svc Reconciler
	log *logrus.Logger
}

func NewPaymentHandler(svc Reconciler, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

// ReimbursementStatus answers 200 even when Lengo is unreachable (status DB_ONLY).
func (h *PaymentHandler) ReimbursementStatus(c *gin.Context) {
	id, valid := idParam(c, "payment_id")
	if !valid {
		return
	}
	rep, err := h.svc.ReimbursementStatus(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "PaymentHandler", "ReimbursementStatus", err)
		return
	}
	c.JSON(http.StatusOK, statusBody(rep))
}

func (h *PaymentHandler) TransactionStatus(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	rep, err := h.svc.TransactionStatus(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "PaymentHandler", "TransactionStatus", err)
		return
	}
	c.JSON(http.StatusOK, statusBody(rep))
}

// Callback receives the Lengo notification. The raw body is kept for the signature check.
func (h *PaymentHandler) Callback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "Corps de requête illisible")
		return
	}
	if err := h.svc.VerifySignature(body, c.GetHeader("X-Lengo-Signature")); err != nil {
		fail(c, h.log, "PaymentHandler", "Callback", err)
		return
	}
	var cb service.CallbackPayload
	if err := json.Unmarshal(body, &cb); err != nil {
		badRequest(c, "JSON invalide")
		return
	}
	if cb.PayID == "" || cb.Status == "" {
		badRequest(c, "pay_id et status sont requis")
		return
	}
	res, err := h.svc.HandleCallback(c.Request.Context(), cb)
	if err != nil {
		fail(c, h.log, "PaymentHandler", "Callback", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":                   true,
		"received":                  res.Received,
		"remboursements_mis_a_jour": res.Reimbursements,
		"transactions_mises_a_jour": res.Transactions,
	})
}

func statusBody(r *service.StatusReport) gin.H {
	body := gin.H{
		"success":      true,
		"status":       r.Status,
		"status_lengo": r.StatusLengo,
		"statut_local": r.LocalStatus,
		"amount":       r.Amount,
		"currency":     r.Currency,
		"reference":    r.Reference,
		"lengo_data":   r.LengoData,
		"updated":      r.Updated,
	}
	if r.Message != "" {
		body["message"] = r.Message
	}
	return body
}
