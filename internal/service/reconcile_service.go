package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"zalama/internal/domain"
	"zalama/internal/models"
	"zalama/internal/repository"
	"zalama/pkg/payment"

	"github.com/sirupsen/logrus"
)

// EventDispatcher sends the SMS, email and push messages tied to a lifecycle event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event string, entityID uint) (*DispatchResult, error)
}

// AdminNotifier records in-app notifications for dashboard users.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, notifType, title, message string)
}

// StatusReport is the answer of a status check.
type StatusReport struct {
	Status      string                 `json:"status"`
	StatusLengo string                 `json:"status_lengo"`
	LocalStatus string                 `json:"statut_local"`
	Amount      int64                  `json:"amount"`
	Currency    string                 `json:"currency"`
	Reference   string                 `json:"reference"`
	LengoData   map[string]interface{} `json:"lengo_data"`
	Updated     bool                   `json:"updated"`
	Message     string                 `json:"message,omitempty"`
}

// CallbackPayload is the body Lengo Pay posts once a payment settles.
type CallbackPayload struct {
	PayID   string `json:"pay_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
	Amount  int64  `json:"amount"`
	Message string `json:"message"`
	Client  string `json:"Client"`
}

type CallbackResult struct {
	Received       bool `json:"received"`
	Reimbursements int  `json:"remboursements_mis_a_jour"`
	Transactions   int  `json:"transactions_mises_a_jour"`
}

type ReconcileService struct {
	transactions   TransactionStore
	reimbursements ReimbursementStore
	gateway        payment.Gateway
	dispatcher     EventDispatcher
	notifier       AdminNotifier
	currency       string
	webhookSecret  string
	log            *logrus.Logger
	now            func() time.Time
}

func NewReconcileService(
	transactions TransactionStore,
	reimbursements ReimbursementStore,
	gateway payment.Gateway,
	dispatcher EventDispatcher,
	notifier AdminNotifier,
	currency, webhookSecret string,
	log *logrus.Logger,
) *ReconcileService {
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &ReconcileService{
		transactions:   transactions,
		reimbursements: reimbursements,
		gateway:        gateway,
		dispatcher:     dispatcher,
		notifier:       notifier,
		currency:       currency,
		webhookSecret:  webhookSecret,
		log:            log,
		now:            time.Now,
	}
}

// ReimbursementStatus asks the gateway for the payment of one reimbursement and applies
// the mapped status. Gateway failures degrade to the stored status (DB_ONLY).
func (s *ReconcileService) ReimbursementStatus(ctx context.Context, id uint) (*StatusReport, error) {
	rb, err := s.reimbursements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReimbursementNotFound
		}
		return nil, err
	}
	report := &StatusReport{
		LocalStatus: rb.Statut,
		Amount:      rb.MontantTotalRemboursement,
		Currency:    s.currency,
		Reference:   rb.PayID,
	}
	if rb.PayID == "" {
		report.Status = domain.StatusNotInitiated
		report.Message = "Aucun paiement initié pour ce remboursement"
		return report, nil
	}

	st, err := s.gateway.GetStatus(ctx, rb.PayID)
	if err != nil {
		s.log.WithFields(logrus.Fields{"remboursement_id": rb.ID, "pay_id": rb.PayID, "error": err.Error()}).
			Warn("gateway status unavailable, reporting stored status")
		report.Status = domain.StatusDBOnly
		report.Message = "Statut Lengo indisponible, statut local retourné"
		return report, nil
	}
	fillGateway(report, st)

	applied, d, err := s.applyReimbursement(ctx, rb, toGatewayStatus(st), domain.HistorySourceStatusCheck)
	if err != nil {
		return nil, err
	}
	report.Status = rb.Statut
	if applied {
		report.Status = d.NewStatus
		report.LocalStatus = d.NewStatus
		report.Updated = true
	}
	return report, nil
}

// TransactionStatus is ReimbursementStatus for an advance payout.
func (s *ReconcileService) TransactionStatus(ctx context.Context, id uint) (*StatusReport, error) {
	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	currency := tx.Devise
	if currency == "" {
		currency = s.currency
	}
	report := &StatusReport{
		LocalStatus: tx.Statut,
		Amount:      tx.Montant,
		Currency:    currency,
		Reference:   tx.PayID,
	}
	if tx.PayID == "" {
		report.Status = domain.StatusNotInitiated
		return report, nil
	}
	st, err := s.gateway.GetStatus(ctx, tx.PayID)
	if err != nil {
		s.log.WithFields(logrus.Fields{"transaction_id": tx.ID, "pay_id": tx.PayID, "error": err.Error()}).
			Warn("gateway status unavailable, reporting stored status")
		report.Status = domain.StatusDBOnly
		return report, nil
	}
	fillGateway(report, st)

	applied, d, err := s.applyTransaction(ctx, tx, toGatewayStatus(st))
	if err != nil {
		return nil, err
	}
	report.Status = tx.Statut
	if applied {
		report.Status = d.NewStatus
		report.LocalStatus = d.NewStatus
		report.Updated = true
	}
	return report, nil
}

// HandleCallback applies a gateway notification to every row carrying its pay_id.
// Unknown pay_ids are acknowledged without effect.
func (s *ReconcileService) HandleCallback(ctx context.Context, cb CallbackPayload) (*CallbackResult, error) {
	res := &CallbackResult{Received: true}
	gs := domain.GatewayStatus{PayID: cb.PayID, Status: strings.ToUpper(cb.Status), Amount: cb.Amount, Receipt: cb.PayID}

	rbs, err := s.reimbursements.ListByPayID(ctx, cb.PayID)
	if err != nil {
		return nil, err
	}
	for i := range rbs {
		applied, _, err := s.applyReimbursement(ctx, &rbs[i], gs, domain.HistorySourceCallback)
		if err != nil {
			return nil, err
		}
		if applied {
			res.Reimbursements++
		}
	}

	txs, err := s.transactions.ListByPayID(ctx, cb.PayID)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		applied, _, err := s.applyTransaction(ctx, &txs[i], gs)
		if err != nil {
			return nil, err
		}
		if applied {
			res.Transactions++
		}
	}

	s.log.WithFields(logrus.Fields{
		"pay_id":         cb.PayID,
		"status":         cb.Status,
		"remboursements": res.Reimbursements,
		"transactions":   res.Transactions,
	}).Info("lengo callback processed")
	return res, nil
}

// VerifySignature checks the hex HMAC-SHA256 of body. Without a configured secret every body passes.
func (s *ReconcileService) VerifySignature(body []byte, signature string) error {
	if s.webhookSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *ReconcileService) applyReimbursement(ctx context.Context, rb *models.Reimbursement, gs domain.GatewayStatus, source string) (bool, domain.Decision, error) {
	d := domain.DecideReimbursement(rb.Statut, gs)
	if !d.Changed {
		return false, d, nil
	}
	now := s.now()
	updates := map[string]interface{}{"statut": d.NewStatus, "updated_at": now}
	if d.Paid {
		updates["date_remboursement"] = now
		updates["numero_reception"] = receipt(gs)
	}
	applied, err := s.reimbursements.ApplyStatus(ctx, rb.ID, d.OldStatus, updates, &models.ReimbursementHistory{
		AncienStatut:  d.OldStatus,
		NouveauStatut: d.NewStatus,
		Source:        source,
		Description:   d.Note,
	})
	if err != nil {
		return false, d, fmt.Errorf("apply reimbursement %d: %w", rb.ID, err)
	}
	if !applied {
		return false, d, nil
	}
	s.log.WithFields(logrus.Fields{"remboursement_id": rb.ID, "from": d.OldStatus, "to": d.NewStatus, "source": source}).
		Info("reimbursement status updated")
	if s.notifier != nil {
		if d.Paid {
			s.notifier.NotifyAdmins(ctx, "remboursement_paye", "Remboursement reçu",
				fmt.Sprintf("Le remboursement #%d de %d GNF a été payé.", rb.ID, rb.MontantTotalRemboursement))
		} else if d.NewStatus == domain.ReimbursementCancelled {
			s.notifier.NotifyAdmins(ctx, "remboursement_annule", "Remboursement annulé",
				fmt.Sprintf("Le paiement du remboursement #%d a échoué ou a été annulé.", rb.ID))
		}
	}
	return true, d, nil
}

func (s *ReconcileService) applyTransaction(ctx context.Context, tx *models.Transaction, gs domain.GatewayStatus) (bool, domain.Decision, error) {
	d := domain.DecideTransaction(tx.Statut, gs)
	if !d.Changed {
		return false, d, nil
	}
	now := s.now()
	updates := map[string]interface{}{"statut": d.NewStatus, "updated_at": now}
	if d.Paid {
		updates["date_effectuee"] = now
		updates["numero_reception"] = receipt(gs)
	}
	applied, err := s.transactions.ApplyStatus(ctx, tx.ID, d.OldStatus, updates)
	if err != nil {
		return false, d, fmt.Errorf("apply transaction %d: %w", tx.ID, err)
	}
	if !applied {
		return false, d, nil
	}
	s.log.WithFields(logrus.Fields{"transaction_id": tx.ID, "from": d.OldStatus, "to": d.NewStatus}).
		Info("transaction status updated")
	if d.Event != "" && s.dispatcher != nil {
		if _, err := s.dispatcher.Dispatch(ctx, d.Event, tx.ID); err != nil {
			s.log.WithFields(logrus.Fields{"transaction_id": tx.ID, "event": d.Event, "error": err.Error()}).
				Warn("notification dispatch failed")
		}
	}
	return true, d, nil
}

func toGatewayStatus(st *payment.StatusResponse) domain.GatewayStatus {
	return domain.GatewayStatus{PayID: st.PayID, Status: st.Status, Amount: st.Amount, Receipt: st.Receipt}
}

func fillGateway(r *StatusReport, st *payment.StatusResponse) {
	r.StatusLengo = st.Status
	r.LengoData = st.Raw
	if st.Amount > 0 {
		r.Amount = st.Amount
	}
}

func receipt(gs domain.GatewayStatus) string {
	if gs.Receipt != "" {
		return gs.Receipt
	}
	return gs.PayID
}
