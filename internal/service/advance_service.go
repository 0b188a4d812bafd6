package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zalama/config"
	"zalama/internal/domain"
	"zalama/internal/models"
	"zalama/internal/repository"
	"zalama/pkg/payment"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrAdvanceTooLarge = errors.New("amount exceeds the employee net salary")
	ErrEmployeeOff     = errors.New("employee is inactive")
)

type AdvanceStore interface {
	Create(ctx context.Context, a *models.SalaryAdvanceRequest) error
	GetByID(ctx context.Context, id uint) (*models.SalaryAdvanceRequest, error)
	Decide(ctx context.Context, id uint, from string, updates map[string]interface{}) (bool, error)
}

type EmployeeReader interface {
	GetByID(ctx context.Context, id uint) (*models.Employee, error)
}

type TransactionCreator interface {
	Create(ctx context.Context, t *models.Transaction) error
}

// AdvanceService handles salary advance requests from submission to decision.
type AdvanceService struct {
	advances     AdvanceStore
	employees    EmployeeReader
	transactions TransactionCreator
	gateway      payment.Gateway
	dispatcher   EventDispatcher
	notifier     AdminNotifier
	lengo        config.LengoConfig
	currency     string
	log          *logrus.Logger
	now          func() time.Time
}

func NewAdvanceService(
	advances AdvanceStore,
	employees EmployeeReader,
	transactions TransactionCreator,
	gateway payment.Gateway,
	dispatcher EventDispatcher,
	notifier AdminNotifier,
	lengo config.LengoConfig,
	log *logrus.Logger,
) *AdvanceService {
	currency := lengo.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &AdvanceService{
		advances:     advances,
		employees:    employees,
		transactions: transactions,
		gateway:      gateway,
		dispatcher:   dispatcher,
		notifier:     notifier,
		lengo:        lengo,
		currency:     currency,
		log:          log,
		now:          time.Now,
	}
}

func (s *AdvanceService) Submit(ctx context.Context, employeeID uint, amount int64, motif string) (*models.SalaryAdvanceRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	e, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	if !e.Actif {
		return nil, ErrEmployeeOff
	}
	if e.SalaireNet > 0 && amount > e.SalaireNet {
		return nil, ErrAdvanceTooLarge
	}
	a := &models.SalaryAdvanceRequest{
		EmployeeID:     e.ID,
		PartnerID:      e.PartnerID,
		MontantDemande: amount,
		Motif:          motif,
		Statut:         domain.AdvancePending,
	}
	if err := s.advances.Create(ctx, a); err != nil {
		return nil, err
	}
	a.Employee = e
	s.dispatch(ctx, domain.EventRequestReceived, a.ID)
	if s.notifier != nil {
		s.notifier.NotifyAdmins(ctx, "demande_avance", "Nouvelle demande d'avance",
			fmt.Sprintf("%s demande une avance de %d %s.", e.FullName(), amount, s.currency))
	}
	return a, nil
}

// Approve accepts a pending request and starts its payout with the gateway. The payout
// transaction is stored EN_COURS with the gateway pay_id, so status checks and callbacks
// can complete it. Nothing is written when the gateway refuses.
func (s *AdvanceService) Approve(ctx context.Context, id, adminID uint) (*models.Transaction, error) {
	a, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.gateway.CreatePayment(ctx, payment.PaymentRequest{
		Amount:      a.MontantDemande,
		Currency:    s.currency,
		Reference:   fmt.Sprintf("AV-%d-%s", a.ID, uuid.NewString()[:8]),
		Description: fmt.Sprintf("Versement avance sur salaire #%d", a.ID),
		CallbackURL: s.lengo.CallbackURL,
		ReturnURL:   s.lengo.ReturnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	now := s.now()
	ok, err := s.advances.Decide(ctx, id, domain.AdvancePending, map[string]interface{}{
		"statut":          domain.AdvanceApproved,
		"date_traitement": now,
		"updated_at":      now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.WithFields(logrus.Fields{"demande_id": id, "pay_id": resp.PayID}).Warn("advance decided concurrently, payout left unused")
		return nil, ErrAdvanceDecided
	}
	advanceID := a.ID
	tx := &models.Transaction{
		AdvanceID:       &advanceID,
		EmployeeID:      a.EmployeeID,
		PartnerID:       a.PartnerID,
		Montant:         a.MontantDemande,
		Devise:          s.currency,
		PayID:           resp.PayID,
		PaymentURL:      resp.PaymentURL,
		Statut:          domain.TransactionPending,
		DateTransaction: now,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		config.LogError(s.log, "advance_service", "Approve", "create payout transaction", logrus.Fields{"demande_id": id, "pay_id": resp.PayID}, err)
		return nil, fmt.Errorf("create payout transaction: %w", err)
	}
	s.log.WithFields(logrus.Fields{"demande_id": id, "transaction_id": tx.ID, "pay_id": tx.PayID, "admin_id": adminID}).Info("advance approved")
	s.dispatch(ctx, domain.EventApproval, id)
	return tx, nil
}

func (s *AdvanceService) Reject(ctx context.Context, id, adminID uint, motif string) error {
	if _, err := s.pending(ctx, id); err != nil {
		return err
	}
	now := s.now()
	ok, err := s.advances.Decide(ctx, id, domain.AdvancePending, map[string]interface{}{
		"statut":          domain.AdvanceRejected,
		"motif_rejet":     motif,
		"date_traitement": now,
		"updated_at":      now,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrAdvanceDecided
	}
	s.log.WithFields(logrus.Fields{"demande_id": id, "admin_id": adminID}).Info("advance rejected")
	s.dispatch(ctx, domain.EventRejection, id)
	return nil
}

func (s *AdvanceService) pending(ctx context.Context, id uint) (*models.SalaryAdvanceRequest, error) {
	a, err := s.advances.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAdvanceNotFound
		}
		return nil, err
	}
	if a.Statut != domain.AdvancePending {
		return nil, ErrAdvanceDecided
	}
	return a, nil
}

// dispatch never fails the caller; delivery problems are only logged.
func (s *AdvanceService) dispatch(ctx context.Context, event string, id uint) {
	if s.dispatcher == nil {
		return
	}
	if _, err := s.dispatcher.Dispatch(ctx, event, id); err != nil {
		s.log.WithFields(logrus.Fields{"event": event, "demande_id": id}).Warnf("dispatch: %v", err)
	}
}
