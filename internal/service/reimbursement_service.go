package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zalama/config"
	"zalama/internal/domain"
	"zalama/internal/lock"
	"zalama/internal/models"
	"zalama/internal/repository"
	"zalama/pkg/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type TransactionStore interface {
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	ListEligible(ctx context.Context, partnerID uint) ([]models.Transaction, error)
	ListByPayID(ctx context.Context, payID string) ([]models.Transaction, error)
	ApplyStatus(ctx context.Context, id uint, from string, updates map[string]interface{}) (bool, error)
}

type ReimbursementStore interface {
	Create(ctx context.Context, rb *models.Reimbursement) error
	GetByID(ctx context.Context, id uint) (*models.Reimbursement, error)
	ExistsForTransaction(ctx context.Context, transactionID uint) (bool, error)
	List(ctx context.Context, f repository.ReimbursementFilter) ([]models.Reimbursement, int64, error)
	ListAll(ctx context.Context, f repository.ReimbursementFilter) ([]models.Reimbursement, error)
	ListPendingByPartner(ctx context.Context, partnerID uint) ([]models.Reimbursement, error)
	ListByPayID(ctx context.Context, payID string) ([]models.Reimbursement, error)
	AttachPayment(ctx context.Context, ids []uint, payID, paymentURL, method string) (int64, error)
	ApplyStatus(ctx context.Context, id uint, from string, updates map[string]interface{}, h *models.ReimbursementHistory) (bool, error)
}

// ReimbursementView is a reimbursement with its display status (EN_RETARD derived).
type ReimbursementView struct {
	models.Reimbursement
	StatutEffectif string `json:"statut_effectif"`
}

// PaymentResult describes a gateway payment opened for one or more reimbursements.
type PaymentResult struct {
	PayID      string `json:"pay_id"`
	PaymentURL string `json:"payment_url"`
	Count      int    `json:"nombre_remboursements"`
	Total      int64  `json:"montant_total"`
	IDs        []uint `json:"remboursement_ids"`
}

type ReimbursementService struct {
	transactions   TransactionStore
	reimbursements ReimbursementStore
	gateway        payment.Gateway
	locker         lock.Locker
	lengo          config.LengoConfig
	feeRate        decimal.Decimal
	dueDays        int
	log            *logrus.Logger
	now            func() time.Time
}

func NewReimbursementService(
	transactions TransactionStore,
	reimbursements ReimbursementStore,
	gateway payment.Gateway,
	locker lock.Locker,
	cfg *config.Config,
	log *logrus.Logger,
) *ReimbursementService {
	return &ReimbursementService{
		transactions:   transactions,
		reimbursements: reimbursements,
		gateway:        gateway,
		locker:         locker,
		lengo:          cfg.Lengo,
		feeRate:        domain.ParseFeeRate(cfg.Reimbursement.FeeRate),
		dueDays:        cfg.Reimbursement.DueAfterDays,
		log:            log,
		now:            time.Now,
	}
}

// Create opens the reimbursement owed by the partner for a completed transaction.
func (s *ReimbursementService) Create(ctx context.Context, transactionID uint, comment string) (*models.Reimbursement, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if tx.Statut != domain.TransactionSucceeded {
		return nil, ErrTransactionNotEligible
	}
	exists, err := s.reimbursements.ExistsForTransaction(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyReimbursed
	}

	split := domain.ComputeFees(tx.Montant, s.feeRate)
	rb := &models.Reimbursement{
		TransactionID:             tx.ID,
		PartnerID:                 tx.PartnerID,
		EmployeeID:                tx.EmployeeID,
		MontantTransaction:        split.Amount,
		FraisService:              split.Fee,
		MontantNetEmploye:         split.EmployeeNet,
		MontantTotalRemboursement: split.PartnerOwed,
		Statut:                    domain.ReimbursementPending,
		DateLimiteRemboursement:   domain.DueDate(tx.DateTransaction, s.dueDays),
		CommentaireAdmin:          comment,
	}
	if err := s.reimbursements.Create(ctx, rb); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyReimbursed
		}
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"remboursement_id": rb.ID,
		"transaction_id":   tx.ID,
		"montant":          split.Amount,
		"frais":            split.Fee,
	}).Info("reimbursement created")
	return rb, nil
}

func (s *ReimbursementService) Get(ctx context.Context, id uint) (*ReimbursementView, error) {
	rb, err := s.reimbursements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReimbursementNotFound
		}
		return nil, err
	}
	return &ReimbursementView{Reimbursement: *rb, StatutEffectif: rb.EffectiveStatus(s.now())}, nil
}

func (s *ReimbursementService) List(ctx context.Context, f repository.ReimbursementFilter) ([]ReimbursementView, int64, error) {
	list, total, err := s.reimbursements.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return s.views(list), total, nil
}

// ListForExport returns every reimbursement matching f, without pagination.
func (s *ReimbursementService) ListForExport(ctx context.Context, f repository.ReimbursementFilter) ([]ReimbursementView, error) {
	list, err := s.reimbursements.ListAll(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.views(list), nil
}

func (s *ReimbursementService) views(list []models.Reimbursement) []ReimbursementView {
	now := s.now()
	out := make([]ReimbursementView, 0, len(list))
	for i := range list {
		out = append(out, ReimbursementView{Reimbursement: list[i], StatutEffectif: list[i].EffectiveStatus(now)})
	}
	return out
}

// Eligible lists completed transactions that have no reimbursement yet.
func (s *ReimbursementService) Eligible(ctx context.Context, partnerID uint) ([]models.Transaction, error) {
	return s.transactions.ListEligible(ctx, partnerID)
}

// InitiateBatch opens a single gateway payment covering every pending reimbursement of a partner.
// Nothing is written unless the gateway accepted the payment.
func (s *ReimbursementService) InitiateBatch(ctx context.Context, partnerID uint) (*PaymentResult, error) {
	release, err := s.lockPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	defer release()

	pending, err := s.reimbursements.ListPendingByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, ErrNothingToPay
	}
	if err := s.ensureReplaceable(ctx, pending); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(pending))
	var total int64
	for _, rb := range pending {
		ids = append(ids, rb.ID)
		total += rb.MontantTotalRemboursement
	}

	resp, err := s.gateway.CreatePayment(ctx, payment.PaymentRequest{
		Amount:      total,
		Currency:    s.currency(),
		Reference:   fmt.Sprintf("RB-P%d-%s", partnerID, uuid.NewString()[:8]),
		Description: fmt.Sprintf("Remboursement de %d avance(s) sur salaire", len(ids)),
		CallbackURL: s.lengo.CallbackURL,
		ReturnURL:   s.lengo.ReturnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	n, err := s.reimbursements.AttachPayment(ctx, ids, resp.PayID, resp.PaymentURL, domain.PaymentMethodLengo)
	if err != nil {
		config.LogError(s.log, "reimbursement_service", "InitiateBatch", "attach payment", logrus.Fields{"pay_id": resp.PayID, "ids": ids}, err)
		return nil, err
	}
	if int(n) != len(ids) {
		s.log.WithFields(logrus.Fields{"pay_id": resp.PayID, "expected": len(ids), "updated": n}).Warn("some reimbursements left pending state during batch initiation")
	}
	s.log.WithFields(logrus.Fields{"partenaire_id": partnerID, "pay_id": resp.PayID, "montant_total": total, "nombre": len(ids)}).Info("batch payment initiated")
	return &PaymentResult{PayID: resp.PayID, PaymentURL: resp.PaymentURL, Count: len(ids), Total: total, IDs: ids}, nil
}

// InitiateSingle opens a gateway payment for one pending reimbursement.
func (s *ReimbursementService) InitiateSingle(ctx context.Context, id uint) (*PaymentResult, error) {
	rb, err := s.reimbursements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReimbursementNotFound
		}
		return nil, err
	}
	if domain.IsTerminalReimbursement(rb.Statut) {
		return nil, ErrReimbursementClosed
	}
	release, err := s.lockPartner(ctx, rb.PartnerID)
	if err != nil {
		return nil, err
	}
	defer release()
	if err := s.ensureReplaceable(ctx, []models.Reimbursement{*rb}); err != nil {
		return nil, err
	}

	resp, err := s.gateway.CreatePayment(ctx, payment.PaymentRequest{
		Amount:      rb.MontantTotalRemboursement,
		Currency:    s.currency(),
		Reference:   fmt.Sprintf("RB-%d-%s", rb.ID, uuid.NewString()[:8]),
		Description: fmt.Sprintf("Remboursement avance #%d", rb.TransactionID),
		CallbackURL: s.lengo.CallbackURL,
		ReturnURL:   s.lengo.ReturnURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	n, err := s.reimbursements.AttachPayment(ctx, []uint{rb.ID}, resp.PayID, resp.PaymentURL, domain.PaymentMethodLengo)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrReimbursementClosed
	}
	return &PaymentResult{PayID: resp.PayID, PaymentURL: resp.PaymentURL, Count: 1, Total: rb.MontantTotalRemboursement, IDs: []uint{rb.ID}}, nil
}

// Correct applies an administrator decision to a pending reimbursement.
func (s *ReimbursementService) Correct(ctx context.Context, id uint, status, comment string, adminID uint) (*ReimbursementView, error) {
	if status != domain.ReimbursementPaid && status != domain.ReimbursementCancelled {
		return nil, ErrInvalidTransition
	}
	rb, err := s.reimbursements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReimbursementNotFound
		}
		return nil, err
	}
	if rb.Statut != domain.ReimbursementPending {
		return nil, ErrReimbursementClosed
	}
	now := s.now()
	updates := map[string]interface{}{"statut": status, "updated_at": now}
	if comment != "" {
		updates["commentaire_admin"] = comment
	}
	if status == domain.ReimbursementPaid {
		updates["date_remboursement"] = now
	}
	desc := fmt.Sprintf("Correction manuelle par l'utilisateur #%d", adminID)
	if comment != "" {
		desc += ": " + comment
	}
	applied, err := s.reimbursements.ApplyStatus(ctx, id, domain.ReimbursementPending, updates, &models.ReimbursementHistory{
		AncienStatut:  rb.Statut,
		NouveauStatut: status,
		Source:        domain.HistorySourceAdmin,
		Description:   desc,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrReimbursementClosed
	}
	return s.Get(ctx, id)
}

// ensureReplaceable refuses to overwrite a pay_id the partner could still pay, or has paid:
// its callback would then match no row. Only payments the gateway reports failed or
// cancelled may be replaced. An unreachable gateway refuses too.
func (s *ReimbursementService) ensureReplaceable(ctx context.Context, rows []models.Reimbursement) error {
	checked := map[string]bool{}
	for _, rb := range rows {
		if rb.PayID == "" || checked[rb.PayID] {
			continue
		}
		checked[rb.PayID] = true
		st, err := s.gateway.GetStatus(ctx, rb.PayID)
		if err != nil {
			return fmt.Errorf("%w: check previous payment %s: %v", ErrGateway, rb.PayID, err)
		}
		if domain.MapReimbursementStatus(st.Status, "") != domain.ReimbursementCancelled {
			s.log.WithFields(logrus.Fields{"remboursement_id": rb.ID, "pay_id": rb.PayID, "status_lengo": st.Status}).
				Warn("refusing to replace an open payment")
			return fmt.Errorf("%w: %s is %s", ErrPaymentOutstanding, rb.PayID, st.Status)
		}
	}
	return nil
}

func (s *ReimbursementService) lockPartner(ctx context.Context, partnerID uint) (func(), error) {
	release, err := s.locker.Acquire(ctx, fmt.Sprintf("partner-payment:%d", partnerID))
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, ErrPaymentInProgress
		}
		return nil, err
	}
	return release, nil
}

func (s *ReimbursementService) currency() string {
	if s.lengo.Currency != "" {
		return s.lengo.Currency
	}
	return domain.DefaultCurrency
}
