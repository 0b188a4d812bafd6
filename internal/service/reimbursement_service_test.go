package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"zalama/internal/domain"
	"zalama/internal/lock"
	"zalama/internal/models"
	"zalama/internal/repository"
	"zalama/pkg/payment"
)

func newReimbursementService(txs *memTransactions, rbs *memReimbursements, gw *fakeGateway, locker lock.Locker) *ReimbursementService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return NewReimbursementService(txs, rbs, gw, locker, testConfig(), quietLogger())
}

func TestCreateComputesFeesAndDueDate(t *testing.T) {
	made := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	txs := newMemTransactions(models.Transaction{ID: 9, EmployeeID: 3, PartnerID: 2, Montant: 2500, Statut: domain.TransactionSucceeded, DateTransaction: made})
	rbs := newMemReimbursements()
	svc := newReimbursementService(txs, rbs, &fakeGateway{}, nil)

	rb, err := svc.Create(context.Background(), 9, "mars")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rb.FraisService != 163 || rb.MontantNetEmploye != 2337 {
		t.Errorf("fee split = %d / %d, want 163 / 2337", rb.FraisService, rb.MontantNetEmploye)
	}
	if rb.MontantTotalRemboursement != 2500 || rb.MontantTotalRemboursement != rb.MontantTransaction {
		t.Errorf("partner owes %d, want the gross 2500", rb.MontantTotalRemboursement)
	}
	if rb.Statut != domain.ReimbursementPending || rb.PartnerID != 2 || rb.CommentaireAdmin != "mars" {
		t.Errorf("unexpected reimbursement %+v", rb)
	}
	if want := made.AddDate(0, 0, 30); !rb.DateLimiteRemboursement.Equal(want) {
		t.Errorf("due = %v, want %v", rb.DateLimiteRemboursement, want)
	}
}

func TestCreateRejects(t *testing.T) {
	txs := newMemTransactions(
		models.Transaction{ID: 1, Montant: 1000, Statut: domain.TransactionPending},
		models.Transaction{ID: 2, Montant: 1000, Statut: domain.TransactionSucceeded},
	)
	rbs := newMemReimbursements(models.Reimbursement{ID: 1, TransactionID: 2, Statut: domain.ReimbursementPending})
	svc := newReimbursementService(txs, rbs, &fakeGateway{}, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 42, ""); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("missing transaction: %v", err)
	}
	if _, err := svc.Create(ctx, 1, ""); !errors.Is(err, ErrTransactionNotEligible) {
		t.Errorf("pending transaction: %v", err)
	}
	if _, err := svc.Create(ctx, 2, ""); !errors.Is(err, ErrAlreadyReimbursed) {
		t.Errorf("duplicate: %v", err)
	}
}

func pendingFor(partnerID uint, amounts ...int64) []models.Reimbursement {
	out := make([]models.Reimbursement, 0, len(amounts))
	for i, a := range amounts {
		out = append(out, models.Reimbursement{
			ID:                        uint(i + 1),
			TransactionID:             uint(100 + i),
			PartnerID:                 partnerID,
			MontantTransaction:        a,
			MontantTotalRemboursement: a,
			Statut:                    domain.ReimbursementPending,
		})
	}
	return out
}

func TestInitiateBatchSumsAndSharesPayID(t *testing.T) {
	rows := pendingFor(5, 1000, 2500, 500)
	rows = append(rows, models.Reimbursement{ID: 10, TransactionID: 200, PartnerID: 6, MontantTotalRemboursement: 9999, Statut: domain.ReimbursementPending})
	rbs := newMemReimbursements(rows...)
	gw := &fakeGateway{createFn: func(req payment.PaymentRequest) (*payment.PaymentResponse, error) {
		return &payment.PaymentResponse{PayID: "LGO-77", PaymentURL: "https://pay.test/LGO-77"}, nil
	}}
	svc := newReimbursementService(newMemTransactions(), rbs, gw, nil)

	res, err := svc.InitiateBatch(context.Background(), 5)
	if err != nil {
		t.Fatalf("InitiateBatch: %v", err)
	}
	if len(gw.creates) != 1 || gw.creates[0].Amount != 4000 {
		t.Fatalf("gateway requests = %+v, want one of 4000", gw.creates)
	}
	if res.Total != 4000 || res.Count != 3 || res.PayID != "LGO-77" {
		t.Fatalf("result = %+v", res)
	}
	for id := uint(1); id <= 3; id++ {
		rb, _ := rbs.GetByID(context.Background(), id)
		if rb.PayID != "LGO-77" || rb.MethodePaiement != domain.PaymentMethodLengo {
			t.Errorf("reimbursement %d pay_id = %q", id, rb.PayID)
		}
	}
	other, _ := rbs.GetByID(context.Background(), 10)
	if other.PayID != "" {
		t.Errorf("other partner's reimbursement was included")
	}
}

func TestInitiateBatchGatewayFailureWritesNothing(t *testing.T) {
	rbs := newMemReimbursements(pendingFor(5, 1000, 2500)...)
	gw := &fakeGateway{createFn: func(payment.PaymentRequest) (*payment.PaymentResponse, error) {
		return nil, payment.ErrUpstream
	}}
	svc := newReimbursementService(newMemTransactions(), rbs, gw, nil)

	_, err := svc.InitiateBatch(context.Background(), 5)
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
	if rbs.writes != 0 {
		t.Fatalf("%d writes after gateway failure", rbs.writes)
	}
}

func TestInitiateBatchNothingPending(t *testing.T) {
	svc := newReimbursementService(newMemTransactions(), newMemReimbursements(), &fakeGateway{}, nil)
	if _, err := svc.InitiateBatch(context.Background(), 5); !errors.Is(err, ErrNothingToPay) {
		t.Fatalf("err = %v", err)
	}
}

func TestInitiateBatchRefusesConcurrentRun(t *testing.T) {
	locker := lock.NewLocalLocker()
	release, err := locker.Acquire(context.Background(), "partner-payment:5")
	if err != nil {
		t.Fatal(err)
	}
	defer release()
	gw := &fakeGateway{}
	svc := newReimbursementService(newMemTransactions(), newMemReimbursements(pendingFor(5, 1000)...), gw, locker)

	if _, err := svc.InitiateBatch(context.Background(), 5); !errors.Is(err, ErrPaymentInProgress) {
		t.Fatalf("err = %v, want ErrPaymentInProgress", err)
	}
	if len(gw.creates) != 0 {
		t.Fatal("gateway called while partner locked")
	}
}

func TestInitiateSingle(t *testing.T) {
	rows := pendingFor(5, 1500)
	rows = append(rows, models.Reimbursement{ID: 2, TransactionID: 300, PartnerID: 5, Statut: domain.ReimbursementPaid})
	rbs := newMemReimbursements(rows...)
	gw := &fakeGateway{}
	svc := newReimbursementService(newMemTransactions(), rbs, gw, nil)

	res, err := svc.InitiateSingle(context.Background(), 1)
	if err != nil {
		t.Fatalf("InitiateSingle: %v", err)
	}
	if res.Total != 1500 || gw.creates[0].Amount != 1500 {
		t.Errorf("result %+v", res)
	}
	if _, err := svc.InitiateSingle(context.Background(), 2); !errors.Is(err, ErrReimbursementClosed) {
		t.Errorf("paid reimbursement: %v", err)
	}
	if _, err := svc.InitiateSingle(context.Background(), 99); !errors.Is(err, ErrReimbursementNotFound) {
		t.Errorf("missing reimbursement: %v", err)
	}
}

func TestCorrectWritesHistory(t *testing.T) {
	rbs := newMemReimbursements(pendingFor(5, 1000)...)
	svc := newReimbursementService(newMemTransactions(), rbs, &fakeGateway{}, nil)
	ctx := context.Background()

	if _, err := svc.Correct(ctx, 1, domain.ReimbursementPending, "", 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("EN_ATTENTE target: %v", err)
	}
	v, err := svc.Correct(ctx, 1, domain.ReimbursementPaid, "virement reçu", 1)
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if v.Statut != domain.ReimbursementPaid || v.DateRemboursement == nil {
		t.Errorf("after correction: %+v", v.Reimbursement)
	}
	if len(rbs.history) != 1 || rbs.history[0].Source != domain.HistorySourceAdmin {
		t.Errorf("history = %+v", rbs.history)
	}
	if _, err := svc.Correct(ctx, 1, domain.ReimbursementCancelled, "", 1); !errors.Is(err, ErrReimbursementClosed) {
		t.Errorf("terminal reimbursement moved: %v", err)
	}
}

func TestListDerivesOverdue(t *testing.T) {
	rows := pendingFor(5, 1000, 2000)
	rows[0].DateLimiteRemboursement = time.Now().Add(-24 * time.Hour)
	rows[1].DateLimiteRemboursement = time.Now().Add(24 * time.Hour)
	svc := newReimbursementService(newMemTransactions(), newMemReimbursements(rows...), &fakeGateway{}, nil)

	list, _, err := svc.List(context.Background(), repository.ReimbursementFilter{PartnerID: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].StatutEffectif != domain.ReimbursementOverdue || list[1].StatutEffectif != domain.ReimbursementPending {
		t.Fatalf("statuses = %+v", list)
	}
	if list[0].Statut != domain.ReimbursementPending {
		t.Error("stored status must stay EN_ATTENTE")
	}
}

func sequentialGateway(status string, payIDs ...string) *fakeGateway {
	next := 0
	return &fakeGateway{
		createFn: func(payment.PaymentRequest) (*payment.PaymentResponse, error) {
			id := payIDs[next]
			next++
			return &payment.PaymentResponse{PayID: id, PaymentURL: "https://pay.test/" + id}, nil
		},
		statusFn: func(payID string) (*payment.StatusResponse, error) {
			return &payment.StatusResponse{PayID: payID, Status: status}, nil
		},
	}
}

func TestReinitiateKeepsOpenPayment(t *testing.T) {
	ctx := context.Background()
	rbs := newMemReimbursements(pendingFor(5, 1000, 2500)...)
	gw := sequentialGateway("PENDING", "OLD", "NEW")
	svc := newReimbursementService(newMemTransactions(), rbs, gw, nil)

	if _, err := svc.InitiateBatch(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.InitiateBatch(ctx, 5); !errors.Is(err, ErrPaymentOutstanding) {
		t.Fatalf("second batch: err = %v, want ErrPaymentOutstanding", err)
	}
	if _, err := svc.InitiateSingle(ctx, 1); !errors.Is(err, ErrPaymentOutstanding) {
		t.Fatalf("single over open batch: err = %v", err)
	}
	if len(gw.creates) != 1 {
		t.Fatalf("gateway payments created = %d", len(gw.creates))
	}

	rec := newReconcile(newMemTransactions(), rbs, gw, &fakeDispatcher{}, nil)
	res, err := rec.HandleCallback(ctx, CallbackPayload{PayID: "OLD", Status: "SUCCESS"})
	if err != nil || res.Reimbursements != 2 {
		t.Fatalf("callback for first link: res=%+v err=%v", res, err)
	}
	rb, _ := rbs.GetByID(ctx, 1)
	if rb.Statut != domain.ReimbursementPaid || rb.PayID != "OLD" {
		t.Fatalf("reimbursement = %s pay_id=%s", rb.Statut, rb.PayID)
	}
}

func TestReinitiateReplacesFailedPayment(t *testing.T) {
	ctx := context.Background()
	rows := pendingFor(5, 1000)
	rows[0].PayID = "OLD"
	rbs := newMemReimbursements(rows...)
	gw := sequentialGateway("FAILED", "NEW")
	svc := newReimbursementService(newMemTransactions(), rbs, gw, nil)

	res, err := svc.InitiateBatch(ctx, 5)
	if err != nil || res.PayID != "NEW" {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if gw.statusCalls != 1 {
		t.Errorf("status checks = %d", gw.statusCalls)
	}
}

func TestReinitiateRefusedWhenGatewayUnreachable(t *testing.T) {
	rows := pendingFor(5, 1000)
	rows[0].PayID = "OLD"
	rbs := newMemReimbursements(rows...)
	gw := &fakeGateway{statusFn: func(string) (*payment.StatusResponse, error) { return nil, payment.ErrUpstream }}
	svc := newReimbursementService(newMemTransactions(), rbs, gw, nil)

	if _, err := svc.InitiateSingle(context.Background(), 1); !errors.Is(err, ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
	if len(gw.creates) != 0 || rbs.writes != 0 {
		t.Fatal("payment replaced without confirming the previous one")
	}
}
