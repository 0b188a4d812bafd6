package service

import (
	"context"
	"errors"
	"testing"

	"zalama/config"
	"zalama/internal/domain"
	"zalama/internal/models"
	"zalama/pkg/payment"
)

func newAdvanceFixture() (*AdvanceService, *memAdvances, *memTransactions, *fakeDispatcher, *fakeNotifier) {
	return newAdvanceFixtureWith(&fakeGateway{})
}

func newAdvanceFixtureWith(gw *fakeGateway) (*AdvanceService, *memAdvances, *memTransactions, *fakeDispatcher, *fakeNotifier) {
	emp := amadou
	emp.SalaireNet = 2000000
	off := models.Employee{ID: 5, PartnerID: 2, Nom: "Camara", Actif: false}
	employees := newMemEmployees(emp, off)
	advances := newMemAdvances(employees)
	txs := newMemTransactions()
	d, n := &fakeDispatcher{}, &fakeNotifier{}
	svc := NewAdvanceService(advances, employees, txs, gw, d, n, testConfig().Lengo, quietLogger())
	return svc, advances, txs, d, n
}

func TestSubmitAdvance(t *testing.T) {
	svc, _, _, d, n := newAdvanceFixture()
	ctx := context.Background()

	a, err := svc.Submit(ctx, 3, 500000, "loyer")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if a.Statut != domain.AdvancePending || a.PartnerID != 2 {
		t.Errorf("advance = %+v", a)
	}
	if len(d.calls) != 1 || d.calls[0] != (dispatchCall{domain.EventRequestReceived, a.ID}) {
		t.Errorf("dispatched %+v", d.calls)
	}
	if len(n.types) != 1 {
		t.Errorf("admin notifications = %v", n.types)
	}

	cases := map[string]struct {
		employee uint
		amount   int64
		want     error
	}{
		"zero amount": {3, 0, ErrInvalidAmount},
		"over salary": {3, 2000001, ErrAdvanceTooLarge},
		"inactive":    {5, 1000, ErrEmployeeOff},
		"unknown":     {42, 1000, ErrEmployeeNotFound},
	}
	for name, tc := range cases {
		if _, err := svc.Submit(ctx, tc.employee, tc.amount, ""); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", name, err, tc.want)
		}
	}
}

func TestApproveOpensTransaction(t *testing.T) {
	svc, advances, txs, d, _ := newAdvanceFixture()
	ctx := context.Background()
	a, _ := svc.Submit(ctx, 3, 300000, "")

	tx, err := svc.Approve(ctx, a.ID, 1)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if tx.Statut != domain.TransactionPending || tx.Montant != 300000 || tx.AdvanceID == nil || *tx.AdvanceID != a.ID || tx.PayID != "PAY-1" {
		t.Errorf("transaction = %+v", tx)
	}
	if _, err := txs.GetByID(ctx, tx.ID); err != nil {
		t.Errorf("transaction not stored: %v", err)
	}
	stored, _ := advances.GetByID(ctx, a.ID)
	if stored.Statut != domain.AdvanceApproved || stored.DateTraitement == nil {
		t.Errorf("advance = %+v", stored)
	}
	if last := d.calls[len(d.calls)-1]; last.Event != domain.EventApproval {
		t.Errorf("last dispatch = %+v", last)
	}
	if _, err := svc.Approve(ctx, a.ID, 1); !errors.Is(err, ErrAdvanceDecided) {
		t.Errorf("second approval: %v", err)
	}
	if err := svc.Reject(ctx, a.ID, 1, "trop tard"); !errors.Is(err, ErrAdvanceDecided) {
		t.Errorf("reject after approval: %v", err)
	}
}

func TestRejectAdvance(t *testing.T) {
	svc, advances, txs, d, _ := newAdvanceFixture()
	ctx := context.Background()
	a, _ := svc.Submit(ctx, 3, 300000, "")

	if err := svc.Reject(ctx, a.ID, 1, "plafond atteint"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	stored, _ := advances.GetByID(ctx, a.ID)
	if stored.Statut != domain.AdvanceRejected || stored.MotifRejet != "plafond atteint" {
		t.Errorf("advance = %+v", stored)
	}
	if len(txs.rows) != 0 {
		t.Error("rejection created a transaction")
	}
	if last := d.calls[len(d.calls)-1]; last.Event != domain.EventRejection {
		t.Errorf("last dispatch = %+v", last)
	}
	if err := svc.Reject(ctx, 99, 1, ""); !errors.Is(err, ErrAdvanceNotFound) {
		t.Errorf("missing advance: %v", err)
	}
}

func TestDispatchFailureDoesNotFailSubmit(t *testing.T) {
	emp := amadou
	employees := newMemEmployees(emp)
	svc := NewAdvanceService(newMemAdvances(employees), employees, newMemTransactions(), &fakeGateway{}, &fakeDispatcher{err: ErrNoRecipient}, nil, config.LengoConfig{}, quietLogger())
	if _, err := svc.Submit(context.Background(), 3, 1000, ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestApprovedAdvanceCanBeReimbursed(t *testing.T) {
	gw := &fakeGateway{createFn: func(payment.PaymentRequest) (*payment.PaymentResponse, error) {
		return &payment.PaymentResponse{PayID: "LGO-AV1", PaymentURL: "https://pay.test/LGO-AV1"}, nil
	}}
	svc, _, txs, d, _ := newAdvanceFixtureWith(gw)
	ctx := context.Background()
	a, _ := svc.Submit(ctx, 3, 300000, "")

	tx, err := svc.Approve(ctx, a.ID, 1)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if len(gw.creates) != 1 || gw.creates[0].Amount != 300000 || gw.creates[0].CallbackURL == "" {
		t.Fatalf("payout requests = %+v", gw.creates)
	}
	stored, _ := txs.GetByID(ctx, tx.ID)
	if stored.PayID != "LGO-AV1" || stored.PaymentURL != "https://pay.test/LGO-AV1" {
		t.Fatalf("stored transaction = %+v", stored)
	}

	rec := newReconcile(txs, newMemReimbursements(), gatewayReporting("SUCCESS"), d, nil)
	rep, err := rec.TransactionStatus(ctx, tx.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Status != domain.TransactionSucceeded || !rep.Updated || rep.Reference != "LGO-AV1" {
		t.Fatalf("status report = %+v", rep)
	}

	rbs := newMemReimbursements()
	rb, err := newReimbursementService(txs, rbs, &fakeGateway{}, nil).Create(ctx, tx.ID, "")
	if err != nil {
		t.Fatalf("Create reimbursement: %v", err)
	}
	if rb.MontantTotalRemboursement != 300000 || rb.Statut != domain.ReimbursementPending {
		t.Fatalf("reimbursement = %+v", rb)
	}
}

func TestApproveGatewayFailureWritesNothing(t *testing.T) {
	gw := &fakeGateway{createFn: func(payment.PaymentRequest) (*payment.PaymentResponse, error) {
		return nil, payment.ErrUpstream
	}}
	svc, advances, txs, d, _ := newAdvanceFixtureWith(gw)
	ctx := context.Background()
	a, _ := svc.Submit(ctx, 3, 300000, "")

	if _, err := svc.Approve(ctx, a.ID, 1); !errors.Is(err, ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
	stored, _ := advances.GetByID(ctx, a.ID)
	if stored.Statut != domain.AdvancePending {
		t.Errorf("advance moved to %s", stored.Statut)
	}
	if len(txs.rows) != 0 {
		t.Error("transaction stored after gateway failure")
	}
	for _, c := range d.calls {
		if c.Event == domain.EventApproval {
			t.Error("approval dispatched after gateway failure")
		}
	}
}
