package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *LengoProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewLengoProvider(srv.URL, "license", "site-1", "GNF", 5*time.Second, logger)
}

func TestLengoCreatePayment(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/payments" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Basic license" {
			t.Errorf("authorization = %q", got)
		}
		var body lengoPaymentReq
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Amount != 4000 || body.WebsiteID != "site-1" || body.Currency != "GNF" {
			t.Errorf("unexpected body %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"Success","pay_id":"PAY-1","payment_url":"https://pay/PAY-1"}`))
	})
	resp, err := p.CreatePayment(context.Background(), PaymentRequest{Amount: 4000, CallbackURL: "https://cb"})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if resp.PayID != "PAY-1" || resp.PaymentURL != "https://pay/PAY-1" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestLengoCreatePaymentUpstreamError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	})
	_, err := p.CreatePayment(context.Background(), PaymentRequest{Amount: 1})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestLengoCreatePaymentMissingPayID(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"Error","message":"site inconnu"}`))
	})
	_, err := p.CreatePayment(context.Background(), PaymentRequest{Amount: 1})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestLengoGetStatus(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/txn/status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"pay_id":"PAY-1","status":"success","amount":"4000","date":"2026-01-01"}`))
	})
	st, err := p.GetStatus(context.Background(), "PAY-1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Status != "SUCCESS" || st.Amount != 4000 || st.Raw["date"] != "2026-01-01" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestLengoGetStatusNonJSON(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>maintenance</html>`))
	})
	_, err := p.GetStatus(context.Background(), "PAY-1")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}
