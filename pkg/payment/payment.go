package payment

import (
	"context"
	"errors"
)

var (
	// ErrUpstream is returned when the gateway answers with a non-2xx status.
	ErrUpstream = errors.New("payment gateway error")
	// ErrInvalidResponse is returned when the gateway answer is not usable JSON.
	ErrInvalidResponse = errors.New("payment gateway returned an invalid response")
)

type PaymentRequest struct {
	Amount      int64 // whole GNF units
	Currency    string
	Reference   string // our order reference, logged for support
	Description string
	CallbackURL string
	ReturnURL   string
}

type PaymentResponse struct {
	PayID      string
	PaymentURL string
	Status     string
}

// StatusResponse is the gateway's view of one payment. Raw keeps the decoded body for display.
type StatusResponse struct {
	PayID   string
	Status  string
	Amount  int64
	Date    string
	Receipt string
	Raw     map[string]interface{}
}

type Gateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	GetStatus(ctx context.Context, payID string) (*StatusResponse, error)
}
