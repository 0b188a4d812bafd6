package service

import "errors"

var (
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrTransactionNotEligible = errors.New("transaction is not completed")
	ErrAlreadyReimbursed      = errors.New("transaction already has a reimbursement")
	ErrReimbursementNotFound  = errors.New("reimbursement not found")
	ErrReimbursementClosed    = errors.New("reimbursement is no longer pending")
	ErrInvalidTransition      = errors.New("status transition not allowed")
	ErrNothingToPay           = errors.New("no pending reimbursement for partner")
	ErrPaymentInProgress      = errors.New("a payment is already being initiated for this partner")
	ErrGateway                = errors.New("payment gateway failure")
	ErrPaymentOutstanding     = errors.New("a previous payment for this reimbursement is still open or settled")
	ErrInvalidSignature       = errors.New("invalid callback signature")

	ErrAdvanceNotFound  = errors.New("advance request not found")
	ErrAdvanceDecided   = errors.New("advance request already decided")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrPartnerNotFound  = errors.New("partner not found")
	ErrNoRecipient      = errors.New("no reachable recipient")
	ErrUnknownEvent     = errors.New("unknown notification event")
	ErrUnknownTemplate  = errors.New("unknown template")
	ErrUnknownAction    = errors.New("unknown sync action")
	ErrAlreadyLinked    = errors.New("employee already has an account")
	ErrNoAccount        = errors.New("no account matches the employee email")
	ErrEmailExists      = errors.New("email already registered")
	ErrInvalidCreds     = errors.New("invalid email or password")
	ErrAccountDisabled  = errors.New("account disabled")
)
