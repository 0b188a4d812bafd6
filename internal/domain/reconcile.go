package domain

import (
	"fmt"
	"strings"
)

// GatewayStatus is what the payment gateway reports for one pay_id.
type GatewayStatus struct {
	PayID   string
	Status  string
	Amount  int64
	Receipt string
}

// Decision is the outcome of comparing a stored status with a gateway report.
// Callers apply it; computing it never touches the network or the database.
type Decision struct {
	OldStatus string
	NewStatus string
	Changed   bool
	Paid      bool   // record the payment date and receipt
	Event     string // notification to dispatch, empty for none
	Note      string // history entry description
}

// MapReimbursementStatus translates a gateway status to the reimbursement vocabulary.
// Unknown gateway values keep current.
func MapReimbursementStatus(gateway, current string) string {
	switch strings.ToUpper(strings.TrimSpace(gateway)) {
	case GatewaySuccess:
		return ReimbursementPaid
	case GatewayFailed, GatewayCancelled:
		return ReimbursementCancelled
	case GatewayPending:
		return ReimbursementPending
	default:
		return current
	}
}

// MapTransactionStatus translates a gateway status to the transaction vocabulary.
func MapTransactionStatus(gateway, current string) string {
	switch strings.ToUpper(strings.TrimSpace(gateway)) {
	case GatewaySuccess:
		return TransactionSucceeded
	case GatewayFailed:
		return TransactionFailed
	case GatewayCancelled:
		return TransactionCancelled
	case GatewayPending:
		return TransactionPending
	default:
		return current
	}
}

// DecideReimbursement computes the transition for a reimbursement in status current.
// Terminal statuses never move.
func DecideReimbursement(current string, gw GatewayStatus) Decision {
	d := Decision{OldStatus: current, NewStatus: current}
	if IsTerminalReimbursement(current) {
		return d
	}
	next := MapReimbursementStatus(gw.Status, current)
	if next == current {
		return d
	}
	d.NewStatus = next
	d.Changed = true
	d.Paid = next == ReimbursementPaid
	d.Note = fmt.Sprintf("Statut Lengo %s: %s -> %s", strings.ToUpper(gw.Status), current, next)
	return d
}

// DecideTransaction computes the transition for a transaction in status current.
func DecideTransaction(current string, gw GatewayStatus) Decision {
	d := Decision{OldStatus: current, NewStatus: current}
	if IsTerminalTransaction(current) {
		return d
	}
	next := MapTransactionStatus(gw.Status, current)
	if next == current {
		return d
	}
	d.NewStatus = next
	d.Changed = true
	switch next {
	case TransactionSucceeded:
		d.Paid = true
		d.Event = EventPaymentSuccess
	case TransactionFailed, TransactionCancelled:
		d.Event = EventPaymentFailure
	}
	d.Note = fmt.Sprintf("Statut Lengo %s: %s -> %s", strings.ToUpper(gw.Status), current, next)
	return d
}
