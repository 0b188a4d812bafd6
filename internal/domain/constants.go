package domain

const (
	RoleAdmin    = "ADMIN"
	RoleRH       = "RH"
	RoleEmployee = "EMPLOYEE"
)

// Reimbursement statuses. EN_RETARD is never stored; it is derived from the due date.
const (
	ReimbursementPending   = "EN_ATTENTE"
	ReimbursementPaid      = "PAYE"
	ReimbursementOverdue   = "EN_RETARD"
	ReimbursementCancelled = "ANNULE"
)

const (
	TransactionPending   = "EN_COURS"
	TransactionSucceeded = "EFFECTUEE"
	TransactionFailed    = "ECHOUE"
	TransactionCancelled = "ANNULEE"
)

const (
	AdvancePending  = "EN_ATTENTE"
	AdvanceApproved = "APPROUVEE"
	AdvanceRejected = "REJETEE"
)

// Statuses reported by the status endpoints when no gateway status could be applied.
const (
	StatusNotInitiated = "NOT_INITIATED"
	StatusDBOnly       = "DB_ONLY"
)

// Gateway vocabulary (Lengo Pay).
const (
	GatewaySuccess   = "SUCCESS"
	GatewayFailed    = "FAILED"
	GatewayCancelled = "CANCELLED"
	GatewayPending   = "PENDING"
)

const (
	HistorySourceCallback    = "callback"
	HistorySourceStatusCheck = "status_check"
	HistorySourceAdmin       = "admin"
)

// Notification events handled by the dispatcher.
const (
	EventRequestReceived = "request_received"
	EventApproval        = "approval"
	EventRejection       = "rejection"
	EventPaymentSuccess  = "payment_success"
	EventPaymentFailure  = "payment_failure"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
	ChannelPush  = "push"
)

const (
	PaymentMethodLengo = "LENGO_PAY"
	DefaultCurrency    = "GNF"
)

// IsTerminalReimbursement reports whether no further transition may leave status.
func IsTerminalReimbursement(status string) bool {
	return status == ReimbursementPaid || status == ReimbursementCancelled
}

func IsTerminalTransaction(status string) bool {
	switch status {
	case TransactionSucceeded, TransactionFailed, TransactionCancelled:
		return true
	}
	return false
}
