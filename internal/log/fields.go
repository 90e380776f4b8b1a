package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldCustomerID     = "customer_id"
	FieldCustomerName   = "customer_name"
	FieldSenderID       = "sender_id"
	FieldReceiverID     = "receiver_id"
	FieldAccountID      = "account_id"
	FieldAccountType    = "account_type"
	FieldAmountCents    = "amount_cents"
	FieldFeeCents       = "fee_cents"
	FieldInterestCents  = "interest_cents"
	FieldNotificationID = "notification_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentBackend = "backend"
	ComponentTrace   = "trace"
)

// Operations defines standard operation names
const (
	OpOnboard       = "onboard"
	OpPay           = "pay"
	OpDeposit       = "deposit"
	OpTransfer      = "transfer"
	OpApplyInterest = "apply_interest"
	OpList          = "list"
	OpDelete        = "delete"
	OpStartup       = "startup"
	OpShutdown      = "shutdown"
)
