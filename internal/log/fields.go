package log

import "time"

// Attribute keys shared by every component.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldParticipant = "participant"
	FieldExpenseID   = "expense_id"
	FieldExpenseDesc = "expense_description"
	FieldAmount      = "amount"
	FieldPayer       = "payer"
	FieldBalance     = "balance"
	FieldMessageID   = "message_id"
	FieldBackend     = "backend"
)

// Component names, set with Logger.WithComponent.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentTelegram  = "telegram"
	ComponentMemory    = "memory"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

// Operation names reported with FieldOperation.
const (
	OpAddParticipant    = "add_participant"
	OpRemoveParticipant = "remove_participant"
	OpAddExpense        = "add_expense"
	OpClearExpenses     = "clear_expenses"
	OpNotify            = "notify"
	OpDeliver           = "deliver"
	OpConsume           = "consume"
	OpParse             = "parse"
	OpRender            = "render"
	OpHandleRequest     = "handle_request"
	OpShutdown          = "shutdown"
	OpStartup           = "startup"
)

// Fields collects key/value pairs in the order they were added, ready to
// be spread into a slog call.
type Fields []any

// NewFields starts an empty field list.
func NewFields() Fields {
	return Fields{}
}

// WithError records err's message; a nil err adds nothing.
func (f Fields) WithError(err error) Fields {
	if err == nil {
		return f
	}
	return append(f, FieldError, err.Error())
}

func (f Fields) WithOperation(op string) Fields {
	return append(f, FieldOperation, op)
}

// WithExpense describes a recorded expense.
func (f Fields) WithExpense(id, desc string, amount float64, payer string) Fields {
	return append(f,
		FieldExpenseID, id,
		FieldExpenseDesc, desc,
		FieldAmount, amount,
		FieldPayer, payer)
}

// WithRequest describes an inbound request. The user agent is omitted when empty.
func (f Fields) WithRequest(method, path, userAgent string) Fields {
	f = append(f, FieldMethod, method, FieldPath, path)
	if userAgent != "" {
		f = append(f, FieldUserAgent, userAgent)
	}
	return f
}

// WithResponse describes the outcome of a request.
func (f Fields) WithResponse(status int, elapsed time.Duration) Fields {
	return append(f,
		FieldStatusCode, status,
		FieldDuration, elapsed.Milliseconds(),
		FieldSuccess, status < 400)
}

// With appends arbitrary pairs.
func (f Fields) With(args ...any) Fields {
	return append(f, args...)
}
