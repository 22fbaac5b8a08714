package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldDuration      = "duration_ms"
	FieldWallet        = "wallet"
	FieldCategory      = "category"
	FieldSubscription  = "subscription"
	FieldTransactionID = "transaction_id"
	FieldAmount        = "amount"
	FieldTxType        = "type"
	FieldEntity        = "entity"
	FieldAction        = "action"
	FieldKey           = "key"
	FieldOpID          = "op_id"
	FieldQueueID       = "queue_id"
	FieldAttempt       = "attempt"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentCLI          = "cli"
	ComponentStorage      = "storage"
	ComponentLedger       = "ledger"
	ComponentWallet       = "wallet"
	ComponentCategory     = "category"
	ComponentSubscription = "subscription"
	ComponentSync         = "sync"
	ComponentRecurring    = "recurring"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentRemote       = "remote"
	ComponentSheets       = "sheets"
	ComponentConnectivity = "connectivity"
	ComponentBackend      = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpRename   = "rename"
	OpBalance  = "balance"
	OpSync     = "sync"
	OpMirror   = "mirror"
	OpReplay   = "replay"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeConflict      = "conflict_error"
	ErrorTypeDuplicate     = "duplicate_error"
	ErrorTypeRemote        = "remote_sync_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error and, when given, its category.
func (f LogFields) WithError(err error, errorType ...string) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		if len(errorType) > 0 {
			f[FieldErrorType] = errorType[0]
		}
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithWallet(name string) LogFields {
	f[FieldWallet] = name
	return f
}

func (f LogFields) WithTransaction(id int64, txType, amount, wallet string) LogFields {
	f[FieldTransactionID] = id
	f[FieldTxType] = txType
	f[FieldAmount] = amount
	f[FieldWallet] = wallet
	return f
}

// WithSyncOp adds the fields identifying one mirrored mutation.
func (f LogFields) WithSyncOp(opID, entity, action, key string) LogFields {
	f[FieldOpID] = opID
	f[FieldEntity] = entity
	f[FieldAction] = action
	f[FieldKey] = key
	return f
}

func (f LogFields) WithQueueItem(id, attempt int64) LogFields {
	f[FieldQueueID] = id
	f[FieldAttempt] = attempt
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
