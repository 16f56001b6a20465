package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates a dependency is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to the ledger or a protocol node.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the call timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the caller is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field or document has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Compilation errors
const (
	// ErrCodeValidationFailed indicates schema or graph validation refused the strategy.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrCodeUnknownProtocol indicates no adapter is registered for a node's protocol tag.
	ErrCodeUnknownProtocol ErrorCode = "UNKNOWN_PROTOCOL"
	// ErrCodeUnresolvedReference indicates a node consumed a slot that was not produced yet.
	ErrCodeUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	// ErrCodeEncodingFailed indicates an adapter or native handler could not emit commands.
	ErrCodeEncodingFailed ErrorCode = "ENCODING_FAILED"
	// ErrCodeEstimationFailed indicates a protocol quote could not be obtained.
	ErrCodeEstimationFailed ErrorCode = "ESTIMATION_FAILED"
	// ErrCodeLedgerRejected indicates the ledger refused or failed the transaction.
	ErrCodeLedgerRejected ErrorCode = "LEDGER_REJECTED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error returned by an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
	ErrCodeEstimationFailed:   true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
