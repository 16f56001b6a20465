package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Input ---

// InvalidInput creates an error for a malformed request or document.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// InvalidFormat creates an error for a document that is not in the expected format.
func InvalidFormat(what, expectedFormat string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: fmt.Sprintf("Invalid format for %s. Expected: %s", what, expectedFormat),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": what, "expected_format": expectedFormat},
	}
}

// NotFound creates an error for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// --- Compilation ---

// ValidationFailed refuses a compile. result is attached under the
// "validation" detail key so callers see every finding at once.
func ValidationFailed(strategyID string, errorCount int, result any) *AppError {
	return &AppError{
		Code:       ErrCodeValidationFailed,
		Message:    fmt.Sprintf("strategy %q failed validation with %d error(s)", strategyID, errorCount),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"strategy_id": strategyID, "validation": result},
	}
}

// UnknownProtocol reports a node whose protocol tag has no registered adapter.
func UnknownProtocol(nodeID, protocol string) *AppError {
	return &AppError{
		Code:       ErrCodeUnknownProtocol,
		Message:    fmt.Sprintf("node %q uses unknown protocol %q", nodeID, protocol),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"node_id": nodeID, "protocol": protocol},
	}
}

// UnresolvedReference reports a reference that has no entry in the result cache.
func UnresolvedReference(nodeID, ref string) *AppError {
	return &AppError{
		Code:       ErrCodeUnresolvedReference,
		Message:    fmt.Sprintf("node %q cannot resolve reference %q", nodeID, ref),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"node_id": nodeID, "reference": ref},
	}
}

// EncodingFailed reports a fatal failure while emitting commands for a node.
func EncodingFailed(nodeID string, cause error) *AppError {
	return &AppError{
		Code:       ErrCodeEncodingFailed,
		Message:    fmt.Sprintf("failed to encode node %q", nodeID),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"node_id": nodeID},
		Cause:      cause,
	}
}

// EstimationFailed describes a quote failure. It is informational: callers
// degrade to a best-effort estimate instead of returning it.
func EstimationFailed(nodeID, protocol string, cause error) *AppError {
	return &AppError{
		Code:       ErrCodeEstimationFailed,
		Message:    fmt.Sprintf("estimate for node %q via %q failed", nodeID, protocol),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"node_id": nodeID, "protocol": protocol},
		Cause:   cause,
	}
}

// LedgerRejected reports a dry-run or execution the ledger refused.
func LedgerRejected(reason string) *AppError {
	return &AppError{
		Code:       ErrCodeLedgerRejected,
		Message:    fmt.Sprintf("ledger rejected transaction: %s", reason),
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// --- Transport ---

// ServiceUnavailable creates an error for a dependency that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// ConnectionFailed creates an error for a failed connection to a service.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates an error for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// RateLimited creates an error for too many requests.
func RateLimited() *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests. Please wait a moment and try again.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
	}
}

// ExternalServiceError wraps an error returned by the ledger or a protocol endpoint.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

// Internal creates an error for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}
