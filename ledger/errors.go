package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/strategykit/errors"
	"github.com/kbukum/strategykit/resilience"
)

const service = "ledger"

// RPCError is a JSON-RPC error object returned by the node. The node
// answered, so it never counts against the circuit breaker and is never
// retried.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("ledger: rpc error %d: %s", e.Code, e.Message)
}

// IsRPCError reports whether err carries a node-side RPC error.
func IsRPCError(err error) bool {
	var e *RPCError
	return errors.As(err, &e)
}

// classifyStatus maps a non-2xx HTTP status to an application error.
// It returns nil for 2xx.
func classifyStatus(status int, body []byte) error {
	cause := fmt.Errorf("HTTP %d: %s", status, truncate(body, 256))
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return apperrors.RateLimited().WithCause(cause)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(service).WithCause(cause)
	case status >= 500:
		return apperrors.ExternalServiceError(service, cause)
	default:
		e := apperrors.ExternalServiceError(service, cause)
		e.Retryable = false
		return e.WithDetail("status", status)
	}
}

// transportError classifies a failed round trip.
func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return apperrors.Timeout("ledger rpc").WithCause(err)
	}
	return apperrors.ConnectionFailed(service).WithCause(err)
}

// IsRetryable reports whether a failed call is worth another attempt.
// Node-side RPC errors are final; application errors carry their own flag.
func IsRetryable(err error) bool {
	if IsRPCError(err) {
		return false
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Retryable
	}
	return resilience.IsRetryable(err)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
