package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("strategy", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
	if err.Details["resource"] != "strategy" {
		t.Errorf("expected resource=strategy, got %v", err.Details["resource"])
	}
}

func TestAppError_ValidationFailed(t *testing.T) {
	payload := struct{ Valid bool }{Valid: false}
	err := ValidationFailed("s-1", 2, payload)
	if err.Code != ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", err.HTTPStatus)
	}
	if err.Details["validation"] != payload {
		t.Errorf("expected validation payload to be attached, got %v", err.Details["validation"])
	}
	if !strings.Contains(err.Message, "2 error") {
		t.Errorf("expected error count in message, got %q", err.Message)
	}
	if err.Retryable {
		t.Error("validation failures should not be retryable")
	}
}

func TestAppError_UnknownProtocol(t *testing.T) {
	err := UnknownProtocol("swap1", "nope")
	if err.Details["node_id"] != "swap1" || err.Details["protocol"] != "nope" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestAppError_EncodingFailed_Unwrap(t *testing.T) {
	cause := fmt.Errorf("bad pool")
	err := EncodingFailed("swap1", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "bad pool") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := LedgerRejected("insufficient gas").WithDetail("digest", "abc")
	if err.Details["digest"] != "abc" {
		t.Errorf("expected digest=abc, got %v", err.Details["digest"])
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("compile: %w", UnresolvedReference("repay1", "borrow1.receipt"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to unwrap")
	}
	if appErr.Code != ErrCodeUnresolvedReference {
		t.Errorf("expected UNRESOLVED_REFERENCE, got %s", appErr.Code)
	}
	if !HasCode(wrapped, ErrCodeUnresolvedReference) {
		t.Error("expected HasCode to match")
	}
	if HasCode(stderrors.New("plain"), ErrCodeInternal) {
		t.Error("plain errors should not match any code")
	}
}

func TestToResponse(t *testing.T) {
	resp := Timeout("dry_run").ToResponse()
	if resp.Error.Code != ErrCodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", resp.Error.Code)
	}
	if !resp.Error.Retryable {
		t.Error("expected retryable response")
	}
	if resp.Error.Details["operation"] != "dry_run" {
		t.Errorf("expected operation=dry_run, got %v", resp.Error.Details["operation"])
	}
}

func TestIsRetryableCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrCodeTimeout, true},
		{ErrCodeConnectionFailed, true},
		{ErrCodeServiceUnavailable, true},
		{ErrCodeRateLimited, true},
		{ErrCodeValidationFailed, false},
		{ErrCodeEncodingFailed, false},
		{ErrCodeNotFound, false},
	}
	for _, tt := range tests {
		if got := IsRetryableCode(tt.code); got != tt.want {
			t.Errorf("IsRetryableCode(%s): expected %v, got %v", tt.code, tt.want, got)
		}
	}
}
