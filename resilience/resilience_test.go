package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/strategykit/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastRetry(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("temporary")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected 'ok', got %q", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_StopsOnNonRetryableAppError(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastRetry(5), func() error {
		calls++
		return apperrors.LedgerRejected("bad signature")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for a non-retryable error, got %d", calls)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastRetry(2), func() error {
		calls++
		return apperrors.Timeout("pool read")
	})
	if !apperrors.HasCode(err, apperrors.ErrCodeTimeout) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Retry(ctx, fastRetry(3), func() (int, error) { return 1, nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetry_BackoffIsCapped(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, BackoffFactor: 10}
	cfg.applyDefaults()
	if got := cfg.backoff(4); got != 3*time.Second {
		t.Errorf("expected capped backoff 3s, got %v", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain", errors.New("x"), true},
		{"canceled", context.Canceled, false},
		{"circuit open", ErrCircuitOpen, false},
		{"retryable app error", apperrors.ConnectionFailed("ledger"), true},
		{"final app error", apperrors.InvalidInput("x", "y"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Unix(1000, 0)
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name: "ledger", MaxFailures: 2, Timeout: 10 * time.Second,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return boom })
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	called := false
	if err := cb.Execute(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("function must not run while open")
	}

	now = now.Add(11 * time.Second)
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected the trial call to pass, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after a successful trial call, got %s", cb.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], transitions[i])
		}
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second})
	cb.now = func() time.Time { return now }
	_ = cb.Execute(func() error { return errors.New("x") })
	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errors.New("still down") })
	if cb.State() != StateOpen {
		t.Errorf("expected open, got %s", cb.State())
	}
	cb.Reset()
	if cb.State() != StateClosed || cb.Failures() != 0 {
		t.Errorf("expected reset to closed with no failures, got %s/%d", cb.State(), cb.Failures())
	}
}

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 2})
	var (
		active, peak int32
		wg           sync.WaitGroup
		release      = make(chan struct{})
		started      = make(chan struct{}, 2)
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(context.Background(), func() error {
				n := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				started <- struct{}{}
				<-release
				atomic.AddInt32(&active, -1)
				return nil
			})
		}()
	}
	<-started
	<-started

	if err := b.Execute(context.Background(), func() error { return nil }); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	if b.Available() != 0 {
		t.Errorf("expected 0 available, got %d", b.Available())
	}
	close(release)
	wg.Wait()
	if peak != 2 {
		t.Errorf("expected peak concurrency 2, got %d", peak)
	}
	if b.InUse() != 0 {
		t.Errorf("expected no slots in use, got %d", b.InUse())
	}
}

func TestRateLimiter_TokenBucket(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})
	now := time.Unix(0, 0)
	rl.now = func() time.Time { return now }
	rl.lastRefill = now

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if rl.Allow() {
		t.Error("expected third call to be limited")
	}
	if err := rl.Execute(func() error { return nil }); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	now = now.Add(time.Second)
	if !rl.Allow() {
		t.Error("expected a token after one second")
	}
}

func TestPolicy_TimeoutIsRetriedThenReported(t *testing.T) {
	p := NewPolicy(PolicyConfig{
		Name:    "pool",
		Timeout: 5 * time.Millisecond,
		Retry:   &RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond},
	})
	var calls int32
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !apperrors.HasCode(err, apperrors.ErrCodeTimeout) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestPolicy_BreakerStopsRetries(t *testing.T) {
	p := NewPolicy(PolicyConfig{
		Name:           "ledger",
		Retry:          &RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond},
		CircuitBreaker: &CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute},
	})
	calls := 0
	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "", apperrors.ConnectionFailed("ledger")
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls before the circuit opened, got %d", calls)
	}
	if p.Breaker().State() != StateOpen {
		t.Errorf("expected open breaker, got %s", p.Breaker().State())
	}
}

func TestPolicy_NilRunsDirectly(t *testing.T) {
	v, err := Do(context.Background(), nil, func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("expected 7, got %d (%v)", v, err)
	}
}
