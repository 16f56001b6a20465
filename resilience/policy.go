package resilience

import (
	"context"
	"time"

	apperrors "github.com/kbukum/strategykit/errors"
)

// PolicyConfig describes the full protection stack for one remote endpoint.
// Zero-valued sections are disabled.
type PolicyConfig struct {
	Name           string                `yaml:"name" mapstructure:"name"`
	Timeout        time.Duration         `yaml:"timeout" mapstructure:"timeout"`
	Retry          *RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Bulkhead       *BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
	RateLimiter    *RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
}

// Policy composes the primitives around a call, outermost first:
// rate limit, bulkhead, retry, circuit breaker, per-attempt timeout.
// Each retry attempt passes through the breaker so an opening circuit
// stops the retry loop.
type Policy struct {
	name    string
	timeout time.Duration
	retry   *RetryConfig
	breaker *CircuitBreaker
	bulk    *Bulkhead
	limiter *RateLimiter
}

// NewPolicy builds a Policy from config.
func NewPolicy(cfg PolicyConfig) *Policy {
	p := &Policy{name: cfg.Name, timeout: cfg.Timeout}
	if cfg.Retry != nil {
		r := *cfg.Retry
		p.retry = &r
	}
	if cfg.CircuitBreaker != nil {
		cb := *cfg.CircuitBreaker
		if cb.Name == "" {
			cb.Name = cfg.Name
		}
		p.breaker = NewCircuitBreaker(cb)
	}
	if cfg.Bulkhead != nil {
		p.bulk = NewBulkhead(*cfg.Bulkhead)
	}
	if cfg.RateLimiter != nil {
		p.limiter = NewRateLimiter(*cfg.RateLimiter)
	}
	return p
}

// Breaker returns the policy's circuit breaker, or nil.
func (p *Policy) Breaker() *CircuitBreaker { return p.breaker }

// Do runs fn under the policy. fn receives a context bounded by the
// per-attempt timeout.
func Do[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	if p == nil {
		return fn(ctx)
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return result, err
		}
	}

	attempt := func() (T, error) {
		var out T
		call := func() error {
			if p.timeout <= 0 {
				var err error
				out, err = fn(ctx)
				return err
			}
			actx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()
			var err error
			out, err = fn(actx)
			if err != nil && actx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				return apperrors.Timeout(p.name).WithCause(err)
			}
			return err
		}
		var err error
		if p.breaker != nil {
			err = p.breaker.Execute(call)
		} else {
			err = call()
		}
		return out, err
	}

	run := func() error {
		var err error
		if p.retry != nil {
			result, err = Retry(ctx, *p.retry, attempt)
		} else {
			result, err = attempt()
		}
		return err
	}

	var err error
	if p.bulk != nil {
		err = p.bulk.Execute(ctx, run)
	} else {
		err = run()
	}
	return result, err
}
