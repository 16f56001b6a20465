package provider

import (
	"context"

	"github.com/kbukum/strategykit/resilience"
)

// WithResilience runs each Execute call under policy. A nil policy is a
// passthrough.
func WithResilience[I, O any](policy *resilience.Policy) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		if policy == nil {
			return inner
		}
		return &resilientRR[I, O]{inner: inner, policy: policy}
	}
}

type resilientRR[I, O any] struct {
	inner  RequestResponse[I, O]
	policy *resilience.Policy
}

func (r *resilientRR[I, O]) Name() string { return r.inner.Name() }

// IsAvailable is false while the policy's circuit is open.
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool {
	if cb := r.policy.Breaker(); cb != nil && cb.State() == resilience.StateOpen {
		return false
	}
	return r.inner.IsAvailable(ctx)
}

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return resilience.Do(ctx, r.policy, func(ctx context.Context) (O, error) {
		return r.inner.Execute(ctx, input)
	})
}
