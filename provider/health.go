package provider

import (
	"context"

	"github.com/kbukum/strategykit/observability"
)

// HealthChecker is optionally implemented by providers that can report
// more than the IsAvailable bool.
type HealthChecker interface {
	Health(ctx context.Context) observability.Health
}

// CheckHealth reports a provider's health, using HealthChecker when
// implemented and IsAvailable otherwise.
func CheckHealth(ctx context.Context, p Provider) observability.Health {
	if hc, ok := p.(HealthChecker); ok {
		h := hc.Health(ctx)
		if h.Name == "" {
			h.Name = p.Name()
		}
		return h
	}
	if p.IsAvailable(ctx) {
		return observability.Health{Name: p.Name(), Status: observability.HealthStatusUp}
	}
	return observability.Health{Name: p.Name(), Status: observability.HealthStatusDown, Message: "unavailable"}
}

// Checker adapts a Provider to observability.HealthChecker.
type Checker struct{ Provider Provider }

// CheckHealth implements observability.HealthChecker.
func (c Checker) CheckHealth(ctx context.Context) observability.Health {
	return CheckHealth(ctx, c.Provider)
}
