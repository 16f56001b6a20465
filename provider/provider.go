package provider

import "context"

// Provider is the base interface for pluggable backends: protocol
// adapters, pool readers and the ledger transport.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider instance under name from a settings map.
type Factory[T Provider] func(name string, settings map[string]any) (T, error)
