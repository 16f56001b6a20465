// Package provider holds the generic plumbing shared by pluggable
// backends: a Registry of factories and named instances, health
// reporting, and RequestResponse middleware.
//
// Middlewares compose with Chain, outermost first:
//
//	reader := provider.Chain(
//	    provider.WithTracing[string, PoolState]("pool"),
//	    provider.WithLogging[string, PoolState](log),
//	    provider.WithResilience[string, PoolState](policy),
//	)(base)
package provider
