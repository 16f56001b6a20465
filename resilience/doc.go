// Package resilience protects calls to remote endpoints (the ledger RPC
// node and protocol pool reads) with retry, circuit breaker, bulkhead and
// token-bucket rate limiting. Policy composes them for a single endpoint.
package resilience
