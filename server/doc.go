// Package server is the HTTP front of the strategy compiler, built on Gin
// and served over HTTP/1.1 and h2c on one port.
//
// # Routes
//
//   - POST /api/v1/strategies/validate: validation result, always 200
//   - POST /api/v1/strategies/compile: compiled program, or the error envelope
//   - POST /api/v1/strategies/simulate: compile then dry-run on the ledger
//   - GET /api/v1/adapters: registered protocol adapters
//   - GET /health, /version, /metrics
//
// Strategy bodies are JSON, or YAML when the content type says so.
//
// # Middleware
//
// Built-in middleware (server/middleware): panic recovery, request ids,
// request logging with metrics, a body size limit and an optional token
// bucket on the /api/v1 group.
package server
