// Package errors provides the structured error type shared by the compiler,
// the adapters, the ledger client and the HTTP API.
//
// Every fatal condition surfaces as an *AppError carrying a machine-readable
// code, an HTTP status hint and optional details (node id, protocol, the full
// validation result). Validation findings themselves are not errors; they are
// reported as lists by the validation package and only wrapped here when a
// compile is refused.
package errors
