// Package ledger is the boundary to the chain. It talks JSON-RPC 2.0 to a
// full node, serialises compiled programs into transaction data, and runs
// dry-runs and submissions on behalf of the compiler's callers.
//
// The Submitter binds the sender, picks a gas price no lower than the
// configured floor, attaches gas payment and budget, and reports success,
// gas used and balance changes. PoolReader reads exchange pool state for
// swap estimates.
package ledger
