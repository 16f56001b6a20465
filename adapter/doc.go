// Package adapter defines the protocol adapter contract used by the
// compiler: estimate, then encode. Flash-loan adapters additionally expose
// the borrow/repay primitive pair. A Registry maps the protocol tag of a
// node to the adapter instance that handles it.
//
// Implementations live in the flashloan and exchange subpackages and are
// created from configuration through family factories.
package adapter
