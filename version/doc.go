// Package version reports build information and the strategy document
// schema version this build understands.
//
//	go build -ldflags "-X github.com/kbukum/strategykit/version.Version=1.0.0"
package version
