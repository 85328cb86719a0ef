// Package logging provides a minimal logging interface and adapters for AgentRelay.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the executor, registry, compactor and runner use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - RelayLogger with contextual helpers and domain-specific logging methods
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	exec := executor.New(reg, engine, func(o *executor.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
