// Package logging provides a minimal logging interface and adapters for the
// expert swarm service.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the runner, agents and the invocation handler use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - SwarmLogger with component/session context helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r := runner.New(sessionStore, runner.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
