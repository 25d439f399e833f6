package scpfwk

// Logger is the structured logging interface the framework writes through.
// Arguments are key-value pairs:
//
//	logger.Info("Started module", "module", "clock", "elements", 4)
//
// The shape is compatible with slog, zerolog, zap and friends; adapters are
// one small struct away. The framework works with any implementation and,
// when none is supplied, falls back to the zerolog-backed default in
// NewZerologLogger.
type Logger interface {
	// Info logs normal framework activity: phase transitions, module
	// startup, loop state changes.
	Info(msg string, args ...any)

	// Error logs failures that do not abort the loop: dropped events,
	// undeliverable notifications, stray acknowledgements.
	Error(msg string, args ...any)

	// Warn logs unusual but tolerated conditions.
	Warn(msg string, args ...any)

	// Debug logs per-event diagnostics; expected to be disabled in
	// production images.
	Debug(msg string, args ...any)
}

// NoopLogger discards everything. Useful in tests and for embedders that
// cannot afford a log sink; the framework runs fine without one.
type NoopLogger struct{}

// Info implements Logger.
func (NoopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NoopLogger) Error(string, ...any) {}

// Warn implements Logger.
func (NoopLogger) Warn(string, ...any) {}

// Debug implements Logger.
func (NoopLogger) Debug(string, ...any) {}
