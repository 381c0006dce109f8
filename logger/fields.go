package logger

import "go.uber.org/zap"

// Standard field names for consistent structured logging across cadence.
// Use these constants instead of raw strings to ensure consistency.
const (
	FieldComponent = "component"

	FieldOperation = "operation"

	FieldDurationMS = "duration_ms"

	FieldError     = "error"
	FieldErrorCode = "error_code"

	FieldCount = "count"

	FieldState = "state"

	// FieldSymbol carries a subsystem glyph (see symbol.go), not a message prefix.
	FieldSymbol = "symbol"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	admin.NewHub(queue, logger.ComponentLogger("admin"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
