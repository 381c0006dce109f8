package logger

import "go.uber.org/zap"

// Symbol-aware logging helpers.
// These functions log with the symbol as a structured field, not in the message.
//
// Usage:
//
//	// Instead of:
//	logger.Infow(SymbolScheduler + " tick complete", "ticks", n)
//
//	// Use:
//	logger.SchedulerInfow("tick complete", "ticks", n)
//
// This makes logs queryable by symbol and keeps messages clean.

// Subsystem glyphs. Kept small and local rather than pulled from a shared
// registry package — the scheduler has a handful of subsystems, not a whole
// symbol language to maintain.
const (
	SymbolScheduler = "꩜" // tick loop, eligibility filter, evaluation pool
	SymbolDB        = "⊔" // trigger/execution persistence
	SymbolFlow      = "≡" // flow catalog view
	SymbolCondition = "⊨" // condition evaluator
	SymbolMetrics   = "◎" // metrics surface
)

// SchedulerInfow logs an info message tagged with the scheduler symbol.
func SchedulerInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolScheduler}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// SchedulerDebugw logs a debug message tagged with the scheduler symbol.
func SchedulerDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolScheduler}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// SchedulerWarnw logs a warning message tagged with the scheduler symbol.
func SchedulerWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolScheduler}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// SchedulerErrorw logs an error message tagged with the scheduler symbol.
func SchedulerErrorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolScheduler}, keysAndValues...)
		Logger.Errorw(msg, fields...)
	}
}

// DBInfow logs an info message tagged with the db symbol.
func DBInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolDB}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// DBDebugw logs a debug message tagged with the db symbol.
func DBDebugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolDB}, keysAndValues...)
		Logger.Debugw(msg, fields...)
	}
}

// AddDBSymbol returns a logger with the db symbol field pre-attached.
func AddDBSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, SymbolDB)
}

// AddSchedulerSymbol returns a logger with the scheduler symbol field pre-attached.
func AddSchedulerSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, SymbolScheduler)
}

// WithSymbol returns a logger with the given symbol as a field.
// For ad-hoc symbol usage not covered by the helpers above.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}
