package application

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.SugaredLogger with the two-method shape the dispatcher
// and transports use throughout: LogInfo for routine activity, LogError for
// anything worth an operator's attention. Keeping the surface this narrow
// makes it trivial to swap in a no-op logger for tests.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger builds a Logger at the given level ("debug", "info", "warn",
// "error"), writing structured JSON to stderr — stdout is reserved for the
// stdio transport's JSON-RPC frames and must never carry log output.
func NewLogger(level string) (*Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: base.Sugar()}, nil
}

// NewNopLogger builds a Logger that discards everything, for tests.
func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// LogInfo records a routine event with structured key-value fields.
func (l *Logger) LogInfo(msg string, keysAndValues ...interface{}) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Infow(msg, keysAndValues...)
}

// LogError records an error-worthy event with structured key-value fields.
func (l *Logger) LogError(msg string, keysAndValues ...interface{}) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Errorw(msg, keysAndValues...)
}

// Sync flushes any buffered log entries; callers invoke it on shutdown.
func (l *Logger) Sync() error {
	if l == nil || l.sugar == nil {
		return nil
	}
	return l.sugar.Sync()
}
