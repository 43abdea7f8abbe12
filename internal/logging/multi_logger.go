package logging

import "context"

// MultiLogger fans out every log call to a set of underlying loggers
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that writes to all given loggers
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (l *MultiLogger) Debug(msg string, fields ...Field) {
	for _, logger := range l.loggers {
		logger.Debug(msg, fields...)
	}
}

func (l *MultiLogger) Info(msg string, fields ...Field) {
	for _, logger := range l.loggers {
		logger.Info(msg, fields...)
	}
}

func (l *MultiLogger) Warn(msg string, fields ...Field) {
	for _, logger := range l.loggers {
		logger.Warn(msg, fields...)
	}
}

func (l *MultiLogger) Error(msg string, fields ...Field) {
	for _, logger := range l.loggers {
		logger.Error(msg, fields...)
	}
}

// WithTraceID returns a new multi logger with the trace ID applied to
// every underlying logger
func (l *MultiLogger) WithTraceID(traceID string) Logger {
	traced := make([]Logger, len(l.loggers))
	for i, logger := range l.loggers {
		traced[i] = logger.WithTraceID(traceID)
	}
	return &MultiLogger{loggers: traced}
}

// WithContext returns a new logger that extracts trace ID from context
func (l *MultiLogger) WithContext(ctx context.Context) Logger {
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		return l
	}
	return l.WithTraceID(traceID)
}

// SetLevel sets the minimum log level on every underlying logger
func (l *MultiLogger) SetLevel(level LogLevel) {
	for _, logger := range l.loggers {
		logger.SetLevel(level)
	}
}

// Close closes every underlying logger, returning the first error
func (l *MultiLogger) Close() error {
	var firstErr error
	for _, logger := range l.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
