package logging

import (
	"fmt"
	"net/http"
	"time"
)

// LogConfig configures logger construction
type LogConfig struct {
	Level           LogLevel
	OutputFile      string
	MaxFileSize     int64
	EnableConsole   bool
	EnableDebug     bool
	EnableColor     bool
	EnableTimestamp bool
	RedactSensitive bool
}

// DefaultLogConfig returns the default logging configuration
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:           INFO,
		OutputFile:      "",
		MaxFileSize:     100 * 1024 * 1024, // 100 MiB
		EnableConsole:   true,
		EnableColor:     true,
		EnableTimestamp: true,
		RedactSensitive: true,
	}
}

// NewLogger builds a logger from config: console, file, both (multi),
// or no-op when every sink is disabled
func NewLogger(config LogConfig) (Logger, error) {
	var loggers []Logger

	if config.EnableConsole {
		loggers = append(loggers, NewConsoleLogger(ConsoleLoggerConfig{
			Level:            config.Level,
			ColorEnabled:     config.EnableColor,
			TimestampEnabled: config.EnableTimestamp,
			RedactSensitive:  config.RedactSensitive,
		}))
	}

	if config.OutputFile != "" {
		fileLogger, err := NewFileLogger(FileLoggerConfig{
			FilePath:        config.OutputFile,
			Level:           config.Level,
			MaxFileSize:     config.MaxFileSize,
			RotateEnabled:   config.MaxFileSize > 0,
			RedactSensitive: config.RedactSensitive,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
		loggers = append(loggers, fileLogger)
	}

	switch len(loggers) {
	case 0:
		return NewNoOpLogger(), nil
	case 1:
		return loggers[0], nil
	default:
		return NewMultiLogger(loggers...), nil
	}
}

// DebugTransport is an http.RoundTripper that logs every request and
// response at debug level. Bodies are never logged, only shapes.
type DebugTransport struct {
	Base   http.RoundTripper
	logger Logger
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	t.logger.Debug("HTTP request",
		F("method", req.Method),
		F("url", redactSensitiveData(req.URL.String())),
	)

	resp, err := base.RoundTrip(req)
	if err != nil {
		t.logger.Debug("HTTP request failed",
			F("method", req.Method),
			F("url", redactSensitiveData(req.URL.String())),
			F("duration_ms", time.Since(start).Milliseconds()),
			F("error", err.Error()),
		)
		return nil, err
	}

	t.logger.Debug("HTTP response",
		F("method", req.Method),
		F("url", redactSensitiveData(req.URL.String())),
		F("status", resp.StatusCode),
		F("duration_ms", time.Since(start).Milliseconds()),
	)
	return resp, nil
}

// NewDebugLoggerWithTransport builds a logger plus, when debug is
// enabled, an HTTP transport that mirrors requests into it
func NewDebugLoggerWithTransport(config LogConfig) (Logger, *DebugTransport, error) {
	logger, err := NewLogger(config)
	if err != nil {
		return nil, nil, err
	}
	if !config.EnableDebug {
		return logger, nil, nil
	}
	return logger, &DebugTransport{logger: logger}, nil
}
