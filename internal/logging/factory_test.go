package logging

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != INFO {
		t.Errorf("Level = %v, want INFO", config.Level)
	}
	if !config.EnableConsole {
		t.Error("console sink should be on by default")
	}
	if !config.RedactSensitive {
		t.Error("redaction should be on by default")
	}
	if config.MaxFileSize != 100*1024*1024 {
		t.Errorf("MaxFileSize = %v, want 100 MiB", config.MaxFileSize)
	}
}

func TestNewLoggerSinkSelection(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "bnncache.log")

	tests := []struct {
		name   string
		config LogConfig
		want   string
	}{
		{"console only", LogConfig{Level: INFO, EnableConsole: true}, "*logging.ConsoleLogger"},
		{"file only", LogConfig{Level: INFO, OutputFile: logPath, MaxFileSize: 1024}, "*logging.FileLogger"},
		{"console and file", LogConfig{Level: INFO, EnableConsole: true, OutputFile: logPath, MaxFileSize: 1024}, "*logging.MultiLogger"},
		{"no sinks", LogConfig{Level: INFO}, "*logging.NoOpLogger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			t.Cleanup(func() { logger.Close() })

			if got := fmt.Sprintf("%T", logger); got != tt.want {
				t.Errorf("NewLogger() returned %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestNewLoggerUnusableFilePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	config := LogConfig{
		Level:      INFO,
		OutputFile: filepath.Join(blocker, "bnncache.log"),
	}

	if _, err := NewLogger(config); err == nil {
		t.Error("expected error when the log directory cannot be created")
	}
}

func TestNewDebugLoggerWithTransport(t *testing.T) {
	config := LogConfig{
		Level:         DEBUG,
		EnableConsole: false,
		OutputFile:    filepath.Join(t.TempDir(), "debug.log"),
		EnableDebug:   true,
	}

	logger, transport, err := NewDebugLoggerWithTransport(config)
	if err != nil {
		t.Fatalf("NewDebugLoggerWithTransport() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	if transport == nil {
		t.Fatal("expected a debug transport when debug is enabled")
	}
}

func TestNewDebugLoggerWithTransportDisabled(t *testing.T) {
	logger, transport, err := NewDebugLoggerWithTransport(LogConfig{
		Level:         INFO,
		EnableConsole: true,
	})
	if err != nil {
		t.Fatalf("NewDebugLoggerWithTransport() error = %v", err)
	}
	t.Cleanup(func() { logger.Close() })

	if transport != nil {
		t.Error("expected nil transport when debug is disabled")
	}
}

func TestDebugTransportRedactsURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	logPath := filepath.Join(t.TempDir(), "debug.log")
	fileLogger, err := NewFileLogger(FileLoggerConfig{FilePath: logPath, Level: DEBUG})
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	client := &http.Client{Transport: &DebugTransport{logger: fileLogger}}
	resp, err := client.Get(server.URL + "/drive/v3/files/1AbC?key=" + driveKey)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	fileLogger.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading debug log: %v", err)
	}
	if strings.Contains(string(data), driveKey) {
		t.Error("API key leaked into the debug log")
	}
	if !strings.Contains(string(data), "key=[REDACTED]") {
		t.Errorf("expected redacted url in debug log, got %s", data)
	}
}
