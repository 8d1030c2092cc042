package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantLevel zapcore.Level
	}{
		{
			name: "Development Config",
			config: Config{
				Level:       "debug",
				Environment: "development",
				ServiceName: "snake-relay",
			},
			wantLevel: zapcore.DebugLevel,
		},
		{
			name: "Production Config",
			config: Config{
				Level:       "info",
				Environment: "production",
				ServiceName: "snake-relay",
			},
			wantLevel: zapcore.InfoLevel,
		},
		{
			name: "Invalid Level Defaults to Info",
			config: Config{
				Level:       "loud",
				Environment: "development",
				ServiceName: "snake-relay",
			},
			wantLevel: zapcore.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !l.zap.Core().Enabled(tt.wantLevel) {
				t.Errorf("Expected level %v to be enabled", tt.wantLevel)
			}
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := &Logger{zap: zap.New(core)}

	l.Info("info message", zap.String("wallet", "0xabc"))
	if observed.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", observed.Len())
	}
	entry := observed.All()[0]
	if entry.Message != "info message" {
		t.Errorf("Expected message 'info message', got '%s'", entry.Message)
	}
	if entry.ContextMap()["wallet"] != "0xabc" {
		t.Errorf("Expected wallet=0xabc, got %v", entry.ContextMap()["wallet"])
	}

	observed.TakeAll()
	errVal := errors.New("store unavailable")
	l.Error("error message", errVal)
	if observed.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", observed.Len())
	}
	entry = observed.All()[0]
	if entry.ContextMap()["error"] != "store unavailable" {
		t.Errorf("Expected error field, got %v", entry.ContextMap()["error"])
	}

	// Debug is below the observer level and must be ignored
	observed.TakeAll()
	l.Debug("debug message")
	if observed.Len() != 0 {
		t.Errorf("Expected 0 log entries, got %d", observed.Len())
	}
}

func TestWith(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := &Logger{zap: zap.New(core)}

	child := l.With(zap.String("component", "relay"))
	child.Info("child message")

	if observed.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", observed.Len())
	}
	if observed.All()[0].ContextMap()["component"] != "relay" {
		t.Errorf("Expected component=relay, got %v", observed.All()[0].ContextMap()["component"])
	}
}
