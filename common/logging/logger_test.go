package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/telhawk-systems/campaign-stack/common/execution"
	"github.com/telhawk-systems/campaign-stack/common/middleware"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  slog.Level
		format string
	}{
		{
			name:   "json format with info level",
			level:  slog.LevelInfo,
			format: "json",
		},
		{
			name:   "text format with debug level",
			level:  slog.LevelDebug,
			format: "text",
		},
		{
			name:   "default format (json) with error level",
			level:  slog.LevelError,
			format: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level, tt.format)
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
			if logger.Logger == nil {
				t.Fatal("expected non-nil underlying logger")
			}
		})
	}
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "text")
	logger.Info("flushed", BatchSize(20))

	output := buf.String()
	if !strings.Contains(output, "batch_size=20") {
		t.Errorf("expected text-formatted attribute, got: %s", output)
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	tests := []struct {
		name     string
		ctx      context.Context
		expected []string
		missing  []string
	}{
		{
			name:     "context with request ID",
			ctx:      context.WithValue(context.Background(), middleware.RequestIDKey, "test-req-123"),
			expected: []string{`"request_id":"test-req-123"`},
			missing:  []string{FieldExecutionID},
		},
		{
			name:     "context with execution ID",
			ctx:      execution.WithID(context.Background(), "exec-42"),
			expected: []string{`"execution_id":"exec-42"`},
			missing:  []string{FieldRequestID},
		},
		{
			name:    "context without identifiers",
			ctx:     context.Background(),
			missing: []string{FieldRequestID, FieldExecutionID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			logger.WithContext(tt.ctx).Info("test message")

			output := buf.String()
			for _, want := range tt.expected {
				if !strings.Contains(output, want) {
					t.Errorf("expected %s in log output, got: %s", want, output)
				}
			}
			for _, unwanted := range tt.missing {
				if strings.Contains(output, unwanted) {
					t.Errorf("did not expect %s in log output, got: %s", unwanted, output)
				}
			}
		})
	}
}

func TestLevelHelpers(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *Logger, ctx context.Context)
		level string
	}{
		{
			name:  "info",
			log:   func(l *Logger, ctx context.Context) { l.InfoContext(ctx, "test message") },
			level: "INFO",
		},
		{
			name:  "warn",
			log:   func(l *Logger, ctx context.Context) { l.WarnContext(ctx, "test message") },
			level: "WARN",
		},
		{
			name:  "error",
			log:   func(l *Logger, ctx context.Context) { l.ErrorContext(ctx, "test message") },
			level: "ERROR",
		},
		{
			name:  "debug",
			log:   func(l *Logger, ctx context.Context) { l.DebugContext(ctx, "test message") },
			level: "DEBUG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, slog.LevelDebug, "json")

			ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "level-test")
			tt.log(logger, ctx)

			output := buf.String()
			if !strings.Contains(output, "test message") {
				t.Errorf("expected message in output, got: %s", output)
			}
			if !strings.Contains(output, tt.level) {
				t.Errorf("expected %s level in output, got: %s", tt.level, output)
			}
			if !strings.Contains(output, "level-test") {
				t.Errorf("expected request ID in output, got: %s", output)
			}
		})
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json")

	enriched := logger.With(Service("campaign"))
	enriched.Info("test message")

	if !strings.Contains(buf.String(), `"service":"campaign"`) {
		t.Errorf("expected service field in output, got: %s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger == nil || logger.Logger == nil {
		t.Fatal("expected non-nil discard logger")
	}
	logger.Error("dropped")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{name: "debug level", input: "debug", expected: slog.LevelDebug},
		{name: "info level", input: "info", expected: slog.LevelInfo},
		{name: "warn level", input: "warn", expected: slog.LevelWarn},
		{name: "error level", input: "error", expected: slog.LevelError},
		{name: "invalid level defaults to info", input: "invalid", expected: slog.LevelInfo},
		{name: "empty string defaults to info", input: "", expected: slog.LevelInfo},
		{name: "uppercase DEBUG", input: "DEBUG", expected: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSetDefault(t *testing.T) {
	originalDefault := slog.Default()
	defer slog.SetDefault(originalDefault)

	logger := New(slog.LevelInfo, "json")
	SetDefault(logger)

	if slog.Default() != logger.Logger {
		t.Error("SetDefault did not update slog.Default()")
	}
}
