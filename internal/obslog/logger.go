// Package obslog wraps log/slog with the structured-logging conventions
// used throughout this module: a JSON handler, fluent With* builders,
// and a handful of domain-shaped logging helpers.
package obslog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// Level is the subset of slog levels this module configures by name.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config controls Logger construction.
type Config struct {
	Level       Level
	Component   string
	Environment string
	Output      io.Writer
	AddSource   bool
}

// DefaultConfig returns the module's default logger configuration,
// taking the environment tag from WMS_ENV, then ACTIVE_ENV, and
// defaulting to PROD.
func DefaultConfig(component string) *Config {
	return &Config{
		Level:       LevelInfo,
		Component:   component,
		Environment: getEnv("WMS_ENV", getEnv("ACTIVE_ENV", "PROD")),
		Output:      os.Stdout,
		AddSource:   false,
	}
}

// Logger wraps slog.Logger with the module's conventions.
type Logger struct {
	*slog.Logger
	component   string
	environment string
}

// New builds a Logger from cfg.
func New(cfg *Config) *Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case LevelDebug:
		level = slog.LevelDebug
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	handler := slog.NewJSONHandler(output, opts)
	base := slog.New(handler).With("component", cfg.Component, "environment", cfg.Environment)

	return &Logger{Logger: base, component: cfg.Component, environment: cfg.Environment}
}

func (l *Logger) clone(logger *slog.Logger) *Logger {
	return &Logger{Logger: logger, component: l.component, environment: l.environment}
}

// WithJob returns a Logger tagged with a job/source identifier.
func (l *Logger) WithJob(jobID, sourceID string) *Logger {
	return l.clone(l.Logger.With("jobId", jobID, "sourceId", sourceID))
}

// WithOperation tags the logger with an operation name.
func (l *Logger) WithOperation(operation string) *Logger {
	return l.clone(l.Logger.With("operation", operation))
}

// WithError attaches an error field. A nil err returns the receiver.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.clone(l.Logger.With("error", err.Error()))
}

// WithFields attaches arbitrary structured fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	attrs := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	return l.clone(l.Logger.With(attrs...))
}

// Event logs a job-lifecycle business event (job started, checkpoint
// written, printer selected, ...).
func (l *Logger) Event(ctx context.Context, eventType string, data map[string]any) {
	attrs := []any{"eventType", eventType, "timestamp", time.Now().UTC().Format(time.RFC3339Nano)}
	for k, v := range data {
		attrs = append(attrs, k, v)
	}
	l.Logger.InfoContext(ctx, "job event", attrs...)
}

// TaskOutcome logs the completion of one PrintTask.
func (l *Logger) TaskOutcome(ctx context.Context, taskKind, payloadID string, duration time.Duration, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelError
	}
	l.Logger.Log(ctx, level, "task outcome",
		"taskKind", taskKind,
		"payloadId", payloadID,
		"durationMs", duration.Milliseconds(),
		"success", success,
	)
}

// Panic logs a recovered panic with a stack trace.
func (l *Logger) Panic(ctx context.Context, recovered any) {
	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)
	l.Logger.ErrorContext(ctx, "panic recovered", "panic", recovered, "stack", string(stack[:n]))
}

// SetDefault installs this logger as the package-level slog default.
func (l *Logger) SetDefault() {
	slog.SetDefault(l.Logger)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
