// Package logging provides the structured logger shared by every component.
package logging

import (
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Level is the severity of a log message.
type Level = log.Level

// Log levels, lowest first.
const (
	LevelDebug = log.DebugLevel
	LevelInfo  = log.InfoLevel
	LevelWarn  = log.WarnLevel
	LevelError = log.ErrorLevel
)

// ParseLogLevel parses a level name. Unknown names map to LevelInfo.
func ParseLogLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum level written.
	Level Level
	// Output defaults to os.Stderr.
	Output io.Writer
	// Prefix is prepended to every line.
	Prefix string
	// Timestamps enables the time column.
	Timestamps bool
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      LevelInfo,
		Output:     os.Stderr,
		Prefix:     "gotodef",
		Timestamps: true,
	}
}

// Logger writes leveled key/value log lines. A nil *Logger discards everything.
type Logger struct {
	base *log.Logger
}

// NewLogger creates a logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{
		base: log.NewWithOptions(cfg.Output, log.Options{
			Level:           cfg.Level,
			Prefix:          cfg.Prefix,
			ReportTimestamp: cfg.Timestamps,
			TimeFormat:      time.TimeOnly,
		}),
	}
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return NewLogger(LoggerConfig{Level: LevelError, Output: io.Discard})
}

// WithField returns a child logger with key set to value on every line.
func (l *Logger) WithField(key string, value any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{base: l.base.With(key, value)}
}

// WithFields returns a child logger carrying all fields, in key order.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return &Logger{base: l.base.With(kv...)}
}

// WithComponent returns a child logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) {
	if l == nil {
		return
	}
	l.base.SetLevel(level)
}

// Level returns the minimum level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelError
	}
	return l.base.GetLevel()
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	l.base.Debug(msg, keyvals...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	l.base.Info(msg, keyvals...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	l.base.Warn(msg, keyvals...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, keyvals ...any) {
	if l == nil {
		return
	}
	l.base.Error(msg, keyvals...)
}
