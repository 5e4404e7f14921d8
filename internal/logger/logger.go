package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level
type Level int

const (
	// LevelDebug logs every evaluation
	LevelDebug Level = iota
	// LevelInfo logs lifecycle messages
	LevelInfo
	// LevelWarn logs failed evaluations and recoverable problems
	LevelWarn
	// LevelError logs errors
	LevelError
	// LevelNone disables all logging
	LevelNone
)

// String returns string representation of log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level, defaulting to LevelInfo
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "none", "off":
		return LevelNone
	default:
		return LevelInfo
	}
}

// Logger is a leveled, prefix-aware printf logger.
// Child loggers created with WithPrefix share the parent's sink and level.
type Logger struct {
	shared *sink
	prefix string
}

type sink struct {
	mu     sync.RWMutex
	level  Level
	out    *log.Logger
	closer io.Closer
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// Init initializes the global logger writing to logPath.
// Calling Init again replaces the previous global logger.
func Init(level Level, logPath string) error {
	l, err := New(level, logPath, "")
	if err != nil {
		return err
	}

	globalMu.Lock()
	prev := globalLogger
	globalLogger = l
	globalMu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// New creates a logger that appends to the file at logPath.
// An empty path or LevelNone yields a logger that discards everything.
func New(level Level, logPath string, prefix string) (*Logger, error) {
	if level == LevelNone || logPath == "" {
		return NewWriter(LevelNone, io.Discard, prefix), nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWriter(level, file, prefix)
	l.shared.closer = file
	return l, nil
}

// NewWriter creates a logger writing to w, e.g. os.Stderr or a test buffer.
func NewWriter(level Level, w io.Writer, prefix string) *Logger {
	return &Logger{
		shared: &sink{
			level: level,
			out:   log.New(w, "", 0),
		},
		prefix: prefix,
	}
}

// Global returns the global logger, a discarding one before Init
func Global() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger == nil {
		globalLogger = NewWriter(LevelNone, io.Discard, "")
	}
	return globalLogger
}

// WithPrefix creates a logger with an additional prefix, "parent:child"
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := prefix
	if l.prefix != "" {
		newPrefix = l.prefix + ":" + prefix
	}
	return &Logger{shared: l.shared, prefix: newPrefix}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.shared.mu.Lock()
	defer l.shared.mu.Unlock()
	l.shared.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() Level {
	l.shared.mu.RLock()
	defer l.shared.mu.RUnlock()
	return l.shared.level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.shared.mu.RLock()
	defer l.shared.mu.RUnlock()

	if l.shared.level == LevelNone || level < l.shared.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)

	prefix := ""
	if l.prefix != "" {
		prefix = "[" + l.prefix + "] "
	}

	l.shared.out.Printf("%s [%s] %s%s", timestamp, level.String(), prefix, msg)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Close closes the underlying log file, if any
func (l *Logger) Close() error {
	l.shared.mu.Lock()
	defer l.shared.mu.Unlock()

	if l.shared.closer == nil {
		return nil
	}
	err := l.shared.closer.Close()
	l.shared.closer = nil
	l.shared.level = LevelNone
	return err
}

// Debug logs a debug message using the global logger
func Debug(format string, args ...interface{}) {
	Global().Debug(format, args...)
}

// Info logs an informational message using the global logger
func Info(format string, args ...interface{}) {
	Global().Info(format, args...)
}

// Warn logs a warning message using the global logger
func Warn(format string, args ...interface{}) {
	Global().Warn(format, args...)
}

// Error logs an error message using the global logger
func Error(format string, args ...interface{}) {
	Global().Error(format, args...)
}
