// Package log provides leveled, structured logging for fileflow on top of
// logrus. Package-level functions log through a shared logger that can be
// reconfigured with Configure; NewLogger builds independent instances.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	std = NewLogger()
)

// Field is a single structured key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Option configures a logger.
type Option func(*logrus.Logger)

// WithOutput sends log lines to w.
func WithOutput(w io.Writer) Option {
	return func(l *logrus.Logger) {
		l.SetOutput(w)
	}
}

// WithJSON switches to JSON formatted lines.
func WithJSON() Option {
	return func(l *logrus.Logger) {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	}
}

// WithLevel sets the minimum level ("debug", "info", "warn", "error").
// Unknown names leave the level unchanged.
func WithLevel(level string) Option {
	return func(l *logrus.Logger) {
		if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
			l.SetLevel(lvl)
		}
	}
}

// WithFile appends log lines to the file at path. If the file cannot be
// opened the previous output is kept.
func WithFile(path string) Option {
	return func(l *logrus.Logger) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			l.WithError(err).Warn("cannot open log file")
			return
		}
		l.SetOutput(f)
	}
}

// Logger wraps a logrus entry so fields accumulate across With calls.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger writing text lines to stdout at info level.
func NewLogger(opts ...Option) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	for _, opt := range opts {
		opt(l)
	}
	return &Logger{entry: logrus.NewEntry(l)}
}

// With returns a logger carrying the extra fields.
func (l *Logger) With(fields ...Field) *Logger {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(data)}
}

// WithError returns a logger carrying err under the "error" key. A nil
// error adds nothing.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{entry: l.entry.WithError(err)}
}

// SetDebug toggles debug output for this logger.
func (l *Logger) SetDebug(debug bool) {
	if debug {
		l.entry.Logger.SetLevel(logrus.DebugLevel)
		return
	}
	l.entry.Logger.SetLevel(logrus.InfoLevel)
}

func (l *Logger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *Logger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...interface{}) { l.entry.Error(args...) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// Configure replaces the shared logger.
func Configure(opts ...Option) {
	l := NewLogger(opts...)
	mu.Lock()
	std = l
	mu.Unlock()
}

func shared() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// SetDebug toggles debug output on the shared logger.
func SetDebug(debug bool) {
	shared().SetDebug(debug)
}

// SetOutput redirects the shared logger.
func SetOutput(w io.Writer) {
	shared().entry.Logger.SetOutput(w)
}

// LogWithFields returns the shared logger with fields attached.
func LogWithFields(fields ...Field) *Logger {
	return shared().With(fields...)
}

// LogWithError returns the shared logger with err attached.
func LogWithError(err error) *Logger {
	return shared().WithError(err)
}

// Info logs a formatted message
func Info(format string, args ...interface{}) {
	shared().Infof(format, args...)
}

// Infof is an alias for Info
func Infof(format string, args ...interface{}) {
	shared().Infof(format, args...)
}

// Debug logs a formatted message at debug level
func Debug(format string, args ...interface{}) {
	shared().Debugf(format, args...)
}

// Debugf is an alias for Debug
func Debugf(format string, args ...interface{}) {
	shared().Debugf(format, args...)
}

// Warn logs a formatted warning
func Warn(format string, args ...interface{}) {
	shared().Warnf(format, args...)
}

// Warnf is an alias for Warn
func Warnf(format string, args ...interface{}) {
	shared().Warnf(format, args...)
}

// Error logs a formatted error message
func Error(format string, args ...interface{}) {
	shared().Errorf(format, args...)
}

// Errorf is an alias for Error
func Errorf(format string, args ...interface{}) {
	shared().Errorf(format, args...)
}
