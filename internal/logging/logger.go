// Package logging provides the leveled logger shared by the plugin runtime
// and the log panel that plugins and users read failures from.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
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
	default:
		return "UNKNOWN"
	}
}

// Tag returns the severity tag shown in the log panel.
func (l Level) Tag() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel parses a level name or panel tag into a Level.
// Unknown input yields LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Entry is one log record as delivered to sinks.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Fields  map[string]any
}

// Sink receives every record that passes the level filter.
type Sink interface {
	Record(e Entry)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(e Entry)

// Record implements Sink.
func (f SinkFunc) Record(e Entry) { f(e) }

// core is shared between a logger and the loggers derived from it.
type core struct {
	mu       sync.Mutex
	level    Level
	output   io.Writer
	prefix   string
	sinks    []Sink
	disabled bool
}

// Logger provides structured logging.
type Logger struct {
	c      *core
	fields map[string]any
}

// Config configures the logger.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// Output is where log lines are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is prepended to all log messages.
	Prefix string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
		Prefix: "vartexter",
	}
}

// New creates a new logger with the given configuration.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{
		c: &core{
			level:  cfg.Level,
			output: cfg.Output,
			prefix: cfg.Prefix,
		},
		fields: make(map[string]any),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	l := New(Config{Output: io.Discard})
	l.c.disabled = true
	return l
}

// WithField returns a new logger with the given field added.
// The new logger shares level, output and sinks with its parent.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields returns a new logger with the given fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	newFields := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	return &Logger{c: l.c, fields: newFields}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// AddSink registers a sink. Sinks are called in registration order.
func (l *Logger) AddSink(s Sink) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	l.c.sinks = append(l.c.sinks, s)
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	l.c.level = level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	l.c.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.Log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.Log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.Log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.Log(LevelError, msg, args...)
}

// Log writes a message at the given level if the level is enabled.
func (l *Logger) Log(level Level, msg string, args ...any) {
	l.c.mu.Lock()
	if l.c.disabled || level < l.c.level {
		l.c.mu.Unlock()
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	entry := Entry{
		Time:    time.Now(),
		Level:   level,
		Message: msg,
		Fields:  l.fields,
	}

	_, _ = io.WriteString(l.c.output, l.format(entry))
	sinks := make([]Sink, len(l.c.sinks))
	copy(sinks, l.c.sinks)
	l.c.mu.Unlock()

	// Sinks run unlocked so they may log themselves.
	for _, s := range sinks {
		s.Record(entry)
	}
}

func (l *Logger) format(e Entry) string {
	var b strings.Builder
	b.WriteString(e.Time.Format("2006-01-02T15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(e.Level.String())
	b.WriteString("] ")
	if l.c.prefix != "" {
		b.WriteString(l.c.prefix)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Fields[k])
		}
		b.WriteString("}")
	}

	b.WriteString("\n")
	return b.String()
}
