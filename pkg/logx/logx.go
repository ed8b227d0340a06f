// Package logx is the service-wide leveled logger. A process has one
// global logger, configured from LOG_LEVEL and LOG_FORMAT at startup;
// call sites use the package functions or chain fields through With*.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level orders log severities. Messages below the configured level are
// dropped before formatting.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

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
	case LevelFatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

// ParseLevel maps a LOG_LEVEL value to a Level. Unknown values fall
// back to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Fields carries structured key/value pairs attached to an entry.
type Fields map[string]interface{}

// Logger writes formatted records to a single output.
type Logger struct {
	mu     sync.Mutex
	level  Level
	out    io.Writer
	format formatter
	exit   func(int)
}

// New builds a logger. A nil output defaults to stdout.
func New(level Level, format string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	var f formatter
	if strings.EqualFold(format, "json") {
		f = jsonFormatter{}
	} else {
		f = consoleFormatter{colors: true}
	}
	return &Logger{level: level, out: out, format: f, exit: os.Exit}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

func (l *Logger) write(level Level, msg string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	line := l.format.format(level, msg, fields)
	if _, err := l.out.Write(line); err != nil {
		fmt.Fprintf(os.Stderr, "logx: write failed: %v\n", err)
	}
}

// Entry accumulates fields before the final level call emits them.
type Entry struct {
	logger *Logger
	fields Fields
}

func (l *Logger) entry() *Entry {
	return &Entry{logger: l, fields: make(Fields)}
}

func (e *Entry) WithField(key string, value interface{}) *Entry {
	e.fields[key] = value
	return e
}

func (e *Entry) WithFields(fields Fields) *Entry {
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

func (e *Entry) WithError(err error) *Entry {
	if err != nil {
		e.fields["error"] = err.Error()
	}
	return e
}

func (e *Entry) Debug(msg string) { e.logger.write(LevelDebug, msg, e.fields) }
func (e *Entry) Info(msg string)  { e.logger.write(LevelInfo, msg, e.fields) }
func (e *Entry) Warn(msg string)  { e.logger.write(LevelWarn, msg, e.fields) }
func (e *Entry) Error(msg string) { e.logger.write(LevelError, msg, e.fields) }

func (e *Entry) Debugf(format string, args ...interface{}) {
	e.logger.write(LevelDebug, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Infof(format string, args ...interface{}) {
	e.logger.write(LevelInfo, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	e.logger.write(LevelWarn, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Errorf(format string, args ...interface{}) {
	e.logger.write(LevelError, fmt.Sprintf(format, args...), e.fields)
}

func (e *Entry) Fatalf(format string, args ...interface{}) {
	e.logger.write(LevelFatal, fmt.Sprintf(format, args...), e.fields)
	e.logger.exit(1)
}

// ---------------------------------------------------------------------------
// Global logger
// ---------------------------------------------------------------------------

var global = New(ParseLevel(os.Getenv("LOG_LEVEL")), os.Getenv("LOG_FORMAT"), os.Stdout)

// SetDefault replaces the global logger.
func SetDefault(l *Logger) { global = l }

// Default returns the global logger.
func Default() *Logger { return global }

// SetLevel adjusts the global logger's threshold.
func SetLevel(level Level) { global.SetLevel(level) }

func Debug(msg string) { global.write(LevelDebug, msg, nil) }
func Info(msg string)  { global.write(LevelInfo, msg, nil) }
func Warn(msg string)  { global.write(LevelWarn, msg, nil) }
func Error(msg string) { global.write(LevelError, msg, nil) }

func Debugf(format string, args ...interface{}) {
	global.write(LevelDebug, fmt.Sprintf(format, args...), nil)
}

func Infof(format string, args ...interface{}) {
	global.write(LevelInfo, fmt.Sprintf(format, args...), nil)
}

func Warnf(format string, args ...interface{}) {
	global.write(LevelWarn, fmt.Sprintf(format, args...), nil)
}

func Errorf(format string, args ...interface{}) {
	global.write(LevelError, fmt.Sprintf(format, args...), nil)
}

func Fatalf(format string, args ...interface{}) {
	global.write(LevelFatal, fmt.Sprintf(format, args...), nil)
	global.exit(1)
}

func WithField(key string, value interface{}) *Entry {
	return global.entry().WithField(key, value)
}

func WithFields(fields Fields) *Entry {
	return global.entry().WithFields(fields)
}

func WithError(err error) *Entry {
	return global.entry().WithError(err)
}
