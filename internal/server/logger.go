package server

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// Level orders log severities
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// DefaultLogger writes one timestamped line per entry
type DefaultLogger struct {
	logger *log.Logger
	min    Level
}

// NewDefaultLogger logs Info and above to stdout
func NewDefaultLogger() *DefaultLogger {
	return NewLogger(os.Stdout, LevelInfo)
}

// NewLogger logs entries at min or above to w
func NewLogger(w io.Writer, min Level) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(w, "", 0),
		min:    min,
	}
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

func (l *DefaultLogger) log(level Level, msg string, fields ...Field) {
	if level < l.min {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s: %s", time.Now().Format("2006-01-02 15:04:05.000"), level, msg)
	if len(fields) > 0 {
		sb.WriteString(" |")
		for _, f := range fields {
			fmt.Fprintf(&sb, " %s=%v", f.Key, sanitizeValue(f.Value))
		}
	}

	l.logger.Println(sb.String())
}

// Header values and paths come straight off the wire: cap and quote them.
func sanitizeValue(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if len(s) > 100 {
		s = s[:100] + "...[truncated]"
	}
	if strings.ContainsAny(s, " \r\n\t\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// NullLogger discards all logs (for testing)
type NullLogger struct{}

func (NullLogger) Debug(msg string, fields ...Field) {}
func (NullLogger) Info(msg string, fields ...Field)  {}
func (NullLogger) Warn(msg string, fields ...Field)  {}
func (NullLogger) Error(msg string, fields ...Field) {}
