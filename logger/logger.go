// Package logger adapts logrus to the key-value Logger interface of the
// dissect package.
package logger

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Logger writes leveled, structured log lines.
type Logger struct {
	*log.Logger
}

// New returns a Logger backed by logrus writing to w at the given level.
func New(w io.Writer, level log.Level) *Logger {
	l := log.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.Formatter = &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
	return &Logger{l}
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", level)
	}
}

// Debug logs msg with key-value pairs at debug level.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.WithFields(fields(keysAndValues)).Debug(msg)
}

// Info logs msg with key-value pairs at info level.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.WithFields(fields(keysAndValues)).Info(msg)
}

// Error logs msg with key-value pairs at error level.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.WithFields(fields(keysAndValues)).Error(msg)
}

// fields pairs up keys and values. A dangling key gets a nil value.
func fields(keysAndValues []interface{}) log.Fields {
	f := make(log.Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 < len(keysAndValues) {
			f[key] = keysAndValues[i+1]
		} else {
			f[key] = nil
		}
	}
	return f
}
