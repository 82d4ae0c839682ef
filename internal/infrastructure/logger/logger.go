// Package logger provides the structured JSON logger used across the widget
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of a log message
type Level string

const (
	// DebugLevel is used for cache and upstream traces
	DebugLevel Level = "DEBUG"
	// InfoLevel is used for general operational information
	InfoLevel Level = "INFO"
	// WarnLevel is used for failures the user can recover from
	WarnLevel Level = "WARN"
	// ErrorLevel is used for errors and unexpected events
	ErrorLevel Level = "ERROR"
	// FatalLevel is used for startup failures that require termination
	FatalLevel Level = "FATAL"
)

var levelRank = map[Level]int{
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
	FatalLevel: 4,
}

// ParseLevel converts a config string such as "debug" into a Level.
// Unknown values fall back to InfoLevel.
func ParseLevel(s string) Level {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRank[level]; ok {
		return level
	}
	return InfoLevel
}

// Logger defines the interface for the application logger
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// JSONLogger writes one JSON object per line
type JSONLogger struct {
	output io.Writer
	mu     *sync.Mutex
	level  Level
	fields map[string]interface{}
}

// NewJSONLogger creates a new JSON logger writing to output (stdout when nil)
func NewJSONLogger(output io.Writer, level Level) *JSONLogger {
	if output == nil {
		output = os.Stdout
	}
	if _, ok := levelRank[level]; !ok {
		level = InfoLevel
	}

	return &JSONLogger{
		output: output,
		mu:     &sync.Mutex{},
		level:  level,
		fields: map[string]interface{}{},
	}
}

// WithField returns a child logger carrying key on every record
func (l *JSONLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a child logger carrying fields on every record
func (l *JSONLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &JSONLogger{
		output: l.output,
		mu:     l.mu,
		level:  l.level,
		fields: merged,
	}
}

// Debug logs a message at debug level
func (l *JSONLogger) Debug(msg string, fields map[string]interface{}) {
	l.log(DebugLevel, msg, fields)
}

// Info logs a message at info level
func (l *JSONLogger) Info(msg string, fields map[string]interface{}) {
	l.log(InfoLevel, msg, fields)
}

// Warn logs a message at warn level
func (l *JSONLogger) Warn(msg string, fields map[string]interface{}) {
	l.log(WarnLevel, msg, fields)
}

// Error logs a message at error level
func (l *JSONLogger) Error(msg string, fields map[string]interface{}) {
	l.log(ErrorLevel, msg, fields)
}

// Fatal logs a message at fatal level and then terminates the program
func (l *JSONLogger) Fatal(msg string, fields map[string]interface{}) {
	l.log(FatalLevel, msg, fields)
	os.Exit(1)
}

// Enabled reports whether records at level are written
func (l *JSONLogger) Enabled(level Level) bool {
	return levelRank[level] >= levelRank[l.level]
}

func (l *JSONLogger) log(level Level, msg string, fields map[string]interface{}) {
	if !l.Enabled(level) {
		return
	}

	// Skip log and the exported level method
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	}

	record := make(map[string]interface{}, len(l.fields)+len(fields)+5)
	for k, v := range l.fields {
		record[k] = v
	}
	for k, v := range fields {
		record[k] = v
	}
	record["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	record["level"] = level
	record["message"] = msg
	record["file"] = file
	record["line"] = line

	data, err := json.Marshal(record)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"level":"ERROR","message":"failed to marshal log entry","error":%q}`, err.Error()))
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.output.Write(data); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log entry: %s\n", err)
	}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = NewJSONLogger(os.Stdout, InfoLevel)
)

// GetDefaultLogger returns the process-wide logger
func GetDefaultLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger; nil is ignored
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// OrDefault returns log, or the default logger when log is nil
func OrDefault(log Logger) Logger {
	if log == nil {
		return GetDefaultLogger()
	}
	return log
}
