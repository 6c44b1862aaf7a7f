// Package logger provides a structured, module-aware logging system built on Go's standard log/slog.
//
// Components receive a Logger and scope it to their own module:
//
//	centralLogger, err := logger.NewCentralLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer centralLogger.Close()
//
//	datasetLog := centralLogger.Module("dataset")
//	datasetLog.Info("Loaded observation table",
//	    logger.String("habitat", "forest"),
//	    logger.Int("rows", 8546))
//
// Sub-modules are joined with a dot, so centralLogger.Module("dataset").Module("sql")
// logs with module="dataset.sql".
//
// Console output is human-readable text without timestamps, file output is JSON with
// RFC3339 timestamps. Use NewSlogLogger with io.Discard or a bytes.Buffer in tests.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
	"unique"
)

// LogLevel is a level name as written in config.yaml.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const (
	moduleKey  = "module"
	traceIDKey = "trace_id"
)

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value any
}

func internKey(key string) string {
	return unique.Make(key).Value()
}

var errorKey = internKey("error")

// Logger is passed to every component; tests use NewSlogLogger.
type Logger interface {
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger

	Log(level LogLevel, msg string, fields ...Field)
	Flush() error
}

// Field constructors. Keys are interned since the same few keys (habitat,
// rows, error) repeat on nearly every record.

func String(key, value string) Field { return Field{Key: internKey(key), Value: value} }
func Int(key string, value int) Field { return Field{Key: internKey(key), Value: value} }
func Int64(key string, value int64) Field { return Field{Key: internKey(key), Value: value} }
func Bool(key string, value bool) Field { return Field{Key: internKey(key), Value: value} }
func Time(key string, value time.Time) Field { return Field{Key: internKey(key), Value: value} }
func Any(key string, value any) Field { return Field{Key: internKey(key), Value: value} }

// Float64 values are rounded to three decimals when written.
func Float64(key string, value float64) Field { return Field{Key: internKey(key), Value: value} }

// Strings logs a list such as the columns missing from a table.
func Strings(key string, values []string) Field { return Field{Key: internKey(key), Value: values} }

// Duration is rendered as a string, e.g. "1.5s".
func Duration(key string, value time.Duration) Field {
	return Field{Key: internKey(key), Value: value.String()}
}

// Error always uses the key "error"; a nil err logs a nil value.
func Error(err error) Field {
	if err == nil {
		return Field{Key: errorKey}
	}
	return Field{Key: errorKey, Value: err.Error()}
}

// NewSlogLogger creates a standalone Logger writing text to w.
// A nil writer means os.Stdout and a nil timezone means time.Local.
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	if w == nil {
		w = os.Stdout
	}
	if tz == nil {
		tz = time.Local
	}
	slogLevel := parseSlogLevel(level)
	return &moduleLogger{
		logger:   slog.New(newTextHandler(w, slogLevel, tz)),
		level:    slogLevel,
		timezone: tz,
	}
}

func parseSlogLevel(level LogLevel) slog.Level {
	return parseLogLevel(string(level))
}
