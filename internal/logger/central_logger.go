package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	// Embedded tzdata keeps time.LoadLocation working in minimal containers.
	_ "time/tzdata"

	"github.com/tphakala/birdview/internal/errors"
)

// traceLevelValue sits below slog.LevelDebug (-4).
const traceLevelValue = slog.Level(-8)

var (
	globalMu      sync.Mutex
	globalCentral *CentralLogger
)

// SetGlobal installs cl as the process-wide logger returned by Global.
func SetGlobal(cl *CentralLogger) {
	globalMu.Lock()
	globalCentral = cl
	globalMu.Unlock()
}

// Global returns the logger installed by SetGlobal, or an info-level console
// logger when none was installed yet.
func Global() *CentralLogger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalCentral == nil {
		globalCentral = &CentralLogger{
			defaultLevel: slog.LevelInfo,
			timezone:     time.Local,
			handler:      newTextHandler(os.Stdout, slog.LevelInfo, time.Local),
		}
	}
	return globalCentral
}

// CentralLogger owns the output handlers and hands out module loggers whose
// minimum level can be tuned per module.
type CentralLogger struct {
	mu           sync.RWMutex
	handler      slog.Handler
	file         *BufferedFileWriter
	timezone     *time.Location
	defaultLevel slog.Level
	moduleLevels map[string]slog.Level
}

// NewCentralLogger builds console and file outputs from cfg. Missing sections
// get defaults; with both outputs disabled, logs still go to stdout.
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging config cannot be nil")
	}
	applyConfigDefaults(cfg)

	tz := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", cfg.Timezone, err)
		}
		tz = loc
	}

	cl := &CentralLogger{
		timezone:     tz,
		defaultLevel: parseLogLevel(cfg.DefaultLevel),
		moduleLevels: make(map[string]slog.Level, len(cfg.ModuleLevels)),
	}
	for module, level := range cfg.ModuleLevels {
		cl.moduleLevels[module] = parseLogLevel(level)
	}

	var outputs []slog.Handler
	if cfg.Console.Enabled {
		outputs = append(outputs, newTextHandler(os.Stdout, parseLogLevel(cfg.Console.Level), tz))
	}
	if cfg.FileOutput.Enabled {
		h, err := cl.openFileOutput(cfg.FileOutput)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, h)
	}

	switch len(outputs) {
	case 0:
		cl.handler = newTextHandler(os.Stdout, cl.defaultLevel, tz)
	case 1:
		cl.handler = outputs[0]
	default:
		cl.handler = fanoutHandler(outputs)
	}
	return cl, nil
}

// openFileOutput creates the log directory and a JSON handler over the
// (optionally rotating) file writer.
func (cl *CentralLogger) openFileOutput(out *FileOutput) (slog.Handler, error) {
	if dir := filepath.Dir(out.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	w, err := NewFileWriter(out)
	if err != nil {
		return nil, fmt.Errorf("failed to create log writer: %w", err)
	}
	cl.file = w
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLogLevel(out.Level)}), nil
}

// Module returns a logger tagged with module=name.
func (cl *CentralLogger) Module(name string) Logger {
	if cl == nil {
		return nil
	}
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	level, ok := cl.moduleLevels[name]
	if !ok {
		level = cl.defaultLevel
	}
	return &moduleLogger{
		module:   name,
		logger:   slog.New(cl.handler),
		level:    level,
		timezone: cl.timezone,
	}
}

// Flush pushes buffered file output to the OS.
func (cl *CentralLogger) Flush() error {
	if cl == nil {
		return nil
	}
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	if cl.file == nil {
		return nil
	}
	if err := cl.file.Flush(); err != nil {
		return fmt.Errorf("failed to flush log file: %w", err)
	}
	return nil
}

// Close flushes, syncs and closes the log file. Further calls are no-ops.
func (cl *CentralLogger) Close() error {
	if cl == nil {
		return nil
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.file == nil {
		return nil
	}
	err := cl.file.Close()
	cl.file = nil
	if err != nil {
		return errors.New(fmt.Errorf("failed to close log file: %w", err)).
			Component("logger").
			Category(errors.CategoryFileIO).
			Build()
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch LogLevel(level) {
	case LogLevelTrace:
		return traceLevelValue
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanoutHandler sends each record to every output that accepts its level.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

//nolint:gocritic // slog.Handler passes records by value
func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
