package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultBufferSize for file writes (32KB)
const DefaultBufferSize = 32 * 1024

// BufferedFileWriter wraps a log file with buffered, mutex-protected I/O.
type BufferedFileWriter struct {
	mu     sync.Mutex
	out    io.WriteCloser
	writer *bufio.Writer
	closed bool
}

// NewBufferedFileWriter opens (or creates) path for appending.
func NewBufferedFileWriter(path string) (*BufferedFileWriter, error) {
	const filePermissions = 0o600
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return newBufferedWriter(f), nil
}

// NewFileWriter returns a writer for the file output section. A positive
// MaxSizeMB rotates the file through lumberjack; otherwise the file grows
// without bound.
func NewFileWriter(cfg *FileOutput) (*BufferedFileWriter, error) {
	if cfg.MaxSizeMB <= 0 {
		return NewBufferedFileWriter(cfg.Path)
	}
	return newBufferedWriter(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}), nil
}

func newBufferedWriter(out io.WriteCloser) *BufferedFileWriter {
	return &BufferedFileWriter{
		out:    out,
		writer: bufio.NewWriterSize(out, DefaultBufferSize),
	}
}

// Write implements io.Writer.
func (w *BufferedFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, errors.New("write to closed log writer")
	}
	return w.writer.Write(p)
}

// Flush writes buffered data to the OS.
func (w *BufferedFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.writer.Flush()
}

// Close flushes, syncs when the output supports it, and closes. It is safe
// to call twice.
func (w *BufferedFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	errs := []error{w.writer.Flush()}
	if s, ok := w.out.(interface{ Sync() error }); ok {
		errs = append(errs, s.Sync())
	}
	errs = append(errs, w.out.Close())
	return errors.Join(errs...)
}
