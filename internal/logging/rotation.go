package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
)

// RotatingWriter appends to a log file and shifts it to numbered backups
// (engine.log.1, engine.log.2, ...) once it grows past the size limit.
// It is safe for concurrent use.
type RotatingWriter struct {
	mu         sync.Mutex
	path       string
	maxBytes   int64
	maxBackups int
	file       *os.File
	size       int64
}

// NewRotatingWriter opens (or creates) path for appending.
// Non-positive limits fall back to 10 MB and 3 backups.
func NewRotatingWriter(path string, maxSizeMB, maxBackups int) (*RotatingWriter, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxSizeMB
	}
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	w := &RotatingWriter{
		path:       path,
		maxBytes:   int64(maxSizeMB) << 20,
		maxBackups: maxBackups,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write implements io.Writer.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size > 0 && w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the current log file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

func (w *RotatingWriter) rotate() error {
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}

	os.Remove(w.backup(w.maxBackups))
	for i := w.maxBackups - 1; i >= 1; i-- {
		os.Rename(w.backup(i), w.backup(i+1))
	}
	os.Rename(w.path, w.backup(1))

	return w.open()
}

func (w *RotatingWriter) backup(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

// Setup initialises logging from the given settings. When file is non-empty
// records go to both stderr and a rotating file; the returned closer releases
// the file and is never nil.
func Setup(format, level, file string, maxSizeMB, maxBackups int) (io.Closer, error) {
	if file == "" {
		Init(format, level, os.Stderr)
		return io.NopCloser(nil), nil
	}

	rw, err := NewRotatingWriter(file, maxSizeMB, maxBackups)
	if err != nil {
		Init(format, level, os.Stderr)
		return io.NopCloser(nil), err
	}
	Init(format, level, io.MultiWriter(os.Stderr, rw))
	return rw, nil
}
