package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RotatingWriter writes to files that rotate each UTC day and when a write
// would push the current file past MaxBytes.
//
// Given basePath logs/turnledger.log, output files are named
// logs/turnledger-2026-08-31.log, logs/turnledger-2026-08-31-2.log, ...
type RotatingWriter struct {
	basePath string
	maxBytes int64

	mu      sync.Mutex
	day     string // YYYY-MM-DD of the open file
	index   int    // 1-based same-day rollover index
	file    *os.File
	written int64
}

// NewRotatingWriter creates a rotating writer using basePath as the logical
// log file. A basePath of "-" discards all output.
func NewRotatingWriter(basePath string, maxBytes int64) (io.WriteCloser, error) {
	if strings.TrimSpace(basePath) == "-" {
		return nopWriteCloser{io.Discard}, nil
	}
	w := &RotatingWriter{basePath: basePath, maxBytes: maxBytes}
	if err := w.rotate(0); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.rotate(int64(len(p))); err != nil {
		return 0, err
	}
	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

// Close closes the current file.
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

// rotate opens a new file when the UTC day changed or pending bytes would
// exceed maxBytes. Must be called with the lock held.
func (w *RotatingWriter) rotate(pending int64) error {
	today := time.Now().UTC().Format("2006-01-02")

	switch {
	case w.file == nil, w.day != today:
		w.day = today
		w.index = 1
	case w.maxBytes > 0 && w.written+pending > w.maxBytes:
		w.index++
	default:
		return nil
	}

	if w.file != nil {
		_ = w.file.Close()
	}

	path := w.currentPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.written = info.Size()
	return nil
}

func (w *RotatingWriter) currentPath() string {
	ext := filepath.Ext(w.basePath)
	prefix := strings.TrimSuffix(w.basePath, ext)
	if ext == "" {
		ext = ".log"
	}
	if w.index <= 1 {
		return fmt.Sprintf("%s-%s%s", prefix, w.day, ext)
	}
	return fmt.Sprintf("%s-%s-%d%s", prefix, w.day, w.index, ext)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
