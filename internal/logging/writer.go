package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotatingWriter appends to a log file and rolls it over once it
// crosses a size limit. Backups are numbered, newest first:
// docsift.log.1 is the most recent rolled file, docsift.log.N the
// oldest still kept.
type RotatingWriter struct {
	dest  string
	limit int64 // bytes; <= 0 rolls on every write
	keep  int   // rolled files retained

	mu   sync.Mutex
	f    *os.File
	size int64
}

// NewRotatingWriter opens (creating if needed) the log file at path.
// maxSizeMB is the rollover threshold, maxFiles how many rolled
// backups survive.
func NewRotatingWriter(path string, maxSizeMB, maxFiles int) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &RotatingWriter{
		dest:  path,
		limit: int64(maxSizeMB) << 20,
		keep:  maxFiles,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends p, rolling the file first when it would push the size
// past the limit. Each write is synced so tail -f keeps up.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.limit {
		if err := w.roll(); err != nil {
			// A failed roll should not lose log lines. Keep appending
			// to whatever file is open and report once on stderr.
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
			if w.f == nil {
				if err := w.open(); err != nil {
					return 0, err
				}
			}
		}
	}

	n, err := w.f.Write(p)
	w.size += int64(n)
	if err == nil {
		_ = w.f.Sync()
	}
	return n, err
}

// Sync flushes the current file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

// Close closes the current file. The writer is unusable afterwards.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.f = f
	w.size = st.Size()
	return nil
}

// backup returns the path of the n-th rolled file.
func (w *RotatingWriter) backup(n int) string {
	return fmt.Sprintf("%s.%d", w.dest, n)
}

// roll shifts every backup up one slot, moves the live file into
// slot 1 and reopens a fresh one. The shift runs oldest-first so a
// rename never lands on an occupied name.
func (w *RotatingWriter) roll() error {
	if w.f != nil {
		if err := w.f.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		w.f = nil
	}

	_ = os.Remove(w.backup(w.keep))
	for n := w.keep - 1; n >= 1; n-- {
		if _, err := os.Stat(w.backup(n)); err == nil {
			_ = os.Rename(w.backup(n), w.backup(n+1))
		}
	}

	if _, err := os.Stat(w.dest); err == nil {
		if err := os.Rename(w.dest, w.backup(1)); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	w.size = 0
	return w.open()
}
