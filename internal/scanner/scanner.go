package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Scanner walks corpus directories. Safe for concurrent use.
type Scanner struct{}

// New creates a new Scanner instance.
func New() *Scanner {
	return &Scanner{}
}

// Scan walks the root directory and streams every regular file over the
// returned channel in lexicographic path order. The channel is closed
// when the walk completes.
//
// Unlike lenient walkers, an I/O error enumerating a directory or
// statting an entry aborts the walk: the error is delivered as the final
// ScanResult and nothing after it is reported. Partial results before
// the failure have already been sent.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = new(ScanOptions)
	}
	root, err := resolveRoot(opts)
	if err != nil {
		return nil, err
	}

	results := make(chan ScanResult, 64)
	go func() {
		defer close(results)
		s.walk(ctx, root, opts, results)
	}()
	return results, nil
}

// Collect runs Scan and gathers all files into a slice. The first walk
// error aborts and is returned.
func (s *Scanner) Collect(ctx context.Context, opts *ScanOptions) ([]*FileInfo, error) {
	results, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	var files []*FileInfo
	for r := range results {
		if r.Error != nil {
			return nil, r.Error
		}
		files = append(files, r.File)
	}
	return files, nil
}

// resolveRoot validates the walk root and returns it as an absolute
// path. An empty root means the current directory.
func resolveRoot(opts *ScanOptions) (string, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	switch {
	case err != nil:
		return "", fmt.Errorf("failed to stat root: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("root %s is not a directory", abs)
	}
	return abs, nil
}

// walk performs the traversal. filepath.WalkDir visits entries in
// lexical order within each directory, which makes the stream
// deterministic for a given tree.
func (s *Scanner) walk(ctx context.Context, root string, opts *ScanOptions, results chan<- ScanResult) {
	scanned := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		if walkErr != nil {
			// Enumeration or stat failure aborts the whole walk.
			return fmt.Errorf("failed to walk %s: %w", path, walkErr)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if !opts.IncludeHidden && isHidden(d.Name()) {
				slog.Debug("skipping hidden directory", slog.String("path", rel))
				return filepath.SkipDir
			}
			return nil
		}

		// DirEntry modes come from Lstat, so a symlink shows its own
		// type rather than its target's. Links are never followed.
		if !d.Type().IsRegular() {
			if d.Type()&fs.ModeSymlink != 0 {
				slog.Debug("skipping symlink", slog.String("path", rel))
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		scanned++
		if opts.Progress != nil {
			opts.Progress(scanned, rel)
		}

		return send(ctx, results, ScanResult{File: &FileInfo{
			Path:    rel,
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}})
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		_ = send(ctx, results, ScanResult{Error: err})
	}
}

// ctxErr reports a pending cancellation without blocking.
func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// send delivers one result unless the walk is being cancelled.
func send(ctx context.Context, results chan<- ScanResult, r ScanResult) error {
	select {
	case results <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isHidden reports whether a name is a dot-entry like .git or .cache.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
