package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docsift/docsift/internal/corpus"
	sifterrors "github.com/docsift/docsift/internal/errors"
	"github.com/docsift/docsift/internal/extract"
	"github.com/docsift/docsift/internal/lexer"
	"github.com/docsift/docsift/internal/scanner"
	"github.com/docsift/docsift/internal/state"
)

// DefaultMaxFileSize is the default maximum file size to index (100MB).
// Files larger than this are skipped to prevent memory exhaustion.
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// Config contains configuration for the Coordinator.
type Config struct {
	// StatePath is the path of the persisted index state file.
	StatePath string

	// Registry resolves files to text extractors.
	Registry *extract.Registry

	// Compress enables zstd compression of the saved state.
	Compress bool

	// LockTimeout bounds the wait for the state file lock.
	// Zero means the state package default.
	LockTimeout time.Duration

	// MaxFileSize is the maximum file size to index in bytes (optional).
	// Files larger than this are skipped with a warning.
	// Defaults to DefaultMaxFileSize if zero.
	MaxFileSize int64

	// Workers bounds parallel content extraction during a walk.
	// Zero means the CPU count.
	Workers int

	// IncludeHidden walks into dot-directories when set.
	IncludeHidden bool
}

// Callbacks surface per-file progress to the caller during long
// operations. All fields are optional; nil callbacks are skipped.
type Callbacks struct {
	// OnCheck fires once per known document during reconciliation.
	OnCheck func(done, total int, path string)

	// OnScan fires once per file discovered during a directory walk.
	OnScan func(n int, path string)

	// OnExtract fires once per candidate file during extraction.
	OnExtract func(done, total int, path string)

	// OnSkip fires when a file is skipped with a recoverable error.
	OnSkip func(path string, err error)
}

// AddStats summarizes one directory walk.
type AddStats struct {
	// Indexed is the number of documents extracted and added.
	Indexed int
	// UpToDate is the number of documents whose mtime was unchanged.
	UpToDate int
	// Skipped is the number of files passed over (unsupported, oversized).
	Skipped int
	// Failed is the number of files whose extraction failed.
	Failed int
}

// Add merges other into s.
func (s *AddStats) Add(other AddStats) {
	s.Indexed += other.Indexed
	s.UpToDate += other.UpToDate
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// ReconcileStats summarizes a reconciliation pass.
type ReconcileStats struct {
	// Checked is the number of documents examined.
	Checked int
	// Removed is the number of documents dropped because the file is gone.
	Removed int
	// Updated is the number of documents re-extracted after an mtime change.
	Updated int
	// Failed is the number of changed documents whose re-extraction failed.
	Failed int
}

// Coordinator owns the corpus index and keeps it in sync with both the
// filesystem and the state file. All mutating operations serialize on
// an internal mutex; queries read through Index().View() concurrently.
type Coordinator struct {
	cfg Config
	mu  sync.Mutex
	ix  *corpus.Index
}

// NewCoordinator creates a coordinator with an empty index.
func NewCoordinator(cfg Config) *Coordinator {
	return &Coordinator{
		cfg: cfg,
		ix:  corpus.NewIndex(),
	}
}

// Index returns the live corpus index.
func (c *Coordinator) Index() *corpus.Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ix
}

// View returns a read-only view of the current corpus for scoring.
func (c *Coordinator) View() *corpus.View {
	return c.Index().View()
}

// maxFileSize returns the effective maximum file size (uses default if not configured).
func (c *Coordinator) maxFileSize() int64 {
	if c.cfg.MaxFileSize > 0 {
		return c.cfg.MaxFileSize
	}
	return DefaultMaxFileSize
}

// LoadOrInit loads the state file when one exists, otherwise keeps the
// empty index. Returns true when an existing state was loaded.
func (c *Coordinator) LoadOrInit(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !state.Exists(c.cfg.StatePath) {
		slog.Debug("no existing state file, starting empty",
			slog.String("path", c.cfg.StatePath))
		return false, nil
	}

	dump, err := state.Load(ctx, c.cfg.StatePath, state.WithLockTimeout(c.cfg.LockTimeout))
	if err != nil {
		return false, err
	}

	ix, err := corpus.FromDump(dump)
	if err != nil {
		return false, err
	}
	c.ix = ix

	slog.Info("loaded index state",
		slog.String("path", c.cfg.StatePath),
		slog.Int("documents", ix.DocCount()),
		slog.Int("terms", ix.TermCount()))

	return true, nil
}

// Save persists the index to the state file.
func (c *Coordinator) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dump := c.ix.Dump()
	opts := []state.Option{
		state.WithCompression(c.cfg.Compress),
		state.WithLockTimeout(c.cfg.LockTimeout),
	}
	if err := state.Save(ctx, c.cfg.StatePath, dump, opts...); err != nil {
		return err
	}

	slog.Info("saved index state",
		slog.String("path", c.cfg.StatePath),
		slog.Int("documents", dump.DocCount),
		slog.Int("terms", len(dump.DocumentFrequency)))

	return nil
}

// AddDirectory walks dir and indexes every supported file under it.
// The directory becomes tracked only after the walk succeeds, so a
// failed walk never leaves a half-scanned root in the state.
func (c *Coordinator) AddDirectory(ctx context.Context, dir string, cb Callbacks) (AddStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	abs, err := filepath.Abs(dir)
	if err != nil {
		return AddStats{}, sifterrors.WalkError(fmt.Sprintf("failed to resolve %s", dir), err)
	}

	var stats AddStats
	if err := c.addTree(ctx, abs, cb, &stats); err != nil {
		return stats, err
	}
	c.ix.TrackDir(abs)

	slog.Info("directory indexed",
		slog.String("dir", abs),
		slog.Int("indexed", stats.Indexed),
		slog.Int("up_to_date", stats.UpToDate),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed))

	return stats, nil
}

// Rescan re-walks every tracked directory, indexing new and changed
// files. Tracked directories that no longer exist are skipped with a
// warning rather than aborting the whole pass.
func (c *Coordinator) Rescan(ctx context.Context, cb Callbacks) (AddStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats AddStats
	for _, dir := range c.ix.TrackedDirs() {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			slog.Warn("tracked directory missing, skipping rescan",
				slog.String("dir", dir))
			continue
		}

		var dirStats AddStats
		if err := c.addTree(ctx, dir, cb, &dirStats); err != nil {
			return stats, err
		}
		stats.Add(dirStats)
	}

	slog.Debug("rescan complete",
		slog.Int("indexed", stats.Indexed),
		slog.Int("up_to_date", stats.UpToDate))

	return stats, nil
}

// extractJob carries one file through the parallel extraction phase.
type extractJob struct {
	file *scanner.FileInfo
	text string
	err  error
}

// addTree scans root and indexes its candidate files. Caller holds the lock.
func (c *Coordinator) addTree(ctx context.Context, root string, cb Callbacks, stats *AddStats) error {
	files, err := scanner.New().Collect(ctx, &scanner.ScanOptions{
		Root:          root,
		IncludeHidden: c.cfg.IncludeHidden,
		Progress:      cb.OnScan,
	})
	if err != nil {
		return sifterrors.WalkError(fmt.Sprintf("failed to walk %s", root), err)
	}
	// Collect swallows cancellation to end its stream cleanly.
	if err := ctx.Err(); err != nil {
		return err
	}

	maxSize := c.maxFileSize()

	// Triage serially so skip decisions and stats stay deterministic.
	var jobs []*extractJob
	for _, f := range files {
		if !c.cfg.Registry.Supported(f.Path) {
			slog.Debug("skipping unsupported file", slog.String("path", f.Path))
			stats.Skipped++
			continue
		}

		if f.Size > maxSize {
			slog.Warn("skipping oversized file",
				slog.String("path", f.Path),
				slog.Int64("size", f.Size),
				slog.Int64("max", maxSize))
			stats.Skipped++
			continue
		}

		// Unchanged mtime means the indexed statistics are still valid.
		if last, ok := c.ix.LastModified(f.AbsPath); ok && last.Equal(f.ModTime) {
			stats.UpToDate++
			continue
		}

		jobs = append(jobs, &extractJob{file: f})
	}

	// Extract in bounded batches, applying each batch in file order so
	// extracted text is released before the next batch starts.
	total := len(jobs)
	done := 0
	batchSize := c.workers() * 4

	for start := 0; start < total; start += batchSize {
		batch := jobs[start:min(start+batchSize, total)]
		if err := c.extractBatch(ctx, batch); err != nil {
			return err
		}

		for _, job := range batch {
			done++
			if cb.OnExtract != nil {
				cb.OnExtract(done, total, job.file.Path)
			}

			if job.err != nil {
				slog.Warn("failed to extract file",
					slog.String("path", job.file.Path),
					slog.String("error", job.err.Error()))
				if cb.OnSkip != nil {
					cb.OnSkip(job.file.Path, job.err)
				}
				stats.Failed++
				continue
			}

			c.ix.AddDocument(job.file.AbsPath, lexer.New(job.text), job.file.ModTime)
			job.text = ""
			stats.Indexed++
		}
	}

	return nil
}

// extractBatch runs content extraction for the batch across the worker
// pool. Extraction failures are recoverable and land in the job slots;
// only cancellation aborts the batch.
func (c *Coordinator) extractBatch(ctx context.Context, jobs []*extractJob) error {
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, c.workers())

	for _, job := range jobs {
		job := job // Capture loop variable

		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			text, err := c.cfg.Registry.Extract(job.file.AbsPath)
			if err != nil {
				job.err = sifterrors.ExtractError(fmt.Sprintf("failed to extract %s", job.file.Path), err)
				return nil
			}
			job.text = text
			return nil
		})
	}

	return g.Wait()
}

func (c *Coordinator) workers() int {
	if c.cfg.Workers > 0 {
		return c.cfg.Workers
	}
	return runtime.NumCPU()
}

// Reconcile walks the known documents and brings the index in line with
// the filesystem: entries whose file is gone are removed, entries whose
// mtime changed are re-extracted. A failed re-extraction keeps the
// stale entry so a transient read error never silently shrinks the
// corpus.
func (c *Coordinator) Reconcile(ctx context.Context, cb Callbacks) (ReconcileStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats ReconcileStats
	paths := c.ix.Paths()
	total := len(paths)

	for i, path := range paths {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		stats.Checked++
		if cb.OnCheck != nil {
			cb.OnCheck(i+1, total, path)
		}

		info, err := os.Lstat(path)
		if errors.Is(err, fs.ErrNotExist) {
			c.ix.RemoveDocument(path)
			stats.Removed++
			slog.Debug("removed missing document", slog.String("path", path))
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		// A path that stopped being a regular file no longer belongs
		// in the corpus.
		if !info.Mode().IsRegular() {
			c.ix.RemoveDocument(path)
			stats.Removed++
			slog.Debug("removed non-regular document", slog.String("path", path))
			continue
		}

		last, _ := c.ix.LastModified(path)
		if info.ModTime().Equal(last) {
			continue
		}

		if err := c.indexFile(path, info.ModTime()); err != nil {
			slog.Warn("failed to re-extract changed document, keeping stale entry",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if cb.OnSkip != nil {
				cb.OnSkip(path, err)
			}
			stats.Failed++
			continue
		}
		stats.Updated++
	}

	if stats.Removed > 0 || stats.Updated > 0 {
		slog.Info("reconciliation complete",
			slog.Int("checked", stats.Checked),
			slog.Int("removed", stats.Removed),
			slog.Int("updated", stats.Updated),
			slog.Int("failed", stats.Failed))
	} else {
		slog.Debug("reconciliation found no changes",
			slog.Int("checked", stats.Checked))
	}

	return stats, nil
}

// indexFile extracts path and indexes its token stream. Caller holds the lock.
func (c *Coordinator) indexFile(path string, modTime time.Time) error {
	text, err := c.cfg.Registry.Extract(path)
	if err != nil {
		return sifterrors.ExtractError(fmt.Sprintf("failed to extract %s", path), err)
	}
	c.ix.AddDocument(path, lexer.New(text), modTime)
	return nil
}
