// Package index orchestrates corpus maintenance: walking directories,
// extracting documents, reconciling against the filesystem, and moving
// index state to and from disk.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docsift/docsift/internal/ui"
)

// RunnerConfig configures an indexing run.
type RunnerConfig struct {
	// Dirs are additional directories to index. Empty means none.
	Dirs []string

	// Rescan re-walks every tracked directory looking for new and
	// changed files.
	Rescan bool
}

// RunnerResult contains the outcome of an indexing run.
type RunnerResult struct {
	// Documents is the corpus document count after the run.
	Documents int

	// Terms is the number of distinct terms in the corpus.
	Terms int

	// Indexed is the number of documents extracted this run.
	Indexed int

	// Removed is the number of stale documents dropped.
	Removed int

	// UpToDate is the number of documents left untouched.
	UpToDate int

	// Skipped is the number of files passed over.
	Skipped int

	// Duration is the total run time.
	Duration time.Duration

	// Warnings is the count of non-fatal warnings.
	Warnings int

	// Loaded indicates whether an existing state file was found.
	Loaded bool
}

// RunnerDependencies contains the injected dependencies for Runner.
type RunnerDependencies struct {
	// Renderer for progress display (required).
	Renderer ui.Renderer

	// Coordinator owning the index (required).
	Coordinator *Coordinator
}

// Runner executes the indexing pipeline with progress reporting.
// It accepts injected dependencies for testability and reusability.
type Runner struct {
	renderer ui.Renderer
	coord    *Coordinator
}

// NewRunner creates a Runner with injected dependencies.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if deps.Coordinator == nil {
		return nil, fmt.Errorf("coordinator is required")
	}

	return &Runner{
		renderer: deps.Renderer,
		coord:    deps.Coordinator,
	}, nil
}

// stageTiming tracks duration for each indexing stage.
type stageTiming struct {
	reconcile time.Duration
	scan      time.Duration
	extract   time.Duration
	save      time.Duration
}

// Run executes the full indexing pipeline: load state, reconcile known
// documents, walk the requested directories, save.
func (r *Runner) Run(ctx context.Context, cfg RunnerConfig) (*RunnerResult, error) {
	startTime := time.Now()
	var warnCount int
	var timing stageTiming

	loaded, err := r.coord.LoadOrInit(ctx)
	if err != nil {
		return nil, err
	}

	// Scan time ends when the first extraction callback fires; an
	// empty walk charges everything to the scan stage.
	walkStart := time.Now()
	var extractStart time.Time

	cb := Callbacks{
		OnCheck: func(done, total int, path string) {
			r.renderer.UpdateProgress(ui.ProgressEvent{
				Stage:       ui.StageReconciling,
				Current:     done,
				Total:       total,
				CurrentFile: path,
			})
		},
		OnScan: func(n int, path string) {
			r.renderer.UpdateProgress(ui.ProgressEvent{
				Stage:       ui.StageScanning,
				Current:     n,
				CurrentFile: path,
			})
		},
		OnExtract: func(done, total int, path string) {
			if extractStart.IsZero() {
				extractStart = time.Now()
			}
			r.renderer.UpdateProgress(ui.ProgressEvent{
				Stage:       ui.StageExtracting,
				Current:     done,
				Total:       total,
				CurrentFile: path,
			})
		},
		OnSkip: func(path string, err error) {
			warnCount++
			r.renderer.AddError(ui.ErrorEvent{
				File:   path,
				Err:    err,
				IsWarn: true,
			})
		},
	}

	// Stage 1: reconcile known documents against the filesystem.
	var rec ReconcileStats
	if loaded {
		recStart := time.Now()
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageReconciling,
			Message: "Checking known documents...",
		})
		rec, err = r.coord.Reconcile(ctx, cb)
		if err != nil {
			return nil, err
		}
		timing.reconcile = time.Since(recStart)
		walkStart = time.Now()
	}

	// Stage 2: walk directories.
	var add AddStats
	if cfg.Rescan {
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageScanning,
			Message: "Rescanning tracked directories...",
		})
		rescanStats, err := r.coord.Rescan(ctx, cb)
		if err != nil {
			return nil, err
		}
		add.Add(rescanStats)
	}

	for _, dir := range cfg.Dirs {
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageScanning,
			Message: fmt.Sprintf("Scanning %s...", dir),
		})
		dirStats, err := r.coord.AddDirectory(ctx, dir, cb)
		if err != nil {
			return nil, err
		}
		add.Add(dirStats)
	}

	if extractStart.IsZero() {
		timing.scan = time.Since(walkStart)
	} else {
		timing.scan = extractStart.Sub(walkStart)
		timing.extract = time.Since(extractStart)
	}

	// Stage 3: save the state file.
	saveStart := time.Now()
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageSaving,
		Message: "Saving index state...",
	})
	if err := r.coord.Save(ctx); err != nil {
		return nil, err
	}
	timing.save = time.Since(saveStart)

	duration := time.Since(startTime)
	ix := r.coord.Index()
	documents := ix.DocCount()
	terms := ix.TermCount()
	indexed := add.Indexed + rec.Updated

	r.renderer.Complete(ui.CompletionStats{
		Documents: documents,
		Terms:     terms,
		Indexed:   indexed,
		Removed:   rec.Removed,
		Skipped:   add.Skipped,
		Duration:  duration,
		Warnings:  warnCount,
		Stages: ui.StageTimings{
			Reconcile: timing.reconcile,
			Scan:      timing.scan,
			Extract:   timing.extract,
			Save:      timing.save,
		},
	})

	docsPerSec := 0.0
	if timing.extract.Seconds() > 0 {
		docsPerSec = float64(indexed) / timing.extract.Seconds()
	}

	slog.Info("index_run_complete",
		slog.Int("documents", documents),
		slog.Int("terms", terms),
		slog.Int("indexed", indexed),
		slog.Int("removed", rec.Removed),
		slog.Int("up_to_date", add.UpToDate),
		slog.Int("skipped", add.Skipped),
		slog.String("duration_total", duration.String()),
		slog.Int64("duration_total_ms", duration.Milliseconds()),
		slog.Int64("duration_reconcile_ms", timing.reconcile.Milliseconds()),
		slog.Int64("duration_scan_ms", timing.scan.Milliseconds()),
		slog.Int64("duration_extract_ms", timing.extract.Milliseconds()),
		slog.Int64("duration_save_ms", timing.save.Milliseconds()),
		slog.Float64("docs_per_sec", docsPerSec))

	return &RunnerResult{
		Documents: documents,
		Terms:     terms,
		Indexed:   indexed,
		Removed:   rec.Removed,
		UpToDate:  add.UpToDate,
		Skipped:   add.Skipped,
		Duration:  duration,
		Warnings:  warnCount,
		Loaded:    loaded,
	}, nil
}
