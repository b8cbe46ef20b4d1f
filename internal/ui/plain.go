package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer prints one line per event for pipes, CI logs and
// --no-tui runs. Output is append-only with no cursor movement.
type PlainRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

var _ Renderer = (*PlainRenderer)(nil)

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error { return nil }

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error { return nil }

func (r *PlainRenderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// UpdateProgress implements Renderer. Counted stages render as
// "[SCAN] 12/40 - path/to/file.md", stages without counts render the
// message alone.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := event.Message
	if msg == "" {
		msg = event.CurrentFile
	}

	switch {
	case event.Total > 0:
		r.printf("[%s] %d/%d - %s\n", event.Stage.Icon(), event.Current, event.Total, msg)
	case msg != "":
		r.printf("[%s] %s\n", event.Stage.Icon(), msg)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}
	if event.File != "" {
		r.printf("%s: %s: %v\n", prefix, event.File, event.Err)
	} else {
		r.printf("%s: %v\n", prefix, event.Err)
	}
}

// roundMs trims durations to a tenth of a second for display.
func roundMs(d time.Duration) time.Duration {
	return d.Round(100 * time.Millisecond)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := fmt.Sprintf("Complete: %d documents, %d terms in %s",
		stats.Documents, stats.Terms, roundMs(stats.Duration))
	if stats.Errors > 0 || stats.Warnings > 0 {
		summary += fmt.Sprintf(" (%d errors, %d warnings)", stats.Errors, stats.Warnings)
	}
	r.printf("%s\n", summary)

	if stats.Indexed > 0 || stats.Removed > 0 || stats.Skipped > 0 {
		r.printf("  indexed: %d, removed: %d, skipped: %d\n",
			stats.Indexed, stats.Removed, stats.Skipped)
	}

	r.printStageTimes(stats)
}

// printStageTimes lists per stage wall time once scan or extract ran
// long enough to register.
func (r *PlainRenderer) printStageTimes(stats CompletionStats) {
	if stats.Stages.Scan <= 0 && stats.Stages.Extract <= 0 {
		return
	}

	r.printf("\nStage Breakdown:\n")
	if stats.Stages.Reconcile > 0 {
		r.printf("  Reconcile: %s\n", roundMs(stats.Stages.Reconcile))
	}
	r.printf("  Scan:      %s\n", roundMs(stats.Stages.Scan))

	extract := fmt.Sprintf("  Extract:   %s", roundMs(stats.Stages.Extract))
	if stats.Stages.Extract > 0 && stats.Indexed > 0 {
		rate := float64(stats.Indexed) / stats.Stages.Extract.Seconds()
		extract += fmt.Sprintf(" (%d documents @ %.1f/sec)", stats.Indexed, rate)
	}
	r.printf("%s\n", extract)
	r.printf("  Save:      %s\n", roundMs(stats.Stages.Save))
}
