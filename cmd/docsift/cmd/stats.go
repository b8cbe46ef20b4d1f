package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docsift/docsift/internal/state"
	"github.com/docsift/docsift/internal/telemetry"
	"github.com/docsift/docsift/internal/ui"
)

type statsOptions struct {
	state      string
	jsonOutput bool
}

func newStatsCmd() *cobra.Command {
	var opts statsOptions

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index and query statistics",
		Long: `Show statistics about the index state file and recorded queries.

Index stats come from the state file itself; query stats come from the
metrics sidecar written by the query loop and the search command, when
one exists.`,
		Example: `  # Human readable summary
  docsift stats

  # Machine readable
  docsift stats --json

  # Against an explicit state file
  docsift stats --state /tmp/manuals.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runStats(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.state, "state", "", "State file path (default from config)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, opts statsOptions) error {
	cfg, projectRoot, err := loadProjectConfig()
	if err != nil {
		return err
	}

	statePath := resolveStatePath(opts.state, cfg, projectRoot)
	if !state.Exists(statePath) {
		return fmt.Errorf("no index state at %s (run 'docsift index' first)", statePath)
	}

	fileInfo, err := state.Describe(statePath)
	if err != nil {
		return err
	}

	dump, err := state.Load(ctx, statePath,
		state.WithLockTimeout(cfg.LockTimeoutDuration()))
	if err != nil {
		return err
	}

	// Query stats span every recorded session. A missing or unreadable
	// sidecar only loses this section.
	snap, err := telemetry.AggregateSnapshots(telemetry.SidecarPath(statePath))
	if err != nil {
		slog.Warn("metrics_sidecar_unreadable", slog.String("error", err.Error()))
		snap = nil
	}

	info := ui.StatusInfo{
		StatePath:   statePath,
		Documents:   dump.DocCount,
		Terms:       len(dump.DocumentFrequency),
		TrackedDirs: dump.TrackedDirs,
		SavedAt:     fileInfo.SavedAt,
		StateSize:   fileInfo.Size,
		Compressed:  fileInfo.Compressed,
		Queries:     queryStatsInfo(snap),
	}

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), noColorMode)
	if opts.jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

// queryStatsInfo converts a metrics snapshot for display. Nil in, nil
// out; an empty snapshot also renders as nothing.
func queryStatsInfo(snap *telemetry.Snapshot) *ui.QueryStatsInfo {
	if snap == nil || snap.TotalQueries == 0 {
		return nil
	}

	terms := make([]ui.TermStat, 0, len(snap.TopTerms))
	for _, tc := range snap.TopTerms {
		terms = append(terms, ui.TermStat{Term: tc.Term, Count: tc.Count})
	}

	return &ui.QueryStatsInfo{
		Total:         snap.TotalQueries,
		ZeroResultPct: snap.ZeroResultPercentage(),
		RepeatRate:    snap.ExactRepeatRate,
		TopTerms:      terms,
		Since:         snap.Since,
	}
}
