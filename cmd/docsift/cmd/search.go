package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/docsift/docsift/internal/index"
	"github.com/docsift/docsift/internal/output"
	"github.com/docsift/docsift/internal/query"
	"github.com/docsift/docsift/internal/state"
	"github.com/docsift/docsift/internal/telemetry"
)

type searchOptions struct {
	state      string
	limit      int
	jsonOutput bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one query against the index",
		Long: `Run one query against the index and print the ranked results.

Every term in the query is scored against every indexed document with
TF-IDF; a document's score is the sum over the query terms. Documents
that match no term are omitted.

The index is reconciled against the filesystem before scoring, so
results reflect the files as they are now, but nothing is written
back to the state file.`,
		Example: `  # Single term
  docsift search shader

  # Multi-word queries need no quoting
  docsift search vertex buffer objects

  # Machine readable output
  docsift search --json framebuffer

  # Only the best three hits
  docsift search --limit 3 texture`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSearch(ctx, cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.state, "state", "", "State file path (default from config)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum results to print (default from config)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, queryText string, opts searchOptions) error {
	cfg, projectRoot, err := loadProjectConfig()
	if err != nil {
		return err
	}

	statePath := resolveStatePath(opts.state, cfg, projectRoot)
	if !state.Exists(statePath) {
		return fmt.Errorf("no index state at %s (run 'docsift index' first)", statePath)
	}

	coord := newCoordinator(statePath, cfg)
	if _, err := coord.LoadOrInit(ctx); err != nil {
		return err
	}

	// Reconcile so scores reflect the files as they are now. The
	// refreshed index stays in memory; searching never writes state.
	if _, err := coord.Reconcile(ctx, index.Callbacks{}); err != nil {
		return err
	}

	metrics := telemetry.NewQueryMetrics(telemetry.NewFileStore(telemetry.SidecarPath(statePath)))
	defer func() { _ = metrics.Close() }()

	engine := query.New(
		query.WithWorkers(cfg.Search.Workers),
		query.WithMetrics(metrics),
	)

	res, err := engine.Evaluate(ctx, coord.View(), queryText)
	if err != nil {
		return err
	}

	matches := query.Rank(res)
	limit := opts.limit
	if limit <= 0 {
		limit = cfg.Search.TopK
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	if opts.jsonOutput {
		return printSearchJSON(cmd.OutOrStdout(), queryText, matches)
	}
	printSearchText(cmd.OutOrStdout(), queryText, matches)
	return nil
}

func printSearchText(w io.Writer, queryText string, matches []query.Match) {
	out := output.New(w)

	if len(matches) == 0 {
		out.Statusf("", "No results found for %q", queryText)
		return
	}

	out.Statusf("", "Found %d results for %q:", len(matches), queryText)
	out.Newline()
	for i, m := range matches {
		fmt.Fprintf(w, "%d. %s (score: %.4f)\n", i+1, m.Path, m.Score)
	}
}

type searchResultJSON struct {
	Query   string            `json:"query"`
	Total   int               `json:"total"`
	Results []searchMatchJSON `json:"results"`
}

type searchMatchJSON struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

func printSearchJSON(w io.Writer, queryText string, matches []query.Match) error {
	result := searchResultJSON{
		Query:   queryText,
		Total:   len(matches),
		Results: make([]searchMatchJSON, 0, len(matches)),
	}
	for _, m := range matches {
		result.Results = append(result.Results, searchMatchJSON{Path: m.Path, Score: m.Score})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
