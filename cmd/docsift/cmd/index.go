package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/index"
	"github.com/docsift/docsift/internal/state"
	"github.com/docsift/docsift/internal/ui"
)

type indexOptions struct {
	state  string
	rescan bool
	noTUI  bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index [dir...]",
		Short: "Build or update the document index",
		Long: `Build or update the document index.

Directories given as arguments are walked and every supported file is
extracted and added. Without arguments an existing index is reconciled
against the filesystem: deleted files drop out, modified files are
re-extracted. A missing index is built from corpus.roots in the
project configuration.

The index is written to the state file when the run completes.`,
		Example: `  # Index a directory
  docsift index ./docs

  # Refresh the existing index
  docsift index

  # Also walk tracked directories for new files
  docsift index --rescan

  # Plain output for CI logs
  docsift index --no-tui ./manuals`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runIndex(ctx, cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.state, "state", "", "State file path (default from config)")
	cmd.Flags().BoolVar(&opts.rescan, "rescan", false, "Re-walk every tracked directory for new files")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "Disable the progress UI, print plain lines")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, args []string, opts indexOptions) error {
	cfg, projectRoot, err := loadProjectConfig()
	if err != nil {
		return err
	}

	statePath := resolveStatePath(opts.state, cfg, projectRoot)

	dirs := args
	if len(dirs) == 0 && !state.Exists(statePath) {
		dirs = resolveDirs(nil, cfg, projectRoot)
		if len(dirs) == 0 {
			return fmt.Errorf("nothing to index: no state file at %s, no directory arguments, and no corpus.roots configured", statePath)
		}
	}

	coord := newCoordinator(statePath, cfg)
	renderer := ui.NewRenderer(ui.NewConfig(statusOut(cmd),
		ui.WithForcePlain(opts.noTUI),
		ui.WithNoColor(noColorMode),
		ui.WithHeader(filepath.Base(statePath)),
	))

	runner, err := index.NewRunner(index.RunnerDependencies{
		Renderer:    renderer,
		Coordinator: coord,
	})
	if err != nil {
		return err
	}

	if err := renderer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start renderer: %w", err)
	}

	_, runErr := runner.Run(ctx, index.RunnerConfig{
		Dirs:   dirs,
		Rescan: opts.rescan,
	})
	if stopErr := renderer.Stop(); stopErr != nil && runErr == nil {
		runErr = stopErr
	}
	return runErr
}

// resolveDirs decides what a fresh index walks: explicit directories
// win, then corpus.roots from the configuration, then discovered
// documentation directories. Relative configured roots anchor at the
// project root.
func resolveDirs(explicit []string, cfg *config.Config, projectRoot string) []string {
	if len(explicit) > 0 {
		return explicit
	}

	dirs := make([]string, 0, len(cfg.Corpus.Roots))
	for _, root := range cfg.Corpus.Roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(projectRoot, root)
		}
		dirs = append(dirs, root)
	}

	if len(dirs) == 0 {
		for _, name := range config.DiscoverRoots(projectRoot) {
			dirs = append(dirs, filepath.Join(projectRoot, name))
		}
	}
	return dirs
}
