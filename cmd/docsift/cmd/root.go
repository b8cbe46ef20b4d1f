// Package cmd provides the CLI commands for docsift.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/extract"
	"github.com/docsift/docsift/internal/index"
	"github.com/docsift/docsift/internal/logging"
	"github.com/docsift/docsift/internal/query"
	"github.com/docsift/docsift/internal/repl"
	"github.com/docsift/docsift/internal/state"
	"github.com/docsift/docsift/internal/telemetry"
	"github.com/docsift/docsift/internal/ui"
	"github.com/docsift/docsift/pkg/version"
)

// Persistent flags shared by every command.
var (
	debugMode      bool
	noColorMode    bool
	quietMode      bool
	logLevelFlag   string
	logFileFlag    string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the docsift CLI.
func NewRootCmd() *cobra.Command {
	var (
		dirs   []string
		rescan bool
		topK   int
	)

	cmd := &cobra.Command{
		Use:   "docsift [state-file]",
		Short: "TF-IDF search over local document collections",
		Long: `Docsift indexes directories of documents (text, markdown, XML, PDF)
and ranks them against free-text queries using TF-IDF scoring.

Run 'docsift' with no arguments to open the interactive query loop:
an existing index is loaded and reconciled against the filesystem, a
missing one is built from your configured document roots. Every query
prints the highest scoring documents; ':quit' (or Ctrl-D) saves the
index and exits.

The optional state-file argument overrides where the index lives.`,
		Example: `  # Interactive search in the current project
  docsift

  # Interactive search against an explicit state file
  docsift /tmp/manuals.json

  # First run over a specific directory
  docsift --dir ./docs

  # Pick up files created since the last save
  docsift --rescan`,
		Version: version.Version,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var stateArg string
			if len(args) > 0 {
				stateArg = args[0]
			}
			return runQueryLoop(ctx, cmd, stateArg, dirs, rescan, topK)
		},
	}

	cmd.SetVersionTemplate("docsift version {{.Version}}\n")

	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "Directory to index when starting fresh (repeatable)")
	cmd.Flags().BoolVar(&rescan, "rescan", false, "Re-walk tracked directories before the first prompt")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Results shown per query (default from config)")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging (mirrored to stderr)")
	cmd.PersistentFlags().BoolVar(&noColorMode, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVar(&quietMode, "quiet", false, "Suppress progress and status output")
	cmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Log file path (default from config)")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRunE = teardownLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging routes slog to the configured log file. Interactive
// commands share stdout with the prompt, so nothing is written to
// stderr unless --debug asks for it.
func setupLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()

	if root, err := projectDir(); err == nil {
		// An unloadable config is reported by the command itself, not
		// by the logging hook.
		if cfg, err := config.Load(root); err == nil {
			logCfg.Level = cfg.Log.Level
			logCfg.Format = cfg.Log.Format
			if cfg.Log.File != "" {
				logCfg.FilePath = cfg.Log.File
			}
		}
	}

	if logLevelFlag != "" {
		logCfg.Level = logLevelFlag
	}
	if logFileFlag != "" {
		logCfg.FilePath = logFileFlag
	}
	// --debug wins over --log-level.
	if debugMode {
		logCfg.Level = "debug"
		logCfg.WriteToStderr = true
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	if debugMode {
		slog.Info("debug_logging_enabled", slog.String("log_file", logCfg.FilePath))
	}
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// projectDir resolves the project root for the current working
// directory. Outside any project it falls back to the directory
// itself, so commands still work on loose document trees.
func projectDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return cwd, nil
	}
	return root, nil
}

// loadProjectConfig loads the layered configuration for the project
// containing the current directory.
func loadProjectConfig() (*config.Config, string, error) {
	root, err := projectDir()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

// resolveStatePath picks the state file for this invocation: an
// explicit override wins, otherwise the configured path anchored at
// the project root.
func resolveStatePath(override string, cfg *config.Config, projectRoot string) string {
	if override != "" {
		return override
	}
	path := cfg.StatePath
	if path == "" {
		path = config.DefaultStatePath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectRoot, path)
	}
	return path
}

// newCoordinator builds the index coordinator all commands share.
func newCoordinator(statePath string, cfg *config.Config) *index.Coordinator {
	return index.NewCoordinator(index.Config{
		StatePath:     statePath,
		Registry:      extract.DefaultRegistry().Restrict(cfg.Corpus.Extensions),
		Compress:      cfg.State.Compress,
		LockTimeout:   cfg.LockTimeoutDuration(),
		MaxFileSize:   cfg.MaxFileSizeBytes(),
		Workers:       cfg.Index.Workers,
		IncludeHidden: cfg.Corpus.IncludeHidden,
	})
}

// runQueryLoop implements the default command: make sure an index
// exists and is current, then hand the terminal to the query loop.
func runQueryLoop(ctx context.Context, cmd *cobra.Command, stateArg string, dirs []string, rescan bool, topK int) error {
	cfg, projectRoot, err := loadProjectConfig()
	if err != nil {
		return err
	}

	statePath := resolveStatePath(stateArg, cfg, projectRoot)
	fresh := !state.Exists(statePath)

	var walkDirs []string
	if fresh {
		walkDirs = resolveDirs(dirs, cfg, projectRoot)
		if len(walkDirs) == 0 {
			return fmt.Errorf("no index state at %s and no directories to index: pass --dir, or set corpus.roots in .docsift.yaml", statePath)
		}
	} else {
		// Tracked directories cover reloads; explicit --dir still adds
		// new ground.
		walkDirs = dirs
	}

	coord := newCoordinator(statePath, cfg)
	renderer := ui.NewRenderer(ui.NewConfig(statusOut(cmd),
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
		Dirs:   walkDirs,
		Rescan: rescan || cfg.Index.RescanOnLoad,
	})
	if stopErr := renderer.Stop(); stopErr != nil && runErr == nil {
		runErr = stopErr
	}
	if runErr != nil {
		return runErr
	}

	metrics := telemetry.NewQueryMetrics(telemetry.NewFileStore(telemetry.SidecarPath(statePath)))
	defer func() { _ = metrics.Close() }()

	engine := query.New(
		query.WithWorkers(cfg.Search.Workers),
		query.WithMetrics(metrics),
	)

	if topK <= 0 {
		topK = cfg.Search.TopK
	}

	session, err := repl.New(repl.Config{
		In:        cmd.InOrStdin(),
		Out:       cmd.OutOrStdout(),
		Store:     coord,
		Evaluator: engine,
		TopK:      topK,
		NoColor:   noColorMode,
	})
	if err != nil {
		return err
	}
	return session.Run(ctx)
}

// statusOut is where progress and status chatter goes. Query results,
// stats and errors never route through it, so --quiet leaves them
// visible.
func statusOut(cmd *cobra.Command) io.Writer {
	if quietMode {
		return io.Discard
	}
	return cmd.OutOrStdout()
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
