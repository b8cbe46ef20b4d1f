// Package ui renders indexing progress and status output for the CLI.
package ui

import (
	"context"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage represents an indexing stage. Declaration order matches
// pipeline order; renderers rely on it to mark earlier stages done.
type Stage int

const (
	// StageReconciling checks persisted documents against the filesystem.
	StageReconciling Stage = iota
	// StageScanning discovers files under the tracked directories.
	StageScanning
	// StageExtracting extracts text and tokenizes discovered files.
	StageExtracting
	// StageSaving writes the state file.
	StageSaving
	// StageComplete marks a finished run.
	StageComplete
)

var stageNames = [...]string{
	StageReconciling: "Reconciling",
	StageScanning:    "Scanning",
	StageExtracting:  "Extracting",
	StageSaving:      "Saving",
	StageComplete:    "Complete",
}

var stageIcons = [...]string{
	StageReconciling: "SYNC",
	StageScanning:    "SCAN",
	StageExtracting:  "EXTRACT",
	StageSaving:      "SAVE",
	StageComplete:    "DONE",
}

// String returns the name shown in the stage trail.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Stage(" + strconv.Itoa(int(s)) + ")"
	}
	return stageNames[s]
}

// Icon returns the short stage tag used in plain text output.
func (s Stage) Icon() string {
	if s < 0 || int(s) >= len(stageIcons) {
		return "UNKNOWN"
	}
	return stageIcons[s]
}

// ProgressEvent is one step of indexing work for display.
type ProgressEvent struct {
	Stage       Stage
	Current     int
	Total       int
	CurrentFile string // Relative path of the file being worked
	Message     string // Free text for stages without file granularity
}

// ErrorEvent reports a file level failure during indexing.
type ErrorEvent struct {
	File   string
	Err    error
	IsWarn bool
}

// StageTimings records wall time spent in each stage.
type StageTimings struct {
	Reconcile time.Duration // Staleness check against the filesystem
	Scan      time.Duration // File discovery
	Extract   time.Duration // Text extraction and tokenization
	Save      time.Duration // State file write
}

// CompletionStats summarizes a finished indexing run.
type CompletionStats struct {
	Documents int // Documents in the index after the run
	Terms     int // Distinct terms in the index
	Indexed   int // Documents added or refreshed this run
	Removed   int // Documents dropped during reconciliation
	Skipped   int // Files skipped as unsupported
	Duration  time.Duration
	Errors    int
	Warnings  int
	Stages    StageTimings
}

// Renderer is the display surface the indexing command drives.
type Renderer interface {
	// Start brings the display up.
	Start(ctx context.Context) error

	// UpdateProgress reflects one progress event.
	UpdateProgress(event ProgressEvent)

	// AddError surfaces an error or warning.
	AddError(event ErrorEvent)

	// Complete shows the final summary.
	Complete(stats CompletionStats)

	// Stop tears the display down.
	Stop() error
}

// Config carries renderer construction settings.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	Header     string // Shown in the TUI title (usually the state file)
}

// ConfigOption adjusts a Config.
type ConfigOption func(*Config)

// WithForcePlain disables the interactive display.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) { c.ForcePlain = force }
}

// WithNoColor strips color from output.
func WithNoColor(disable bool) ConfigOption {
	return func(c *Config) { c.NoColor = disable }
}

// WithHeader sets the text shown in the TUI title.
func WithHeader(header string) ConfigOption {
	return func(c *Config) { c.Header = header }
}

// NewConfig creates a Config writing to out.
func NewConfig(out io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: out}
	for _, apply := range opts {
		apply(&cfg)
	}
	return cfg
}

// NewRenderer picks the renderer for the environment: the interactive
// TUI on a real terminal, plain line output for pipes, CI and
// --no-tui. The plain renderer is also the fallback when the TUI
// cannot initialize.
func NewRenderer(cfg Config) Renderer {
	if !cfg.ForcePlain && IsTTY(cfg.Output) && !DetectCI() {
		if t, err := NewTUIRenderer(cfg); err == nil {
			return t
		}
	}
	return NewPlainRenderer(cfg)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether NO_COLOR is set.
func DetectNoColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}

// ciMarkers are environment variables that identify CI runners.
var ciMarkers = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}

// DetectCI reports whether the process appears to run under CI.
func DetectCI() bool {
	for _, name := range ciMarkers {
		if _, set := os.LookupEnv(name); set {
			return true
		}
	}
	return false
}
