package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docsift/docsift/configs"
	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/output"
	"github.com/docsift/docsift/pkg/version"
)

func newInitCmd() *cobra.Command {
	var configOnly bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up docsift in the current project",
		Long: `Prepare the current project for docsift.

Running init:
1. Writes a .docsift.yaml template, seeding corpus.roots with
   discovered documentation directories
2. Adds the .docsift/ state directory to .gitignore
3. Builds the first index (skipped with --config-only)

An existing .docsift.yaml is never overwritten.`,
		Example: `  # Set up and index in one go
  docsift init

  # Write config only, index later
  docsift init --config-only`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runInit(ctx, cmd, configOnly)
		},
	}

	cmd.Flags().BoolVar(&configOnly, "config-only", false, "Write configuration only, skip indexing")

	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, configOnly bool) error {
	out := output.New(statusOut(cmd))

	out.Statusf("🚀", "docsift %s - Initializing...", version.Version)
	out.Newline()

	root, err := projectDir()
	if err != nil {
		return err
	}

	out.Statusf("📁", "Project: %s", root)
	out.Newline()

	if err := generateProjectYAML(out, root); err != nil {
		return err
	}

	switch added, err := ensureGitignore(root); {
	case err != nil:
		// A read-only .gitignore should not block the rest of init.
		out.Warningf("Could not update .gitignore: %v", err)
	case added:
		out.Statusf("📝", "Added .docsift/ to .gitignore")
	}

	if configOnly {
		out.Newline()
		out.Status("⏭️ ", "Skipping indexing (--config-only)")
	} else if err := indexAfterInit(ctx, cmd, out, root); err != nil {
		return err
	}

	printInitEpilogue(out)
	return nil
}

// indexAfterInit builds the first index once configuration is in
// place. A project with nothing to index warns instead of failing.
func indexAfterInit(ctx context.Context, cmd *cobra.Command, out *output.Writer, root string) error {
	// Reload so a freshly seeded corpus.roots takes effect.
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	out.Newline()
	if len(resolveDirs(nil, cfg, root)) == 0 {
		out.Warning("No documentation directories found to index")
		out.Status("💡", "Add directories to corpus.roots in .docsift.yaml, then run 'docsift index'")
		return nil
	}

	out.Status("📊", "Indexing project...")
	if err := runIndex(ctx, cmd, nil, indexOptions{}); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	return nil
}

func printInitEpilogue(out *output.Writer) {
	out.Newline()
	out.Success("Initialization complete!")
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Run 'docsift' for interactive search")
	out.Status("", "  2. Or 'docsift search <query>' for one-shot queries")
	out.Status("", "  3. 'docsift stats' shows index health")

	if config.UserConfigExists() {
		return
	}
	out.Newline()
	out.Status("💡", "For machine-specific settings (workers, compression):")
	out.Status("", "   Run 'docsift config init' to generate one")
}

// generateProjectYAML writes a template .docsift.yaml, appending any
// discovered documentation directories as corpus.roots so a bare
// 'docsift' works immediately after init. An existing project config
// of either spelling wins.
func generateProjectYAML(out *output.Writer, projectRoot string) error {
	if found, ok := projectConfigFile(projectRoot); ok {
		out.Statusf("ℹ️ ", "Existing %s preserved", filepath.Base(found))
		return nil
	}

	content := configs.ProjectConfigTemplate
	if roots := config.DiscoverRoots(projectRoot); len(roots) > 0 {
		content += "\ncorpus:\n  roots:\n"
		for _, r := range roots {
			content += fmt.Sprintf("    - %s\n", r)
		}
		out.Statusf("🔍", "Discovered documentation roots: %s", strings.Join(roots, ", "))
	}

	target := filepath.Join(projectRoot, ".docsift.yaml")
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	out.Statusf("📝", "Created .docsift.yaml")
	return nil
}

// ignoreForms are the .gitignore spellings that already cover the
// state directory.
var ignoreForms = map[string]bool{
	".docsift":   true,
	".docsift/":  true,
	"/.docsift":  true,
	"/.docsift/": true,
}

func hasDocsiftIgnore(content string) bool {
	for _, raw := range strings.Split(content, "\n") {
		entry := strings.TrimSpace(raw)
		if strings.HasPrefix(entry, "#") {
			continue
		}
		if ignoreForms[entry] {
			return true
		}
	}
	return false
}

// ensureGitignore appends a .docsift/ entry to the project's
// .gitignore unless one of the accepted spellings is already there.
// The entry matches the file's existing line endings.
func ensureGitignore(projectRoot string) (bool, error) {
	path := filepath.Join(projectRoot, ".gitignore")

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if hasDocsiftIgnore(string(existing)) {
		return false, nil
	}

	eol := "\n"
	if bytes.Contains(existing, []byte("\r\n")) {
		eol = "\r\n"
	}

	var b bytes.Buffer
	b.Write(existing)
	switch {
	case len(existing) == 0:
		// Nothing to separate from.
	case !bytes.HasSuffix(existing, []byte("\n")):
		b.WriteString(eol)
		b.WriteString(eol)
	default:
		b.WriteString(eol)
	}
	b.WriteString("# docsift index state" + eol + ".docsift/" + eol)

	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("failed to update %s: %w", path, err)
	}
	return true, nil
}
