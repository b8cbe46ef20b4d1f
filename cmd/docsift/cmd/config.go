package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/docsift/docsift/configs"
	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Inspect and maintain the per-user configuration file.

Settings in this file apply to every project on the machine: worker
counts, state compression, log level and format. Project files and
DOCSIFT_* environment variables override it per run.

Sources are layered in this order, later entries winning:
defaults, user config, project config, environment.`,
		Example: `  # Write the starter user config
  docsift config init

  # Inspect the merged result
  docsift config show

  # Locate the user config file
  docsift config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Write the user configuration file from the bundled template.

The file lands at ~/.config/docsift/config.yaml, honoring
XDG_CONFIG_HOME when set.

With --force an existing file is upgraded in place: the current file
is backed up first, options added since it was written pick up their
defaults, and values you changed stay as they are.`,
		Example: `  # First-time setup
  docsift config init

  # Fold newly added options into an existing file
  docsift config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Upgrade an existing file in place")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Print the configuration the indexer would actually run with.

The default view merges every source. Pass --source to look at a
single layer instead: user for the global file, project for
.docsift.yaml, defaults for the built-in values.`,
		Example: `  # Merged view
  docsift config show

  # Machine readable
  docsift config show --json

  # One layer only
  docsift config show --source project`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of YAML")
	cmd.Flags().StringVar(&source, "source", "merged", "Layer to print: merged, user, project or defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Long:  `Print where the user configuration file lives.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return nil
		},
	}
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	path := config.GetUserConfigPath()

	switch {
	case !config.UserConfigExists():
		return writeFreshUserConfig(out, path)
	case force:
		return upgradeUserConfig(out, path)
	default:
		out.Warning("User configuration file already exists")
		out.Statusf("📁", "Location: %s", path)
		out.Newline()
		out.Status("💡", "Rerun with --force to fold in new defaults without losing your settings")
		return nil
	}
}

func writeFreshUserConfig(out *output.Writer, path string) error {
	dir := config.GetUserConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	out.Success("Created user configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Edit the file to adjust workers or logging")
	out.Status("", "  2. Run 'docsift config show' to see the merged result")

	return nil
}

// upgradeUserConfig backs the current file up, fills in defaults for
// options added since it was written, and rewrites it in place.
func upgradeUserConfig(out *output.Writer, path string) error {
	backupPath, err := config.BackupUserConfig()
	if err != nil {
		return fmt.Errorf("failed to back up config: %w", err)
	}

	cfg, err := config.LoadUserConfig()
	if err != nil {
		return fmt.Errorf("failed to reload config for upgrade: %w", err)
	}
	if cfg == nil {
		return fmt.Errorf("user config vanished during upgrade")
	}

	added := cfg.MergeNewDefaults()
	if err := cfg.WriteYAML(path); err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", path, err)
	}

	out.Success("Configuration upgraded")
	out.Statusf("📁", "Location: %s", path)
	out.Statusf("💾", "Backup kept at: %s", backupPath)
	out.Newline()

	if len(added) == 0 {
		out.Status("✓", "Configuration was already up to date")
	} else {
		out.Status("✨", "Options added since this file was written:")
		for _, field := range added {
			out.Statusf("", "  - %s", field)
		}
	}

	out.Newline()
	out.Status("💡", "Settings you had changed were preserved")

	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var (
		cfg  *config.Config
		desc string
		err  error
	)
	switch source {
	case "merged":
		cfg, desc, err = mergedConfigView()
	case "user":
		cfg, desc, err = userConfigView(out)
	case "project":
		cfg, desc, err = projectConfigView(out)
	case "defaults":
		cfg, desc = config.NewConfig(), "defaults (hardcoded)"
	default:
		return fmt.Errorf("invalid source %q (expected merged, user, project or defaults)", source)
	}
	if err != nil || cfg == nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	}

	out.Statusf("📋", "Configuration source: %s", desc)
	out.Newline()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	return nil
}

func mergedConfigView() (*config.Config, string, error) {
	cfg, projectRoot, err := loadProjectConfig()
	if err != nil {
		return nil, "", err
	}
	return cfg, fmt.Sprintf("merged (defaults + user + project at %s + env)", projectRoot), nil
}

// userConfigView reads the global file alone, without layering. A nil
// config with nil error means the file does not exist and the user was
// already told.
func userConfigView(out *output.Writer) (*config.Config, string, error) {
	path := config.GetUserConfigPath()
	if !config.UserConfigExists() {
		out.Warning("No user configuration file yet")
		out.Statusf("📁", "Expected at: %s", path)
		out.Status("💡", "Create one with 'docsift config init'")
		return nil, "", nil
	}

	cfg, err := readConfigLayer(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, fmt.Sprintf("user (%s)", path), nil
}

func projectConfigView(out *output.Writer) (*config.Config, string, error) {
	root, err := projectDir()
	if err != nil {
		return nil, "", err
	}

	path, ok := projectConfigFile(root)
	if !ok {
		out.Warning("No project configuration file")
		out.Statusf("📁", "Expected at: %s", filepath.Join(root, ".docsift.yaml"))
		out.Status("💡", "Create one with 'docsift init'")
		return nil, "", nil
	}

	cfg, err := readConfigLayer(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, fmt.Sprintf("project (%s)", path), nil
}

// projectConfigFile probes root for .docsift.yaml, then the .yml spelling.
func projectConfigFile(root string) (string, bool) {
	for _, name := range []string{".docsift.yaml", ".docsift.yml"} {
		path := filepath.Join(root, name)
		if fileExists(path) {
			return path, true
		}
	}
	return "", false
}

// readConfigLayer parses a single YAML file over bare defaults.
func readConfigLayer(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg := config.NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}
