// Package config loads and validates docsift configuration. Values
// merge in order of increasing precedence: hardcoded defaults, the user
// config file, the project config file, then DOCSIFT_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	sifterrors "github.com/docsift/docsift/internal/errors"
)

// DefaultStatePath is where the index state lands when neither the
// command line nor any config file names one.
const DefaultStatePath = ".docsift/state.json"

// Config is the complete docsift configuration.
type Config struct {
	Version   int          `yaml:"version" json:"version"`
	StatePath string       `yaml:"state_path" json:"state_path"`
	Corpus    CorpusConfig `yaml:"corpus" json:"corpus"`
	Index     IndexConfig  `yaml:"index" json:"index"`
	Search    SearchConfig `yaml:"search" json:"search"`
	State     StateConfig  `yaml:"state" json:"state"`
	Log       LogConfig    `yaml:"log" json:"log"`
}

// CorpusConfig selects what gets indexed.
type CorpusConfig struct {
	// Roots are the directories indexed when no --dir flag is given.
	Roots []string `yaml:"roots" json:"roots"`

	// Extensions restricts indexing to these file extensions (with or
	// without the leading dot). Empty means every extension with a
	// registered extractor.
	Extensions []string `yaml:"extensions" json:"extensions"`

	// IncludeHidden walks into dot-directories.
	IncludeHidden bool `yaml:"include_hidden" json:"include_hidden"`
}

// IndexConfig tunes the indexing pipeline.
type IndexConfig struct {
	// Workers bounds parallel content extraction during a walk.
	// Default: CPU count.
	Workers int `yaml:"workers" json:"workers"`

	// RescanOnLoad re-walks every tracked directory after a state load,
	// picking up files created since the last save. Off by default:
	// plain reconciliation only revisits documents the index already
	// knows about.
	RescanOnLoad bool `yaml:"rescan_on_load" json:"rescan_on_load"`

	// MaxFileSizeMB is the largest file that will be extracted.
	// Larger files are skipped with a warning.
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`
}

// SearchConfig tunes query evaluation.
type SearchConfig struct {
	// TopK is how many results the query loop and the search command
	// print.
	TopK int `yaml:"top_k" json:"top_k"`

	// Workers bounds the per-query scoring fan-out. Default: CPU count.
	Workers int `yaml:"workers" json:"workers"`
}

// StateConfig controls the persisted index state file.
type StateConfig struct {
	// Compress writes the state file zstd-compressed.
	Compress bool `yaml:"compress" json:"compress"`

	// LockTimeout bounds the wait for the state file lock, as a
	// duration string ("5s", "1m").
	LockTimeout string `yaml:"lock_timeout" json:"lock_timeout"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format" json:"format"`

	// File appends logs to this file instead of stderr.
	File string `yaml:"file" json:"file"`
}

// NewConfig creates a Config with the hardcoded defaults.
func NewConfig() *Config {
	return &Config{
		Version:   1,
		StatePath: DefaultStatePath,
		Corpus: CorpusConfig{
			Roots:      []string{},
			Extensions: []string{},
		},
		Index: IndexConfig{
			Workers:       runtime.NumCPU(),
			RescanOnLoad:  false,
			MaxFileSizeMB: 100,
		},
		Search: SearchConfig{
			TopK:    20,
			Workers: runtime.NumCPU(),
		},
		State: StateConfig{
			Compress:    false,
			LockTimeout: "5s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// GetUserConfigPath returns the path of the user configuration file,
// following the XDG Base Directory convention:
//   - $XDG_CONFIG_HOME/docsift/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/docsift/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docsift", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "docsift", "config.yaml")
	}
	return filepath.Join(home, ".config", "docsift", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user config.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig loads the user configuration file. Returns nil config
// and nil error if the file does not exist.
func LoadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	return cfg, nil
}

// Load builds the effective configuration for a project directory.
// Precedence, lowest to highest:
//  1. Hardcoded defaults
//  2. User config ($XDG_CONFIG_HOME/docsift/config.yaml)
//  3. Project config (.docsift.yaml in dir)
//  4. Environment variables (DOCSIFT_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := LoadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads .docsift.yaml or .docsift.yml from dir, if present.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".docsift.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".docsift.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine, defaults apply.
	return nil
}

// loadYAML parses a YAML file and merges its values over c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return sifterrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays the non-zero values of other onto c. Boolean
// options merge only when set to true; their defaults are all false.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.StatePath != "" {
		c.StatePath = other.StatePath
	}

	if len(other.Corpus.Roots) > 0 {
		c.Corpus.Roots = other.Corpus.Roots
	}
	if len(other.Corpus.Extensions) > 0 {
		c.Corpus.Extensions = other.Corpus.Extensions
	}
	if other.Corpus.IncludeHidden {
		c.Corpus.IncludeHidden = true
	}

	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.RescanOnLoad {
		c.Index.RescanOnLoad = true
	}
	if other.Index.MaxFileSizeMB != 0 {
		c.Index.MaxFileSizeMB = other.Index.MaxFileSizeMB
	}

	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Search.Workers != 0 {
		c.Search.Workers = other.Search.Workers
	}

	if other.State.Compress {
		c.State.Compress = true
	}
	if other.State.LockTimeout != "" {
		c.State.LockTimeout = other.State.LockTimeout
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}
}

// MergeNewDefaults fills fields a config written by an older release
// does not have, without touching values the user has set. Returns the
// names of the fields it added, for reporting during a config upgrade.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Version == 0 {
		c.Version = defaults.Version
		added = append(added, "version")
	}
	if c.StatePath == "" {
		c.StatePath = defaults.StatePath
		added = append(added, "state_path")
	}
	if c.Index.Workers == 0 {
		c.Index.Workers = defaults.Index.Workers
		added = append(added, "index.workers")
	}
	if c.Index.MaxFileSizeMB == 0 {
		c.Index.MaxFileSizeMB = defaults.Index.MaxFileSizeMB
		added = append(added, "index.max_file_size_mb")
	}
	if c.Search.TopK == 0 {
		c.Search.TopK = defaults.Search.TopK
		added = append(added, "search.top_k")
	}
	if c.Search.Workers == 0 {
		c.Search.Workers = defaults.Search.Workers
		added = append(added, "search.workers")
	}
	if c.State.LockTimeout == "" {
		c.State.LockTimeout = defaults.State.LockTimeout
		added = append(added, "state.lock_timeout")
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
		added = append(added, "log.level")
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
		added = append(added, "log.format")
	}

	return added
}

// applyEnvOverrides applies DOCSIFT_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCSIFT_STATE_PATH"); v != "" {
		c.StatePath = v
	}
	if v := os.Getenv("DOCSIFT_INCLUDE_HIDDEN"); v != "" {
		c.Corpus.IncludeHidden = parseBool(v)
	}
	if v := os.Getenv("DOCSIFT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("DOCSIFT_RESCAN_ON_LOAD"); v != "" {
		c.Index.RescanOnLoad = parseBool(v)
	}
	if v := os.Getenv("DOCSIFT_MAX_FILE_SIZE_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.MaxFileSizeMB = n
		}
	}
	if v := os.Getenv("DOCSIFT_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.TopK = n
		}
	}
	if v := os.Getenv("DOCSIFT_SEARCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.Workers = n
		}
	}
	if v := os.Getenv("DOCSIFT_COMPRESS"); v != "" {
		c.State.Compress = parseBool(v)
	}
	if v := os.Getenv("DOCSIFT_LOCK_TIMEOUT"); v != "" {
		c.State.LockTimeout = v
	}
	if v := os.Getenv("DOCSIFT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DOCSIFT_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("DOCSIFT_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

func parseBool(v string) bool {
	return strings.ToLower(v) == "true" || v == "1"
}

// Validate checks the configuration for nonsense values.
func (c *Config) Validate() error {
	if c.Index.Workers < 1 {
		return sifterrors.ConfigError(fmt.Sprintf("index.workers must be at least 1, got %d", c.Index.Workers), nil)
	}
	if c.Index.MaxFileSizeMB < 1 {
		return sifterrors.ConfigError(fmt.Sprintf("index.max_file_size_mb must be at least 1, got %d", c.Index.MaxFileSizeMB), nil)
	}
	if c.Search.TopK < 1 {
		return sifterrors.ConfigError(fmt.Sprintf("search.top_k must be at least 1, got %d", c.Search.TopK), nil)
	}
	if c.Search.Workers < 1 {
		return sifterrors.ConfigError(fmt.Sprintf("search.workers must be at least 1, got %d", c.Search.Workers), nil)
	}

	if c.State.LockTimeout != "" {
		if _, err := time.ParseDuration(c.State.LockTimeout); err != nil {
			return sifterrors.ConfigError(fmt.Sprintf("state.lock_timeout must be a duration like \"5s\", got %q", c.State.LockTimeout), err)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return sifterrors.ConfigError(fmt.Sprintf("log.level must be debug, info, warn, or error, got %q", c.Log.Level), nil)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		return sifterrors.ConfigError(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format), nil)
	}

	for _, ext := range c.Corpus.Extensions {
		if strings.TrimSpace(ext) == "" {
			return sifterrors.ConfigError("corpus.extensions entries must be non-empty", nil)
		}
	}

	return nil
}

// LockTimeoutDuration returns the parsed lock timeout. Zero when unset,
// letting the state package apply its own default.
func (c *Config) LockTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.State.LockTimeout)
	if err != nil {
		return 0
	}
	return d
}

// MaxFileSizeBytes returns the extraction size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Index.MaxFileSizeMB) * 1024 * 1024
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for a .git directory
// or a .docsift.yaml/.yml file. Falls back to startDir when neither is
// found anywhere above it.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".docsift.yaml")) ||
			fileExists(filepath.Join(currentDir, ".docsift.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// DiscoverRoots finds likely documentation directories under dir, used
// to seed corpus.roots when generating a project config. Roots must be
// directories; loose files like a top-level README are not returned.
func DiscoverRoots(dir string) []string {
	commonDocDirs := []string{"docs", "doc", "documentation", "wiki"}

	var found []string
	for _, d := range commonDocDirs {
		if dirExists(filepath.Join(dir, d)) {
			found = append(found, d)
		}
	}
	return found
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
