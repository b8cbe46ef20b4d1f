package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sifterrors "github.com/docsift/docsift/internal/errors"
)

// isolateUserConfig points XDG_CONFIG_HOME at an empty directory so
// tests never pick up a real user config from the machine.
func isolateUserConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

// writeUserConfig creates a user config under an isolated
// XDG_CONFIG_HOME and returns its path.
func writeUserConfig(t *testing.T, content string) string {
	t.Helper()
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	docsiftDir := filepath.Join(configHome, "docsift")
	require.NoError(t, os.MkdirAll(docsiftDir, 0o755))
	path := filepath.Join(docsiftDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// Default Configuration Tests
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)

	assert.Equal(t, ".docsift/state.json", cfg.StatePath)

	// Corpus defaults: nothing tracked, every registered extractor enabled
	assert.Empty(t, cfg.Corpus.Roots)
	assert.Empty(t, cfg.Corpus.Extensions)
	assert.False(t, cfg.Corpus.IncludeHidden)

	// Index defaults
	assert.Equal(t, runtime.NumCPU(), cfg.Index.Workers)
	assert.False(t, cfg.Index.RescanOnLoad)
	assert.Equal(t, 100, cfg.Index.MaxFileSizeMB)

	// Search defaults
	assert.Equal(t, 20, cfg.Search.TopK)
	assert.Equal(t, runtime.NumCPU(), cfg.Search.Workers)

	// State defaults
	assert.False(t, cfg.State.Compress)
	assert.Equal(t, "5s", cfg.State.LockTimeout)

	// Log defaults
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "", cfg.Log.File)
}

func TestConfig_VersionDefaultsToOne(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 1, cfg.Version)
}

// =============================================================================
// Configuration File Loading Tests
// =============================================================================

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Given: a directory with no .docsift.yaml
	isolateUserConfig(t)
	tmpDir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: defaults are returned without error
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 20, cfg.Search.TopK)
	assert.Equal(t, ".docsift/state.json", cfg.StatePath)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	// Given: a directory with .docsift.yaml
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
state_path: .cache/sift.json
corpus:
  roots:
    - docs
    - guides
  extensions:
    - .md
index:
  workers: 3
  max_file_size_mb: 10
search:
  top_k: 5
`
	err := os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: all overrides are applied
	require.NoError(t, err)
	assert.Equal(t, ".cache/sift.json", cfg.StatePath)
	assert.Equal(t, []string{"docs", "guides"}, cfg.Corpus.Roots)
	assert.Equal(t, []string{".md"}, cfg.Corpus.Extensions)
	assert.Equal(t, 3, cfg.Index.Workers)
	assert.Equal(t, 10, cfg.Index.MaxFileSizeMB)
	assert.Equal(t, 5, cfg.Search.TopK)

	// And: untouched settings keep their defaults
	assert.Equal(t, runtime.NumCPU(), cfg.Search.Workers)
	assert.Equal(t, "5s", cfg.State.LockTimeout)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	// Given: a directory with .docsift.yml (alternative extension)
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
search:
  top_k: 7
`
	err := os.WriteFile(filepath.Join(tmpDir, ".docsift.yml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: .yml file is recognized
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.TopK)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	// Given: both .yaml and .yml exist
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	yamlContent := `
version: 1
search:
  top_k: 11
`
	ymlContent := `
version: 1
search:
  top_k: 13
`
	err := os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(yamlContent), 0o644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(tmpDir, ".docsift.yml"), []byte(ymlContent), 0o644)
	require.NoError(t, err)

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: .yaml takes precedence
	require.NoError(t, err)
	assert.Equal(t, 11, cfg.Search.TopK)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	// Given: invalid YAML syntax
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	invalidContent := `
version: 1
search:
  top_k: [invalid yaml syntax
`
	err := os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(invalidContent), 0o644)
	require.NoError(t, err)

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: a config error is returned with a clear message
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "parse")
	assert.Equal(t, sifterrors.ErrCodeConfigInvalid, sifterrors.GetCode(err))
}

func TestLoad_InvalidFieldType_ReturnsError(t *testing.T) {
	// Given: wrong type for a YAML-accessible field
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	invalidContent := `
version: 1
index:
  workers: "not-a-number"
`
	err := os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(invalidContent), 0o644)
	require.NoError(t, err)

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: error is returned
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_UnreadableConfigFile_ReturnsError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores file permissions")
	}

	// Given: a project config that exists but cannot be read
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".docsift.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1"), 0o644))
	require.NoError(t, os.Chmod(path, 0o000))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: the read failure is reported
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "read")
}

func TestLoad_ZeroValuesNotMerged(t *testing.T) {
	// Given: a config file with zero values for numeric settings
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
index:
  workers: 0
search:
  top_k: 0
`
	err := os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: zero values are treated as unset and defaults survive
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.Index.Workers)
	assert.Equal(t, 20, cfg.Search.TopK)
}

func TestLoad_BoolFalseInProjectCannotUnsetUserTrue(t *testing.T) {
	// Given: user config enables compression, project config writes false
	writeUserConfig(t, `
version: 1
state:
  compress: true
`)
	projectDir := t.TempDir()
	projectConfig := `
version: 1
state:
  compress: false
`
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".docsift.yaml"), []byte(projectConfig), 0o644))

	// When: loading configuration
	cfg, err := Load(projectDir)

	// Then: false merges as unset; only an env override can disable it
	require.NoError(t, err)
	assert.True(t, cfg.State.Compress)
}

// =============================================================================
// Environment Variable Tests
// =============================================================================

func TestLoad_EnvVarOverridesStatePath(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	t.Setenv("DOCSIFT_STATE_PATH", "/var/lib/docsift/state.json")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/docsift/state.json", cfg.StatePath)
}

func TestLoad_EnvVarOverridesWorkers(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	t.Setenv("DOCSIFT_WORKERS", "6")
	t.Setenv("DOCSIFT_SEARCH_WORKERS", "2")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Index.Workers)
	assert.Equal(t, 2, cfg.Search.Workers)
}

func TestLoad_EnvVarOverridesLogLevel(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	t.Setenv("DOCSIFT_LOG_LEVEL", "debug")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvVarOverridesProjectConfig(t *testing.T) {
	// Given: a project config and a conflicting environment variable
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
search:
  top_k: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(configContent), 0o644))
	t.Setenv("DOCSIFT_TOP_K", "50")

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: env var has highest precedence
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Search.TopK)
}

func TestLoad_EnvVarCanDisableCompression(t *testing.T) {
	// Given: user config enables compression
	writeUserConfig(t, `
version: 1
state:
  compress: true
`)
	projectDir := t.TempDir()
	t.Setenv("DOCSIFT_COMPRESS", "false")

	// When: loading configuration
	cfg, err := Load(projectDir)

	// Then: the env var wins, unlike a false in a config file
	require.NoError(t, err)
	assert.False(t, cfg.State.Compress)
}

func TestLoad_EnvVarBoolAcceptsOneAndTrue(t *testing.T) {
	isolateUserConfig(t)

	t.Setenv("DOCSIFT_INCLUDE_HIDDEN", "1")
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.Corpus.IncludeHidden)

	t.Setenv("DOCSIFT_INCLUDE_HIDDEN", "TRUE")
	cfg, err = Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.Corpus.IncludeHidden)

	t.Setenv("DOCSIFT_INCLUDE_HIDDEN", "yes")
	cfg, err = Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, cfg.Corpus.IncludeHidden)
}

func TestLoad_EnvVarInvalidNumberIgnored(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	t.Setenv("DOCSIFT_WORKERS", "lots")
	t.Setenv("DOCSIFT_TOP_K", "-3")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.Index.Workers)
	assert.Equal(t, 20, cfg.Search.TopK)
}

func TestLoad_EnvVarEmptyString_DoesNotOverride(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	t.Setenv("DOCSIFT_LOG_LEVEL", "")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

// =============================================================================
// User Configuration Tests
// =============================================================================

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	customConfig := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", customConfig)

	path := GetUserConfigPath()

	assert.Equal(t, filepath.Join(customConfig, "docsift", "config.yaml"), path)
}

func TestGetUserConfigPath_DefaultsToHomeConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path := GetUserConfigPath()

	assert.Contains(t, path, filepath.Join(".config", "docsift", "config.yaml"))
}

func TestGetUserConfigDir_ReturnsParentOfConfigPath(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	assert.Equal(t, filepath.Join(configHome, "docsift"), GetUserConfigDir())
}

func TestUserConfigExists_ReturnsFalseWhenMissing(t *testing.T) {
	isolateUserConfig(t)
	assert.False(t, UserConfigExists())
}

func TestUserConfigExists_ReturnsTrueWhenPresent(t *testing.T) {
	writeUserConfig(t, "version: 1\n")
	assert.True(t, UserConfigExists())
}

func TestLoad_UserConfigOverridesDefaults(t *testing.T) {
	// Given: a user config with a custom lock timeout
	writeUserConfig(t, `
version: 1
state:
  lock_timeout: 10s
`)
	projectDir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(projectDir)

	// Then: user config values are applied
	require.NoError(t, err)
	assert.Equal(t, "10s", cfg.State.LockTimeout)
	assert.Equal(t, 10*time.Second, cfg.LockTimeoutDuration())
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	// Given: both user and project configs exist
	writeUserConfig(t, `
version: 1
state:
  lock_timeout: 10s
search:
  top_k: 5
`)
	projectDir := t.TempDir()
	projectConfig := `
version: 1
search:
  top_k: 7
`
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".docsift.yaml"), []byte(projectConfig), 0o644))

	// When: loading configuration
	cfg, err := Load(projectDir)

	// Then: project config takes precedence
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.TopK)
	// And: user settings the project leaves alone still apply
	assert.Equal(t, "10s", cfg.State.LockTimeout)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	// Given: an unparseable user config
	writeUserConfig(t, `
version: 1
search:
  top_k: [invalid yaml
`)
	projectDir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(projectDir)

	// Then: error points at the user config
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "user config")
}

// =============================================================================
// Validation Tests
// =============================================================================

func TestLoad_NegativeWorkers_Rejected(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
index:
  workers: -2
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(configContent), 0o644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "index.workers")
	assert.Equal(t, sifterrors.ErrCodeConfigInvalid, sifterrors.GetCode(err))
}

func TestLoad_NegativeMaxFileSize_Rejected(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
index:
  max_file_size_mb: -1
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(configContent), 0o644))

	_, err := Load(tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index.max_file_size_mb")
}

func TestLoad_NegativeTopK_Rejected(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
search:
  top_k: -5
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(configContent), 0o644))

	_, err := Load(tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.top_k")
}

func TestLoad_BadLockTimeout_Rejected(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
state:
  lock_timeout: banana
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(configContent), 0o644))

	_, err := Load(tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "state.lock_timeout")
}

func TestLoad_BadLogLevel_Rejected(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
log:
  level: verbose
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(configContent), 0o644))

	_, err := Load(tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestLoad_BadLogFormat_Rejected(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
log:
  format: xml
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(configContent), 0o644))

	_, err := Load(tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoad_BlankExtensionEntry_Rejected(t *testing.T) {
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	configContent := `
version: 1
corpus:
  extensions:
    - .md
    - "  "
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte(configContent), 0o644))

	_, err := Load(tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus.extensions")
}

// =============================================================================
// Project Root and Corpus Discovery Tests
// =============================================================================

func TestFindProjectRoot_GitDirectory_ReturnsGitRoot(t *testing.T) {
	// Given: a nested directory in a git repo
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "src", "internal")
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))

	// When: finding project root from the nested directory
	root, err := FindProjectRoot(nestedDir)

	// Then: git root is returned
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_ConfigFile_ReturnsConfigLocation(t *testing.T) {
	// Given: a directory with .docsift.yaml and no git
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "notes", "deep")
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".docsift.yaml"), []byte("version: 1"), 0o644))

	// When: finding project root from the nested directory
	root, err := FindProjectRoot(nestedDir)

	// Then: the directory holding the config is returned
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindProjectRoot_NoMarkers_ReturnsStartDir(t *testing.T) {
	tmpDir := t.TempDir()

	root, err := FindProjectRoot(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestDiscoverRoots_FindsDocDirectories(t *testing.T) {
	// Given: a project with docs and wiki directories and a file named doc
	tmpDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "docs"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "wiki"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "doc"), []byte("not a dir"), 0o644))

	// When: discovering corpus roots
	roots := DiscoverRoots(tmpDir)

	// Then: only the directories are returned
	assert.Equal(t, []string{"docs", "wiki"}, roots)
}

func TestDiscoverRoots_EmptyDir_ReturnsNothing(t *testing.T) {
	roots := DiscoverRoots(t.TempDir())
	assert.Empty(t, roots)
}

// =============================================================================
// Accessor and Round-Trip Tests
// =============================================================================

func TestLockTimeoutDuration_ParsesConfiguredValue(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 5*time.Second, cfg.LockTimeoutDuration())

	cfg.State.LockTimeout = "250ms"
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeoutDuration())
}

func TestLockTimeoutDuration_ZeroWhenUnparseable(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, time.Duration(0), cfg.LockTimeoutDuration())

	cfg.State.LockTimeout = "banana"
	assert.Equal(t, time.Duration(0), cfg.LockTimeoutDuration())
}

func TestMaxFileSizeBytes_ConvertsMegabytes(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSizeBytes())

	cfg.Index.MaxFileSizeMB = 1
	assert.Equal(t, int64(1024*1024), cfg.MaxFileSizeBytes())
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	// Given: a customized configuration written as a project file
	isolateUserConfig(t)
	tmpDir := t.TempDir()
	cfg := NewConfig()
	cfg.StatePath = "custom/state.json"
	cfg.Corpus.Roots = []string{"docs", "guides"}
	cfg.Search.TopK = 7

	require.NoError(t, cfg.WriteYAML(filepath.Join(tmpDir, ".docsift.yaml")))

	// When: loading the directory
	loaded, err := Load(tmpDir)

	// Then: the customized values survive
	require.NoError(t, err)
	assert.Equal(t, "custom/state.json", loaded.StatePath)
	assert.Equal(t, []string{"docs", "guides"}, loaded.Corpus.Roots)
	assert.Equal(t, 7, loaded.Search.TopK)
}
