package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio"
)

const (
	// MaxBackups is the number of config backups kept per file.
	MaxBackups = 3

	// BackupSuffix marks a file as a config backup.
	BackupSuffix = ".bak"

	// backupTimestampFormat orders backups lexicographically by age.
	backupTimestampFormat = "20060102-150405"
)

// backupTarget builds the timestamped name a backup of path goes to.
func backupTarget(path string, now time.Time) string {
	return path + BackupSuffix + "." + now.Format(backupTimestampFormat)
}

// BackupUserConfig copies the user config aside under a timestamped
// name and prunes old copies. Returns the backup path, or "" when no
// user config exists.
func BackupUserConfig() (string, error) {
	src := GetUserConfigPath()
	if !UserConfigExists() {
		return "", nil
	}

	content, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", src, err)
	}

	dst := backupTarget(src, time.Now())
	if err := os.WriteFile(dst, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", dst, err)
	}

	pruneBackups()

	return dst, nil
}

// ListUserConfigBackups returns backup paths for the user config,
// newest first. The timestamp suffix sorts the same as file age, so no
// stat calls are needed.
func ListUserConfigBackups() ([]string, error) {
	src := GetUserConfigPath()
	dir := filepath.Dir(src)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	prefix := filepath.Base(src) + BackupSuffix + "."
	var found []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		found = append(found, filepath.Join(dir, e.Name()))
	}

	sort.Sort(sort.Reverse(sort.StringSlice(found)))
	return found, nil
}

// pruneBackups removes backups beyond MaxBackups, oldest first.
// Removal failures are ignored.
func pruneBackups() {
	all, err := ListUserConfigBackups()
	if err != nil || len(all) <= MaxBackups {
		return
	}
	for _, stale := range all[MaxBackups:] {
		_ = os.Remove(stale)
	}
}

// RestoreUserConfig replaces the user config with the given backup.
// The current config, if present, is backed up first; BackupUserConfig
// is a no-op when there is nothing to back up.
func RestoreUserConfig(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", path, err)
	}

	if _, err := BackupUserConfig(); err != nil {
		return fmt.Errorf("failed to back up current config: %w", err)
	}

	cfgDir := GetUserConfigDir()
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", cfgDir, err)
	}

	// Atomic replace; a crash mid-restore must not leave a truncated file.
	if err := renameio.WriteFile(GetUserConfigPath(), content, 0o644); err != nil {
		return fmt.Errorf("failed to restore config: %w", err)
	}

	return nil
}
