package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir is ~/.docsift/logs, or a temp-dir equivalent when no
// home directory resolves. The writer creates it on first open.
func DefaultLogDir() string {
	base, err := os.UserHomeDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, ".docsift", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "docsift.log")
}
