// Package scanner discovers files under a corpus root. It walks
// directories in deterministic lexicographic order and streams results
// as they are found. Deciding which files are indexable is the caller's
// concern; the scanner reports every regular file it sees.
package scanner

import (
	"time"
)

// FileInfo contains metadata about a discovered file.
type FileInfo struct {
	Path    string    // Relative path to the walk root
	AbsPath string    // Absolute path
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time
}

// ScanOptions configures the scanner behavior.
type ScanOptions struct {
	// Root is the directory to walk.
	Root string

	// IncludeHidden walks into dot-directories when set. Hidden
	// directories are skipped by default.
	IncludeHidden bool

	// Progress is called once per discovered file with the running
	// count and the file's relative path. May be nil.
	Progress func(n int, path string)
}

// ScanResult is returned from the scanner channel. A result carries
// either a file or an error; after an error the channel is closed and
// no further files follow.
type ScanResult struct {
	File  *FileInfo
	Error error
}
