package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config describes where log records go and how they are encoded.
type Config struct {
	// Level is the minimum record level: debug, info, warn or error.
	Level string
	// Format is the handler encoding, "text" or "json".
	Format string
	// FilePath names the log file. Empty logs to stderr only.
	FilePath string
	// MaxSizeMB is the rollover threshold for the log file.
	MaxSizeMB int
	// MaxFiles is how many rolled log files are kept.
	MaxFiles int
	// WriteToStderr mirrors file records to stderr. Off by default so
	// log output never interleaves with the query prompt.
	WriteToStderr bool
}

// DefaultConfig returns the file-logging defaults.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		FilePath:  DefaultLogPath(),
		MaxSizeMB: 10,
		MaxFiles:  5,
	}
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLevel maps a level name to its slog.Level, defaulting to Info
// for anything unrecognized.
func parseLevel(name string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(name)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// Setup builds a logger per cfg. The returned cleanup closes the log
// file and must be called before exit; it is a no-op for stderr-only
// configurations.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	sink, cleanup, err := openSink(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(sink, opts)
	} else {
		h = slog.NewJSONHandler(sink, opts)
	}
	return slog.New(h), cleanup, nil
}

// openSink resolves the destination writer for cfg.
func openSink(cfg Config) (io.Writer, func(), error) {
	if cfg.FilePath == "" {
		return os.Stderr, func() {}, nil
	}

	w, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = w.Sync()
		_ = w.Close()
	}

	if cfg.WriteToStderr {
		return io.MultiWriter(w, os.Stderr), cleanup, nil
	}
	return w, cleanup, nil
}
