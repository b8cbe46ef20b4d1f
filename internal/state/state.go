// Package state persists the corpus index to disk. The on-disk format
// is a versioned JSON envelope, optionally zstd-compressed, written
// atomically so a crash mid-save never leaves a torn file. A sibling
// .lock file serializes access across processes.
package state

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/google/renameio"
	"github.com/klauspost/compress/zstd"

	"github.com/docsift/docsift/internal/corpus"
	sifterrors "github.com/docsift/docsift/internal/errors"
)

// CurrentVersion is the state file format version this build reads and
// writes. Bump on incompatible envelope changes.
const CurrentVersion = 1

// DefaultLockTimeout bounds how long Save and Load wait for the lock
// before giving up.
const DefaultLockTimeout = 5 * time.Second

// lockRetryDelay is the polling interval while waiting for the lock.
const lockRetryDelay = 50 * time.Millisecond

// zstdMagic is the zstd frame header. Compression is detected from
// content, not configuration, so flipping the compress setting never
// breaks loading an existing file.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// envelope wraps the index dump with format metadata.
type envelope struct {
	Version int          `json:"version"`
	SavedAt time.Time    `json:"saved_at"`
	Index   *corpus.Dump `json:"index"`
}

// Options configures Save and Load behavior.
type Options struct {
	// Compress forces zstd compression on save. Files whose path ends
	// in .zst are compressed regardless.
	Compress bool

	// LockTimeout bounds the wait for the state lock.
	LockTimeout time.Duration
}

// Option mutates Options.
type Option func(*Options)

// WithCompression toggles zstd compression on save.
func WithCompression(on bool) Option {
	return func(o *Options) { o.Compress = on }
}

// WithLockTimeout sets the lock acquisition timeout.
func WithLockTimeout(d time.Duration) Option {
	return func(o *Options) { o.LockTimeout = d }
}

func buildOptions(opts []Option) Options {
	o := Options{LockTimeout: DefaultLockTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = DefaultLockTimeout
	}
	return o
}

// LockPath returns the lock file path for a state file.
func LockPath(statePath string) string {
	return statePath + ".lock"
}

// Exists reports whether a state file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// FileInfo describes a state file without parsing it.
type FileInfo struct {
	// Size is the on-disk size in bytes.
	Size int64

	// Compressed reports whether the file starts with a zstd frame.
	Compressed bool

	// SavedAt is when the file was last written. Saves replace the
	// file atomically, so the mtime is the last successful save.
	SavedAt time.Time
}

// Describe stats a state file and sniffs its compression.
func Describe(path string) (FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat state file %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to open state file %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, len(zstdMagic))
	n, _ := io.ReadFull(f, header)

	return FileInfo{
		Size:       stat.Size(),
		Compressed: isZstd(header[:n]),
		SavedAt:    stat.ModTime(),
	}, nil
}

// Save writes the dump to path, replacing any existing file atomically.
func Save(ctx context.Context, path string, dump corpus.Dump, opts ...Option) error {
	o := buildOptions(opts)

	unlock, err := acquire(ctx, path, o.LockTimeout, false)
	if err != nil {
		return err
	}
	defer unlock()

	env := envelope{
		Version: CurrentVersion,
		SavedAt: time.Now().UTC(),
		Index:   &dump,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return sifterrors.StateError(sifterrors.ErrCodeStateSaveFailed,
			"failed to encode state", err)
	}

	if o.Compress || strings.HasSuffix(path, ".zst") {
		data, err = compress(data)
		if err != nil {
			return sifterrors.StateError(sifterrors.ErrCodeStateSaveFailed,
				"failed to compress state", err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return sifterrors.StateError(sifterrors.ErrCodeStateSaveFailed,
				"failed to create state directory", err)
		}
	}

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return sifterrors.StateError(sifterrors.ErrCodeStateSaveFailed,
			fmt.Sprintf("failed to write state file %s", path), err)
	}
	return nil
}

// Load reads and validates the dump stored at path. A missing file is
// reported with the underlying fs.ErrNotExist preserved in the chain,
// letting callers treat it as a fresh start.
func Load(ctx context.Context, path string, opts ...Option) (corpus.Dump, error) {
	o := buildOptions(opts)

	unlock, err := acquire(ctx, path, o.LockTimeout, true)
	if err != nil {
		return corpus.Dump{}, err
	}
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return corpus.Dump{}, fmt.Errorf("failed to read state file: %w", err)
	}

	if isZstd(data) {
		data, err = decompress(data)
		if err != nil {
			return corpus.Dump{}, sifterrors.StateError(sifterrors.ErrCodeStateMalformed,
				fmt.Sprintf("failed to decompress state file %s", path), err)
		}
	}

	// Probe the version before decoding the full envelope so an
	// incompatible format reports as such, not as corruption.
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return corpus.Dump{}, malformed(path, err)
	}
	if probe.Version != CurrentVersion {
		return corpus.Dump{}, sifterrors.StateError(sifterrors.ErrCodeStateVersion,
			fmt.Sprintf("state file %s has unsupported version %d", path, probe.Version), nil).
			WithDetail("found", strconv.Itoa(probe.Version)).
			WithDetail("supported", strconv.Itoa(CurrentVersion)).
			WithSuggestion("re-index the corpus with a fresh state file")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return corpus.Dump{}, malformed(path, err)
	}
	if env.Index == nil {
		return corpus.Dump{}, malformed(path, fmt.Errorf("missing index section"))
	}
	if err := env.Index.Validate(); err != nil {
		return corpus.Dump{}, malformed(path, err)
	}

	return *env.Index, nil
}

func malformed(path string, cause error) *sifterrors.SiftError {
	return sifterrors.StateError(sifterrors.ErrCodeStateMalformed,
		fmt.Sprintf("state file %s is malformed", path), cause).
		WithSuggestion("delete the state file and re-index")
}

// acquire takes the cross-process lock for path. Shared locks are used
// for reads so concurrent loads do not serialize.
func acquire(ctx context.Context, path string, timeout time.Duration, shared bool) (func(), error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, sifterrors.StateError(sifterrors.ErrCodeStateSaveFailed,
				"failed to create state directory", err)
		}
	}

	lock := flock.New(LockPath(path))

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var ok bool
	var err error
	if shared {
		ok, err = lock.TryRLockContext(lockCtx, lockRetryDelay)
	} else {
		ok, err = lock.TryLockContext(lockCtx, lockRetryDelay)
	}
	if err != nil || !ok {
		return nil, sifterrors.StateError(sifterrors.ErrCodeStateLocked,
			fmt.Sprintf("state file %s is locked by another process", path), err).
			WithSuggestion("wait for the other docsift process to finish")
	}

	return func() { _ = lock.Unlock() }, nil
}

func isZstd(data []byte) bool {
	if len(data) < len(zstdMagic) {
		return false
	}
	for i, b := range zstdMagic {
		if data[i] != b {
			return false
		}
	}
	return true
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/3)), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
