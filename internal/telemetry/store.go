package telemetry

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// SnapshotStore persists metric snapshots.
type SnapshotStore interface {
	SaveSnapshot(*Snapshot) error
	Close() error
}

// FileStore appends snapshots as JSON lines to a sidecar file next to
// the state file. One line per flush; within a session each line
// supersedes the previous one.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ SnapshotStore = (*FileStore)(nil)

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// SidecarPath derives the metrics file path from a state file path.
func SidecarPath(statePath string) string {
	return statePath + ".metrics.jsonl"
}

// SaveSnapshot appends one JSON line.
func (s *FileStore) SaveSnapshot(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open metrics file: %w", err)
	}
	defer f.Close()

	type line struct {
		FlushedAt time.Time `json:"flushed_at"`
		*Snapshot
	}
	data, err := json.Marshal(line{FlushedAt: time.Now(), Snapshot: snap})
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	data = append(data, '\n')

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append metrics: %w", err)
	}
	return nil
}

// Close implements SnapshotStore. The file is opened per flush, so
// there is nothing to release.
func (s *FileStore) Close() error { return nil }

// readSnapshots parses every snapshot line in path, oldest first.
// A missing file reads as empty.
func readSnapshots(path string) ([]Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open metrics file: %w", err)
	}
	defer f.Close()

	var snaps []Snapshot
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			return nil, fmt.Errorf("failed to decode metrics: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metrics file: %w", err)
	}
	return snaps, nil
}

// LastSnapshot reads the most recent snapshot line from path.
// Returns nil with no error when the file does not exist yet.
func LastSnapshot(path string) (*Snapshot, error) {
	snaps, err := readSnapshots(path)
	if err != nil || len(snaps) == 0 {
		return nil, err
	}
	return &snaps[len(snaps)-1], nil
}

// aggregateCap bounds the merged top-term and zero-result lists.
const aggregateCap = 100

// AggregateSnapshots merges the whole sidecar into one lifetime
// snapshot. Flushes within a session are cumulative, so only each
// session's final line contributes; sessions are keyed by their start
// time. Repeat detection is session-local, so the merged repeat rate
// never counts repeats across sessions, and top terms only include
// terms that made some session's own top list.
func AggregateSnapshots(path string) (*Snapshot, error) {
	snaps, err := readSnapshots(path)
	if err != nil || len(snaps) == 0 {
		return nil, err
	}

	// Later lines replace earlier ones from the same session.
	finals := make(map[int64]Snapshot)
	for _, s := range snaps {
		finals[s.Since.UnixNano()] = s
	}

	keys := make([]int64, 0, len(finals))
	for k := range finals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	merged := &Snapshot{LatencyDistribution: make(map[LatencyBucket]int64)}
	terms := make(map[string]int64)
	for _, k := range keys {
		s := finals[k]
		merged.TotalQueries += s.TotalQueries
		merged.ZeroResultCount += s.ZeroResultCount
		merged.TermsScored += s.TermsScored
		merged.TermsShortCircuited += s.TermsShortCircuited
		merged.ExactRepeatCount += s.ExactRepeatCount
		merged.UniqueQueryCount += s.UniqueQueryCount
		for bucket, n := range s.LatencyDistribution {
			merged.LatencyDistribution[bucket] += n
		}
		for _, tc := range s.TopTerms {
			terms[tc.Term] += tc.Count
		}
		merged.ZeroResultQueries = append(merged.ZeroResultQueries, s.ZeroResultQueries...)
		if merged.Since.IsZero() || s.Since.Before(merged.Since) {
			merged.Since = s.Since
		}
	}

	if merged.TotalQueries > 0 {
		merged.ExactRepeatRate = float64(merged.ExactRepeatCount) / float64(merged.TotalQueries)
	}

	merged.TopTerms = make([]TermCount, 0, len(terms))
	for term, count := range terms {
		merged.TopTerms = append(merged.TopTerms, TermCount{Term: term, Count: count})
	}
	sort.Slice(merged.TopTerms, func(i, j int) bool {
		if merged.TopTerms[i].Count != merged.TopTerms[j].Count {
			return merged.TopTerms[i].Count > merged.TopTerms[j].Count
		}
		return merged.TopTerms[i].Term < merged.TopTerms[j].Term
	})
	if len(merged.TopTerms) > aggregateCap {
		merged.TopTerms = merged.TopTerms[:aggregateCap]
	}
	if len(merged.ZeroResultQueries) > aggregateCap {
		merged.ZeroResultQueries = merged.ZeroResultQueries[len(merged.ZeroResultQueries)-aggregateCap:]
	}

	return merged, nil
}
