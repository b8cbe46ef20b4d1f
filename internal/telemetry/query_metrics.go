// Package telemetry collects local query metrics for the stats command.
// Everything stays on the machine; nothing is reported anywhere.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/docsift/docsift/internal/corpus"
)

// LatencyBucket names one bin of the query latency histogram.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // under 10ms
	BucketP50   LatencyBucket = "p50"   // 10 to 50ms
	BucketP100  LatencyBucket = "p100"  // 50 to 100ms
	BucketP500  LatencyBucket = "p500"  // 100 to 500ms
	BucketP1000 LatencyBucket = "p1000" // 500ms and up
)

// latencyBounds pairs each bucket with its exclusive upper bound.
// Durations past the last bound land in BucketP1000.
var latencyBounds = []struct {
	bucket LatencyBucket
	below  time.Duration
}{
	{BucketP10, 10 * time.Millisecond},
	{BucketP50, 50 * time.Millisecond},
	{BucketP100, 100 * time.Millisecond},
	{BucketP500, 500 * time.Millisecond},
}

// LatencyToBucket places a duration in its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	for _, bound := range latencyBounds {
		if d < bound.below {
			return bound.bucket
		}
	}
	return BucketP1000
}

// QueryEvent describes one evaluated query.
type QueryEvent struct {
	Query          string
	TermCount      int
	ShortCircuited int // terms skipped because idf was 0
	ResultCount    int
	Workers        int
	Latency        time.Duration
	Timestamp      time.Time
}

// IsZeroResult reports whether the query matched nothing.
func (ev QueryEvent) IsZeroResult() bool {
	return ev.ResultCount == 0
}

// ExtractTerms splits a query into index terms for top-terms tracking.
// Words shorter than 3 runes carry little signal and are dropped.
func ExtractTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(query) {
		if len([]rune(w)) < 3 {
			continue
		}
		terms = append(terms, corpus.Normalize(w))
	}
	return terms
}

// TermCount pairs a term with how often it was queried.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is an immutable snapshot of query metrics.
type Snapshot struct {
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TotalQueries        int64                   `json:"total_queries"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	TermsScored         int64                   `json:"terms_scored"`
	TermsShortCircuited int64                   `json:"terms_short_circuited"`
	ExactRepeatCount    int64                   `json:"exact_repeat_count"`
	ExactRepeatRate     float64                 `json:"exact_repeat_rate"`
	UniqueQueryCount    int64                   `json:"unique_query_count"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage reports zero-result queries as a share of all
// queries.
func (snap *Snapshot) ZeroResultPercentage() float64 {
	if snap.TotalQueries == 0 {
		return 0
	}
	return float64(snap.ZeroResultCount) / float64(snap.TotalQueries) * 100
}

// Config sizes the collector's bounded tracking structures.
type Config struct {
	TopTermsCapacity      int           // term cache size, default 100
	ZeroResultsCapacity   int           // zero-result ring size, default 100
	RecentQueriesCapacity int           // repeat-detection window, default 500
	FlushInterval         time.Duration // 0 disables auto-flush
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:      100,
		ZeroResultsCapacity:   100,
		RecentQueriesCapacity: 500,
		FlushInterval:         60 * time.Second,
	}
}

// orDefault substitutes fallback for non-positive capacities.
func orDefault(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

// QueryMetrics collects query telemetry. Thread-safe.
type QueryMetrics struct {
	mu sync.RWMutex

	topTerms            *lru.Cache[string, int64]
	zeroResults         *RecentBuffer[string]
	latencies           map[LatencyBucket]int64
	totalQueries        int64
	zeroResultCount     int64
	termsScored         int64
	termsShortCircuited int64
	startTime           time.Time

	recentQueries    *lru.Cache[string, struct{}] // LRU of query hashes
	exactRepeatCount int64

	store  SnapshotStore
	config Config
	ticker *time.Ticker
	done   chan struct{}
	closed bool
}

// NewQueryMetrics creates a metrics collector with default configuration.
// A nil store keeps metrics in memory only.
func NewQueryMetrics(store SnapshotStore) *QueryMetrics {
	return NewQueryMetricsWithConfig(store, DefaultConfig())
}

// NewQueryMetricsWithConfig creates a metrics collector with custom configuration.
func NewQueryMetricsWithConfig(store SnapshotStore, cfg Config) *QueryMetrics {
	cfg.TopTermsCapacity = orDefault(cfg.TopTermsCapacity, 100)
	cfg.ZeroResultsCapacity = orDefault(cfg.ZeroResultsCapacity, 100)
	cfg.RecentQueriesCapacity = orDefault(cfg.RecentQueriesCapacity, 500)

	top, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	recent, _ := lru.New[string, struct{}](cfg.RecentQueriesCapacity)

	qm := &QueryMetrics{
		topTerms:      top,
		zeroResults:   NewRecentBuffer[string](cfg.ZeroResultsCapacity),
		latencies:     make(map[LatencyBucket]int64),
		startTime:     time.Now(),
		recentQueries: recent,
		store:         store,
		config:        cfg,
		done:          make(chan struct{}),
	}

	if store != nil && cfg.FlushInterval > 0 {
		qm.ticker = time.NewTicker(cfg.FlushInterval)
		go qm.flushLoop()
	}

	return qm
}

func (qm *QueryMetrics) flushLoop() {
	for {
		select {
		case <-qm.ticker.C:
			_ = qm.Flush()
		case <-qm.done:
			return
		}
	}
}

// Record captures metrics from one evaluated query.
func (qm *QueryMetrics) Record(ev QueryEvent) {
	qm.mu.Lock()
	defer qm.mu.Unlock()

	if qm.closed {
		return
	}

	qm.totalQueries++
	qm.latencies[LatencyToBucket(ev.Latency)]++
	qm.termsScored += int64(ev.TermCount - ev.ShortCircuited)
	qm.termsShortCircuited += int64(ev.ShortCircuited)

	for _, term := range ExtractTerms(ev.Query) {
		prev, _ := qm.topTerms.Get(term)
		qm.topTerms.Add(term, prev+1)
	}

	if ev.IsZeroResult() {
		qm.zeroResultCount++
		qm.zeroResults.Add(ev.Query)
	}

	key := hashQuery(ev.Query)
	if _, seen := qm.recentQueries.Get(key); seen {
		qm.exactRepeatCount++
	}
	qm.recentQueries.Add(key, struct{}{})
}

// hashQuery folds case and surrounding space so "Foo " and "foo" count
// as the same query.
func hashQuery(q string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(q))))
	return hex.EncodeToString(sum[:16])
}

// Snapshot copies the current counters out for reporting.
func (qm *QueryMetrics) Snapshot() *Snapshot {
	qm.mu.RLock()
	defer qm.mu.RUnlock()

	snap := &Snapshot{
		TopTerms:            qm.sortedTermsLocked(),
		ZeroResultQueries:   qm.zeroResults.Items(),
		LatencyDistribution: make(map[LatencyBucket]int64, len(qm.latencies)),
		TotalQueries:        qm.totalQueries,
		ZeroResultCount:     qm.zeroResultCount,
		TermsScored:         qm.termsScored,
		TermsShortCircuited: qm.termsShortCircuited,
		ExactRepeatCount:    qm.exactRepeatCount,
		UniqueQueryCount:    int64(qm.recentQueries.Len()),
		Since:               qm.startTime,
	}
	for bucket, n := range qm.latencies {
		snap.LatencyDistribution[bucket] = n
	}
	if qm.totalQueries > 0 {
		snap.ExactRepeatRate = float64(qm.exactRepeatCount) / float64(qm.totalQueries)
	}
	return snap
}

// sortedTermsLocked drains the term cache into a count-descending list.
// Ties break alphabetically so output is stable.
func (qm *QueryMetrics) sortedTermsLocked() []TermCount {
	var ranked []TermCount
	for _, term := range qm.topTerms.Keys() {
		if count, ok := qm.topTerms.Peek(term); ok {
			ranked = append(ranked, TermCount{Term: term, Count: count})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Term < ranked[j].Term
	})
	return ranked
}

// Flush persists a snapshot to the store. With no store configured it
// is a no-op.
func (qm *QueryMetrics) Flush() error {
	if qm.store == nil {
		return nil
	}
	return qm.store.SaveSnapshot(qm.Snapshot())
}

// Close stops the flush loop and writes one final snapshot.
func (qm *QueryMetrics) Close() error {
	qm.mu.Lock()
	wasClosed := qm.closed
	qm.closed = true
	qm.mu.Unlock()

	if wasClosed {
		return nil
	}

	if qm.ticker != nil {
		qm.ticker.Stop()
		close(qm.done)
	}

	return qm.Flush()
}
