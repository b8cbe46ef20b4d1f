// Package query evaluates free-text queries against a corpus view. Terms
// are fanned out across workers in balanced contiguous chunks, each worker
// scores its terms over the whole corpus, and the partial results merge
// additively into a sparse path-to-score map.
package query

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docsift/docsift/internal/corpus"
	"github.com/docsift/docsift/internal/telemetry"
)

// Result maps document paths to cumulative scores. Only documents with a
// strictly positive contribution for at least one term appear.
type Result map[string]float64

// Match pairs a document path with its score for sorted presentation.
type Match struct {
	Path  string
	Score float64
}

// Engine evaluates queries with a fixed worker count. Safe for
// concurrent use; each evaluation is independent.
type Engine struct {
	workers int
	metrics *telemetry.QueryMetrics
}

// Option configures the Engine.
type Option func(*Engine)

// WithWorkers sets the maximum worker count per query. Values below 1
// are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMetrics attaches a query metrics recorder.
func WithMetrics(m *telemetry.QueryMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine. The default worker count is the CPU count.
func New(opts ...Option) *Engine {
	e := &Engine{
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores the corpus against queryText. The query is split on
// whitespace and normalized; an empty query returns an empty result
// without starting any workers. Workers are pure functions over the
// read-only view, so the only error path is context cancellation.
func (e *Engine) Evaluate(ctx context.Context, view *corpus.View, queryText string) (Result, error) {
	start := time.Now()

	fields := strings.Fields(queryText)
	if len(fields) == 0 {
		return Result{}, nil
	}

	terms := make([]string, len(fields))
	for i, f := range fields {
		terms[i] = corpus.Normalize(f)
	}

	// One path snapshot shared by every worker, so all partials are
	// computed against the same corpus membership.
	paths := view.Paths()

	chunks := Dispatch(e.workers, len(terms))
	partials := make([]Result, len(chunks))
	skipped := make([]int, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range chunks {
		i, ch := i, ch // Capture loop variables

		g.Go(func() error {
			part := make(Result)
			for _, term := range terms[ch.Start:ch.End] {
				if err := gctx.Err(); err != nil {
					return err
				}

				idf := view.IDF(term)
				if idf == 0 {
					// Absent term: no document can score, skip the corpus scan.
					skipped[i]++
					continue
				}

				for _, path := range paths {
					tf := view.TF(path, term)
					if tf == 0 {
						continue
					}
					part[path] += tf * idf
				}
			}
			partials[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(Result)
	shortCircuited := 0
	for i, part := range partials {
		shortCircuited += skipped[i]
		for path, score := range part {
			merged[path] += score
		}
	}

	elapsed := time.Since(start)
	slog.Debug("query evaluated",
		slog.Int("terms", len(terms)),
		slog.Int("workers", len(chunks)),
		slog.Int("short_circuited", shortCircuited),
		slog.Int("results", len(merged)),
		slog.Duration("elapsed", elapsed))

	if e.metrics != nil {
		e.metrics.Record(telemetry.QueryEvent{
			Query:          queryText,
			TermCount:      len(terms),
			ShortCircuited: shortCircuited,
			ResultCount:    len(merged),
			Workers:        len(chunks),
			Latency:        elapsed,
			Timestamp:      time.Now(),
		})
	}

	return merged, nil
}

// Rank flattens a result map into matches sorted by descending score.
// Ties break on path so output ordering is deterministic.
func Rank(res Result) []Match {
	matches := make([]Match, 0, len(res))
	for path, score := range res {
		matches = append(matches, Match{Path: path, Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Path < matches[j].Path
	})
	return matches
}
