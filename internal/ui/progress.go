package ui

import (
	"sync"
	"time"
)

// ratePeriod is the minimum spacing between throughput samples.
// Extraction finishes files in bursts, so sampling every update would
// make the displayed speed jitter.
const ratePeriod = 500 * time.Millisecond

// rateMeter derives a smoothed files-per-second reading from a
// monotonically growing count.
type rateMeter struct {
	since     time.Time
	sampledAt time.Time
	sampled   int
	rate      float64
}

func (m *rateMeter) restart(now time.Time) {
	*m = rateMeter{since: now, sampledAt: now}
}

func (m *rateMeter) observe(count int, now time.Time) {
	window := now.Sub(m.sampledAt)
	if window < ratePeriod {
		return
	}
	raw := float64(count-m.sampled) / window.Seconds()
	if m.rate == 0 {
		m.rate = raw
	} else {
		m.rate = 0.25*raw + 0.75*m.rate
	}
	m.sampled = count
	m.sampledAt = now
}

// mean returns the average rate since the last restart.
func (m *rateMeter) mean(count int, now time.Time) float64 {
	secs := now.Sub(m.since).Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(count) / secs
}

// ProgressTracker folds progress events into a renderable snapshot.
// The indexing goroutine feeds events in while the display polls
// Stats on every frame, so all methods lock.
type ProgressTracker struct {
	mu sync.Mutex

	stage   Stage
	seen    bool
	current int
	total   int
	detail  string

	started    time.Time
	stageStart time.Time
	meter      rateMeter

	errors   []ErrorEvent
	warnings []ErrorEvent
}

// NewProgressTracker returns a tracker with the run clock started.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	t := &ProgressTracker{started: now, stageStart: now}
	t.meter.restart(now)
	return t
}

// Observe records a progress event. Crossing into a new stage resets
// the stage clock and the throughput meter.
func (p *ProgressTracker) Observe(event ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if !p.seen || event.Stage != p.stage {
		p.seen = true
		p.stage = event.Stage
		p.stageStart = now
		p.meter.restart(now)
	}
	p.current = event.Current
	p.total = event.Total
	p.detail = event.CurrentFile
	if p.detail == "" {
		p.detail = event.Message
	}
	p.meter.observe(p.current, now)
}

// AddError records an error or warning for the status line.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.IsWarn {
		p.warnings = append(p.warnings, event)
	} else {
		p.errors = append(p.errors, event)
	}
}

// ProgressStats is a point-in-time view of the tracker for rendering.
type ProgressStats struct {
	Stage        Stage
	Current      int
	Total        int
	Detail       string // Current file, or a stage message when no file applies
	Percent      float64
	Elapsed      time.Duration
	StageElapsed time.Duration
	Rate         float64 // Smoothed files per second
	ETA          time.Duration
	Errors       int
	Warnings     int
}

// Stats assembles the current snapshot.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	return ProgressStats{
		Stage:        p.stage,
		Current:      p.current,
		Total:        p.total,
		Detail:       p.detail,
		Percent:      p.percentLocked(),
		Elapsed:      now.Sub(p.started),
		StageElapsed: now.Sub(p.stageStart),
		Rate:         p.meter.rate,
		ETA:          p.etaLocked(now),
		Errors:       len(p.errors),
		Warnings:     len(p.warnings),
	}
}

func (p *ProgressTracker) percentLocked() float64 {
	if p.total <= 0 {
		return 0
	}
	pct := float64(p.current) / float64(p.total)
	if pct > 1 {
		pct = 1
	}
	return pct
}

// etaLocked estimates time remaining from the mean throughput of the
// current stage. The mean is steadier than the instantaneous rate, so
// the estimate needs no extra smoothing.
func (p *ProgressTracker) etaLocked(now time.Time) time.Duration {
	remaining := p.total - p.current
	if remaining <= 0 {
		return 0
	}
	mean := p.meter.mean(p.current, now)
	if mean <= 0 {
		return 0
	}
	return time.Duration(float64(remaining) / mean * float64(time.Second))
}

// Issues returns copies of the recorded errors and warnings.
func (p *ProgressTracker) Issues() (errs, warns []ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	errs = append(errs, p.errors...)
	warns = append(warns, p.warnings...)
	return errs, warns
}
