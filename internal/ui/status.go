package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
)

// StatusInfo contains index health information.
type StatusInfo struct {
	// Index stats
	StatePath   string    `json:"state_path"`
	Documents   int       `json:"documents"`
	Terms       int       `json:"terms"`
	TrackedDirs []string  `json:"tracked_dirs,omitempty"`
	SavedAt     time.Time `json:"saved_at"`

	// On-disk state
	StateSize  int64 `json:"state_size"`
	Compressed bool  `json:"compressed"`

	// Query stats from the metrics sidecar, when one exists
	Queries *QueryStatsInfo `json:"queries,omitempty"`
}

// QueryStatsInfo summarizes recorded query activity.
type QueryStatsInfo struct {
	Total         int64      `json:"total"`
	ZeroResultPct float64    `json:"zero_result_pct"`
	RepeatRate    float64    `json:"repeat_rate"`
	TopTerms      []TermStat `json:"top_terms,omitempty"`
	Since         time.Time  `json:"since"`
}

// TermStat is one term with its query count.
type TermStat struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out     io.Writer
	styles  Styles
	noColor bool
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:     out,
		styles:  GetStyles(noColor),
		noColor: noColor,
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	// Header
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status: "+info.StatePath))

	// Index stats
	_, _ = fmt.Fprintf(r.out, "  Documents:  %d\n", info.Documents)
	_, _ = fmt.Fprintf(r.out, "  Terms:      %d\n", info.Terms)
	if !info.SavedAt.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Last saved: %s\n", humanize.Time(info.SavedAt))
	}
	if info.StateSize > 0 {
		size := humanize.IBytes(uint64(info.StateSize))
		if info.Compressed {
			size += " " + r.styles.Dim.Render("(compressed)")
		}
		_, _ = fmt.Fprintf(r.out, "  State size: %s\n", size)
	}
	_, _ = fmt.Fprintln(r.out)

	// Tracked directories
	if len(info.TrackedDirs) > 0 {
		_, _ = fmt.Fprintln(r.out, "  Tracked directories:")
		for _, dir := range info.TrackedDirs {
			_, _ = fmt.Fprintf(r.out, "    %s\n", dir)
		}
		_, _ = fmt.Fprintln(r.out)
	}

	// Query stats
	if q := info.Queries; q != nil && q.Total > 0 {
		_, _ = fmt.Fprintln(r.out, "  Queries:")
		_, _ = fmt.Fprintf(r.out, "    Total:        %d\n", q.Total)
		_, _ = fmt.Fprintf(r.out, "    Zero results: %.1f%%\n", q.ZeroResultPct)
		_, _ = fmt.Fprintf(r.out, "    Repeat rate:  %.1f%%\n", q.RepeatRate*100)
		if len(q.TopTerms) > 0 {
			_, _ = fmt.Fprintf(r.out, "    Top terms:    %s\n", formatTopTerms(q.TopTerms, 5))
		}
		if !q.Since.IsZero() {
			_, _ = fmt.Fprintf(r.out, "    Since:        %s\n", humanize.Time(q.Since))
		}
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// formatTopTerms renders up to max terms as "TERM (count), ...".
func formatTopTerms(terms []TermStat, max int) string {
	if len(terms) > max {
		terms = terms[:max]
	}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, fmt.Sprintf("%s (%d)", t.Term, t.Count))
	}
	return strings.Join(parts, ", ")
}
