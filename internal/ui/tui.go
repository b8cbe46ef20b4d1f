package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// TUIRenderer drives the interactive bubbletea display. The indexing
// goroutine never talks to the tea program directly: renderer methods
// fold state into the tracker and the model repaints from snapshots
// on a frame timer. Only completion crosses over as a message.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	tracker *ProgressTracker
	program *tea.Program
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. Fails when output is not a
// terminal so NewRenderer can fall back to plain output.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, errors.New("output is not a terminal")
	}
	return &TUIRenderer{
		cfg:     cfg,
		tracker: NewProgressTracker(),
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		return nil
	}

	styles := GetStyles(r.cfg.NoColor || DetectNoColor())
	model := newProgressModel(r.tracker, r.cfg.Header, styles)

	r.program = tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithOutput(r.cfg.Output),
	)

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// UpdateProgress implements Renderer. The model picks the change up
// on its next frame.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.tracker.Observe(event)
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.tracker.AddError(event)
}

// Complete implements Renderer. Blocks briefly so the summary frame
// lands before the caller exits.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return
	}
	program.Send(doneMsg(stats))

	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program == nil {
		return nil
	}
	r.program.Quit()

	// Bounded wait so a wedged terminal cannot hang shutdown.
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

var _ Renderer = (*TUIRenderer)(nil)

// frameMsg paces redraws while indexing runs.
type frameMsg time.Time

// doneMsg carries the final stats into the model.
type doneMsg CompletionStats

const frameInterval = 80 * time.Millisecond

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// trailStages lists the stages shown in the pipeline trail, in run
// order.
var trailStages = [...]Stage{StageReconciling, StageScanning, StageExtracting, StageSaving}

// progressModel renders tracker snapshots inline. It deliberately
// avoids the alternate screen so the last frame, including the final
// summary, stays in the scrollback.
type progressModel struct {
	tracker *ProgressTracker
	styles  Styles
	header  string
	width   int

	spin     spinner.Model
	bar      progress.Model
	finished bool
	aborted  bool
	final    CompletionStats
}

func newProgressModel(tracker *ProgressTracker, header string, styles Styles) *progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.Progress

	bar := progress.New(
		progress.WithSolidFill(colorAccent),
		progress.WithWidth(42),
		progress.WithoutPercentage(),
	)

	return &progressModel{
		tracker: tracker,
		styles:  styles,
		header:  header,
		width:   80,
		spin:    sp,
		bar:     bar,
	}
}

// Init implements tea.Model.
func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, nextFrame())
}

// Update implements tea.Model.
func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 24
		if m.bar.Width < 16 {
			m.bar.Width = 16
		}

	case doneMsg:
		m.finished = true
		m.final = CompletionStats(msg)
		return m, tea.Quit

	case frameMsg:
		return m, nextFrame()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *progressModel) View() string {
	if m.aborted {
		return "Cancelled.\n"
	}
	if m.finished {
		return m.summaryView()
	}

	snap := m.tracker.Stats()

	var b strings.Builder
	b.WriteString(m.titleLine() + "\n")
	b.WriteString(m.trailLine(snap.Stage) + "\n")
	b.WriteString(m.barLine(snap) + "\n")
	if d := snap.Detail; d != "" {
		b.WriteString("  " + m.styles.Dim.Render(truncatePath(d, m.width-4)) + "\n")
	}
	b.WriteString(m.statusLine(snap) + "\n")
	return b.String()
}

func (m *progressModel) titleLine() string {
	title := m.styles.Header.Render("docsift")
	if m.header == "" {
		return title
	}
	return title + m.styles.Dim.Render(" · "+m.header)
}

func (m *progressModel) trailLine(active Stage) string {
	parts := make([]string, 0, len(trailStages))
	for _, st := range trailStages {
		switch {
		case st < active:
			parts = append(parts, m.styles.Success.Render("✓ "+st.String()))
		case st == active:
			parts = append(parts, m.styles.Active.Render(m.spin.View()+" "+st.String()))
		default:
			parts = append(parts, m.styles.Stage.Render("· "+st.String()))
		}
	}
	return "  " + strings.Join(parts, "   ")
}

func (m *progressModel) barLine(snap ProgressStats) string {
	if snap.Total <= 0 {
		return "  " + m.styles.Dim.Render("preparing...")
	}
	pct := m.styles.Active.Render(fmt.Sprintf("%3.0f%%", snap.Percent*100))
	count := m.styles.Label.Render(fmt.Sprintf("%d/%d", snap.Current, snap.Total))
	return fmt.Sprintf("  %s %s %s", m.bar.ViewAs(snap.Percent), pct, count)
}

func (m *progressModel) statusLine(snap ProgressStats) string {
	segs := make([]string, 0, 5)
	if snap.Rate > 0 {
		segs = append(segs, m.styles.Speed.Render(fmt.Sprintf("%.0f files/s", snap.Rate)))
	}
	if snap.ETA > 0 {
		segs = append(segs, m.styles.Label.Render("eta "+compactDuration(snap.ETA)))
	}
	if snap.Warnings > 0 {
		segs = append(segs, m.styles.Warning.Render(fmt.Sprintf("⚠ %d", snap.Warnings)))
	}
	if snap.Errors > 0 {
		segs = append(segs, m.styles.Error.Render(fmt.Sprintf("✗ %d", snap.Errors)))
	}
	segs = append(segs, m.styles.Dim.Render("q to cancel"))
	return "  " + strings.Join(segs, m.styles.Dim.Render("  |  "))
}

// summaryView is the final frame left in the scrollback.
func (m *progressModel) summaryView() string {
	st := m.final

	rows := []string{
		m.styles.Success.Render("✓ Indexing complete"),
		"",
		m.summaryRow("documents", fmt.Sprintf("%d", st.Documents)),
		m.summaryRow("terms", fmt.Sprintf("%d", st.Terms)),
		m.summaryRow("indexed", fmt.Sprintf("%d", st.Indexed)),
	}
	if st.Removed > 0 {
		rows = append(rows, m.summaryRow("removed", fmt.Sprintf("%d", st.Removed)))
	}
	if st.Skipped > 0 {
		rows = append(rows, m.summaryRow("skipped", fmt.Sprintf("%d", st.Skipped)))
	}
	rows = append(rows, m.summaryRow("elapsed", compactDuration(st.Duration)))
	if st.Indexed > 0 && st.Duration > 0 {
		rate := float64(st.Indexed) / st.Duration.Seconds()
		rows = append(rows, m.summaryRow("throughput", fmt.Sprintf("%.0f files/s", rate)))
	}

	if st.Errors > 0 || st.Warnings > 0 {
		rows = append(rows, "")
		if st.Errors > 0 {
			rows = append(rows, m.styles.Error.Render(fmt.Sprintf("✗ %d errors", st.Errors)))
		}
		if st.Warnings > 0 {
			rows = append(rows, m.styles.Warning.Render(fmt.Sprintf("⚠ %d warnings", st.Warnings)))
		}
		errs, warns := m.tracker.Issues()
		for _, ev := range issueTail(errs, warns, 3) {
			rows = append(rows, m.styles.Dim.Render("  "+issueText(ev)))
		}
	}

	return m.styles.Panel.Render(strings.Join(rows, "\n")) + "\n"
}

func (m *progressModel) summaryRow(label, value string) string {
	return fmt.Sprintf("  %s %s",
		m.styles.Label.Render(fmt.Sprintf("%-10s", label)),
		m.styles.Active.Render(value))
}

// issueTail returns the up to n most recent issues, errors first.
func issueTail(errs, warns []ErrorEvent, n int) []ErrorEvent {
	all := make([]ErrorEvent, 0, len(errs)+len(warns))
	all = append(all, errs...)
	all = append(all, warns...)
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

func issueText(ev ErrorEvent) string {
	switch {
	case ev.File != "" && ev.Err != nil:
		return ev.File + ": " + ev.Err.Error()
	case ev.Err != nil:
		return ev.Err.Error()
	default:
		return ev.File
	}
}

// compactDuration renders durations like 45s, 3m12s, 1h04m.
func compactDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	min := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, min)
	case min > 0:
		return fmt.Sprintf("%dm%02ds", min, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// truncatePath shortens long paths to a single display line, keeping
// the tail since filenames carry the signal.
func truncatePath(path string, max int) string {
	if max < 8 {
		max = 8
	}
	runes := []rune(path)
	if len(runes) <= max {
		return path
	}
	return "…" + string(runes[len(runes)-max+1:])
}
