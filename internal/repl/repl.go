// Package repl implements the interactive query loop: read a line,
// score it against the corpus, print the ranked results, save on exit.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docsift/docsift/internal/corpus"
	"github.com/docsift/docsift/internal/output"
	"github.com/docsift/docsift/internal/query"
	"github.com/docsift/docsift/internal/ui"
)

// DefaultTopK is how many results a query prints when the session was
// not configured otherwise.
const DefaultTopK = 20

// quitSentinel ends the loop. Exact match only, after trailing
// whitespace is stripped; ":Quit" is a query like any other.
const quitSentinel = ":quit"

// Store is the slice of the index coordinator the session needs: a
// fresh corpus view per query, and a final save on exit.
type Store interface {
	View() *corpus.View
	Save(ctx context.Context) error
}

// Evaluator scores one query line against a corpus view.
type Evaluator interface {
	Evaluate(ctx context.Context, view *corpus.View, queryText string) (query.Result, error)
}

// Config configures a Session.
type Config struct {
	// In is the line source. Defaults to os.Stdin.
	In io.Reader

	// Out receives prompts and results. Defaults to os.Stdout.
	Out io.Writer

	// Store supplies corpus views and persists the index on exit.
	Store Store

	// Evaluator scores queries.
	Evaluator Evaluator

	// TopK caps how many results a query prints. Defaults to DefaultTopK.
	TopK int

	// NoColor forces plain output even on a terminal.
	NoColor bool
}

// Session is a line-oriented interactive search loop.
type Session struct {
	in     io.Reader
	out    io.Writer
	store  Store
	eval   Evaluator
	topK   int
	styles ui.Styles
}

// New creates a Session from cfg.
func New(cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("repl session requires a store")
	}
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("repl session requires an evaluator")
	}

	in := cfg.In
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	styles := ui.NoColorStyles()
	if !cfg.NoColor && output.ColorEnabled(out) {
		styles = ui.DefaultStyles()
	}

	return &Session{
		in:     in,
		out:    out,
		store:  cfg.Store,
		eval:   cfg.Evaluator,
		topK:   topK,
		styles: styles,
	}, nil
}

// Run reads queries until the quit sentinel or EOF, then saves the
// index state. Evaluation errors abort the loop without saving; they
// only arise from context cancellation.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "Search across %d documents\n", s.store.View().DocCount())
	fmt.Fprintf(s.out, "(type %s or Ctrl-D when you're done)\n", quitSentinel)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			// EOF ends the session the same way :quit does.
			fmt.Fprintln(s.out)
			break
		}

		line := strings.TrimRight(scanner.Text(), " \t")
		if line == quitSentinel {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := s.query(ctx, line); err != nil {
			return err
		}
	}
	readErr := scanner.Err()

	if err := s.store.Save(ctx); err != nil {
		return fmt.Errorf("failed to save index state: %w", err)
	}
	return readErr
}

// query evaluates one line and prints the ranked results.
func (s *Session) query(ctx context.Context, line string) error {
	res, err := s.eval.Evaluate(ctx, s.store.View(), line)
	if err != nil {
		return err
	}

	matches := query.Rank(res)
	if len(matches) == 0 {
		fmt.Fprintln(s.out, s.styles.Dim.Render(fmt.Sprintf("no results for %q", line)))
		return nil
	}
	if len(matches) > s.topK {
		matches = matches[:s.topK]
	}

	fmt.Fprintln(s.out, s.styles.Header.Render(fmt.Sprintf("Results for %q", line)))
	for _, m := range matches {
		score := s.styles.Dim.Render(fmt.Sprintf("%.4f", m.Score))
		fmt.Fprintf(s.out, "  %s  %s\n", m.Path, score)
	}
	return nil
}
