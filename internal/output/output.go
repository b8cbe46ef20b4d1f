// Package output provides formatted CLI output for docsift commands.
// Colors engage only when writing to a terminal; NO_COLOR disarms them.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/docsift/docsift/internal/ui"
)

// Writer prints command output with a consistent look. Write errors are
// ignored; there is nothing useful to do when the console is gone.
type Writer struct {
	out  io.Writer
	ok   string
	warn string
	fail string
	dim  lipgloss.Style
}

// New creates a Writer that auto-detects color support on out.
// Glyphs are rendered once up front; the color decision cannot change
// for the lifetime of the Writer.
func New(out io.Writer) *Writer {
	styles := ui.GetStyles(!ColorEnabled(out))
	return &Writer{
		out:  out,
		ok:   styles.Success.Render("✓"),
		warn: styles.Warning.Render("⚠"),
		fail: styles.Error.Render("✗"),
		dim:  styles.Dim,
	}
}

// ColorEnabled reports whether out is a terminal that wants color.
// Anything that is not a file, such as a pipe into another tool or a
// test buffer, stays plain.
func ColorEnabled(out io.Writer) bool {
	return os.Getenv("NO_COLOR") == "" && ui.IsTTY(out)
}

// Status prints a message under a glyph column. An empty glyph indents
// the message to align with glyphed lines.
func (w *Writer) Status(glyph, msg string) {
	if glyph == "" {
		_, _ = io.WriteString(w.out, "  "+msg+"\n")
		return
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n", glyph, msg)
}

// Statusf prints a formatted status message.
func (w *Writer) Statusf(glyph, format string, args ...any) {
	w.Status(glyph, fmt.Sprintf(format, args...))
}

// Success prints a completed-action message.
func (w *Writer) Success(msg string) {
	w.Status(w.ok, msg)
}

// Successf prints a formatted completed-action message.
func (w *Writer) Successf(format string, args ...any) {
	w.Statusf(w.ok, format, args...)
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.warn, msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Statusf(w.warn, format, args...)
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.fail, msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Statusf(w.fail, format, args...)
}

// Dim prints secondary text, such as paths and hints.
func (w *Writer) Dim(msg string) {
	w.Status("", w.dim.Render(msg))
}

// Code prints a block of preformatted text, indented and set off by
// blank lines.
func (w *Writer) Code(content string) {
	w.Newline()
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		_, _ = io.WriteString(w.out, "  "+line+"\n")
	}
	w.Newline()
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = io.WriteString(w.out, "\n")
}
