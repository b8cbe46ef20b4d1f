package ui

import "github.com/charmbracelet/lipgloss"

// ANSI 256 palette. One cyan accent, everything else muted so the
// progress display reads on both dark and light terminals.
const (
	colorAccent    = "45"
	colorAccentDim = "31"
	colorMuted     = "245"
	colorFaint     = "238"
	colorDanger    = "196"
	colorCaution   = "220"
)

// Styles holds all UI styles for TUI rendering.
type Styles struct {
	Header   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Dim      lipgloss.Style
	Stage    lipgloss.Style
	Active   lipgloss.Style
	Progress lipgloss.Style

	Border lipgloss.Style
	Panel  lipgloss.Style
	Speed  lipgloss.Style
	Label  lipgloss.Style
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	accent := fg(colorAccent)
	muted := fg(colorMuted)
	faint := fg(colorFaint)

	return Styles{
		Header:   accent.Bold(true),
		Success:  accent,
		Warning:  fg(colorCaution),
		Error:    fg(colorDanger),
		Dim:      faint,
		Stage:    fg(colorAccentDim),
		Active:   accent.Bold(true),
		Progress: accent,

		Border: faint,
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorFaint)).
			Padding(0, 1),
		Speed: muted,
		Label: muted,
	}
}

// NoColorStyles returns the same shape with no attributes attached,
// for NO_COLOR terminals.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:   plain,
		Success:  plain,
		Warning:  plain,
		Error:    plain,
		Dim:      plain,
		Stage:    plain,
		Active:   plain,
		Progress: plain,
		Border:   plain,
		Panel:    plain,
		Speed:    plain,
		Label:    plain,
	}
}

// GetStyles picks the style set for the color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
