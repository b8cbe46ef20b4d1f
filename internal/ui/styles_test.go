package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestNoColorStyles_RenderIsPassthrough(t *testing.T) {
	// Given: the no-color set
	s := NoColorStyles()

	// Then: every style hands text through untouched
	for name, style := range map[string]lipgloss.Style{
		"Header":   s.Header,
		"Success":  s.Success,
		"Warning":  s.Warning,
		"Error":    s.Error,
		"Dim":      s.Dim,
		"Stage":    s.Stage,
		"Active":   s.Active,
		"Progress": s.Progress,
		"Border":   s.Border,
		"Panel":    s.Panel,
		"Speed":    s.Speed,
		"Label":    s.Label,
	} {
		assert.Equal(t, "plain text", style.Render("plain text"), name)
	}
}

func TestDefaultStyles_TextSurvivesStyling(t *testing.T) {
	// Color codes depend on the terminal profile, but the text itself
	// must always come through.
	s := DefaultStyles()

	for _, style := range []lipgloss.Style{s.Header, s.Warning, s.Error, s.Speed, s.Active} {
		assert.Contains(t, style.Render("42 files/s"), "42 files/s")
	}
}

func TestDefaultStyles_PanelDrawsBorder(t *testing.T) {
	out := DefaultStyles().Panel.Render("summary")

	assert.Contains(t, out, "summary")
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "╰")
}

func TestGetStyles_SelectsByPreference(t *testing.T) {
	// no-color yields passthrough rendering
	assert.Equal(t, "x", GetStyles(true).Error.Render("x"))

	// colored styles still carry the text
	assert.Contains(t, GetStyles(false).Error.Render("x"), "x")
}
