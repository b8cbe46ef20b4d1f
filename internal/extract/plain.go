package extract

import (
	"fmt"
	"os"
)

// PlainText reads a file verbatim. Markdown markup is left in place;
// the lexer treats punctuation as single-character tokens anyway.
type PlainText struct{}

var _ Extractor = (*PlainText)(nil)

// NewPlainText creates the plain-text extractor.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Extract implements Extractor.
func (p *PlainText) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(content), nil
}

// Extensions implements Extractor.
func (p *PlainText) Extensions() []string {
	return []string{".txt", ".md"}
}
