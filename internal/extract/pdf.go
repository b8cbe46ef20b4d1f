package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the plain text of every page in a PDF document.
type PDF struct{}

var _ Extractor = (*PDF)(nil)

// NewPDF creates the PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// Extract implements Extractor.
func (p *PDF) Extract(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d of %s: %w", i, path, err)
		}
		sb.WriteString(text)
		sb.WriteByte(' ')
	}

	return sb.String(), nil
}

// Extensions implements Extractor.
func (p *PDF) Extensions() []string {
	return []string{".pdf"}
}
