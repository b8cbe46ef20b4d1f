// Package extract turns source files into plain text for indexing.
//
// Each file format has an Extractor; a Registry maps lowercased file
// extensions to extractors. The walk asks the registry for every file it
// visits and treats ErrUnsupported as "skip this file", not as a failure.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupported is returned for file extensions no extractor handles.
var ErrUnsupported = errors.New("unsupported file format")

// Extractor returns the plain-text content of a file.
type Extractor interface {
	// Extract reads the file at path and returns its textual content.
	Extract(path string) (string, error)
	// Extensions lists the lowercased extensions (with dot) this
	// extractor handles.
	Extensions() []string
}

// Registry routes file paths to extractors by extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// DefaultRegistry returns a registry with all built-in extractors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPlainText())
	r.Register(NewXML())
	r.Register(NewPDF())
	return r
}

// Register adds an extractor for all of its extensions.
// Later registrations win on conflict.
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// ForPath returns the extractor responsible for path, if any.
func (r *Registry) ForPath(path string) (Extractor, bool) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Supported reports whether any extractor handles path.
func (r *Registry) Supported(path string) bool {
	_, ok := r.ForPath(path)
	return ok
}

// Extract resolves the extractor for path and runs it.
// Returns ErrUnsupported for unrecognized extensions.
func (r *Registry) Extract(path string) (string, error) {
	e, ok := r.ForPath(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	return e.Extract(path)
}

// Restrict returns a registry limited to the given extensions. The dot
// prefix is optional and matching is case-insensitive. Extensions with
// no registered extractor are ignored; an empty list returns r
// unchanged.
func (r *Registry) Restrict(exts []string) *Registry {
	if len(exts) == 0 {
		return r
	}

	restricted := NewRegistry()
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if e, ok := r.byExt[ext]; ok {
			restricted.byExt[ext] = e
		}
	}
	return restricted
}

// Extensions returns the sorted list of all registered extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
