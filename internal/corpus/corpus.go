// Package corpus holds the TF-IDF index: per-document term frequencies,
// the global document-frequency table, and the scoring math over them.
//
// The Index is safe for concurrent use. Mutations take the write lock;
// scoring and stats take read locks. Query workers never see the Index
// itself, only a read-only View.
package corpus

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Document holds the indexed statistics of one file.
type Document struct {
	// TermsCount is the total number of token occurrences in the file.
	TermsCount int `json:"terms_count"`
	// LastModified is the source file's mtime at indexing time.
	LastModified time.Time `json:"last_modified"`
	// TermFrequency maps normalized term to occurrence count.
	TermFrequency map[string]int `json:"term_frequency"`
}

// TokenSource yields raw tokens one at a time. *lexer.Lexer satisfies it.
type TokenSource interface {
	Next() (string, bool)
}

// Normalize canonicalizes a raw token into an index term.
// Uppercase folding is the single normalization rule; indexing and
// querying must both route through this function so they agree.
func Normalize(token string) string {
	return strings.ToUpper(token)
}

// Index is the corpus index.
type Index struct {
	mu                sync.RWMutex
	trackedDirs       map[string]struct{}
	documents         map[string]*Document
	documentFrequency map[string]int
	docCount          int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		trackedDirs:       make(map[string]struct{}),
		documents:         make(map[string]*Document),
		documentFrequency: make(map[string]int),
	}
}

// AddDocument indexes the token stream under path, replacing any prior
// entry first so re-indexing never double-counts. The document-frequency
// table gains one count per distinct term in the new document.
func (ix *Index) AddDocument(path string, tokens TokenSource, modTime time.Time) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(path)

	doc := &Document{
		LastModified:  modTime,
		TermFrequency: make(map[string]int),
	}
	for {
		tok, ok := tokens.Next()
		if !ok {
			break
		}
		term := Normalize(tok)
		doc.TermFrequency[term]++
		doc.TermsCount++
	}

	for term := range doc.TermFrequency {
		ix.documentFrequency[term]++
	}

	ix.documents[path] = doc
	ix.docCount++
}

// RemoveDocument retracts path's contribution from the index.
// Reports whether the path was indexed; removing an unknown path is a no-op.
func (ix *Index) RemoveDocument(path string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.removeLocked(path)
}

func (ix *Index) removeLocked(path string) bool {
	doc, ok := ix.documents[path]
	if !ok {
		return false
	}

	for term := range doc.TermFrequency {
		ix.documentFrequency[term]--
		if ix.documentFrequency[term] <= 0 {
			delete(ix.documentFrequency, term)
		}
	}

	delete(ix.documents, path)
	ix.docCount--
	return true
}

// TrackDir records root as a walked corpus root.
func (ix *Index) TrackDir(root string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.trackedDirs[root] = struct{}{}
}

// TrackedDirs returns the walked corpus roots, sorted.
func (ix *Index) TrackedDirs() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	dirs := make([]string, 0, len(ix.trackedDirs))
	for dir := range ix.trackedDirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Contains reports whether path is indexed.
func (ix *Index) Contains(path string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.documents[path]
	return ok
}

// LastModified returns the stored mtime for path.
func (ix *Index) LastModified(path string) (time.Time, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	doc, ok := ix.documents[path]
	if !ok {
		return time.Time{}, false
	}
	return doc.LastModified, true
}

// DocCount returns the number of indexed documents.
func (ix *Index) DocCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docCount
}

// TermCount returns the number of distinct terms across the corpus.
func (ix *Index) TermCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.documentFrequency)
}

// Paths returns every indexed document path, sorted.
func (ix *Index) Paths() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.pathsLocked()
}

func (ix *Index) pathsLocked() []string {
	paths := make([]string, 0, len(ix.documents))
	for path := range ix.documents {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Stats is a point-in-time summary of the index.
type Stats struct {
	DocCount    int      `json:"doc_count"`
	TermCount   int      `json:"term_count"`
	TrackedDirs []string `json:"tracked_dirs"`
}

// Stats returns a summary of the index.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	dirs := make([]string, 0, len(ix.trackedDirs))
	for dir := range ix.trackedDirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	return Stats{
		DocCount:    ix.docCount,
		TermCount:   len(ix.documentFrequency),
		TrackedDirs: dirs,
	}
}
