package corpus

import (
	"fmt"
	"sort"
)

// Dump is the serializable form of an Index. All maps are deep copies;
// mutating a Dump never touches the Index it came from.
type Dump struct {
	TrackedDirs       []string            `json:"tracked_dirs"`
	Documents         map[string]Document `json:"documents"`
	DocumentFrequency map[string]int      `json:"document_frequency"`
	DocCount          int                 `json:"doc_count"`
}

// Dump copies the index into its serializable form.
func (ix *Index) Dump() Dump {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	dirs := make([]string, 0, len(ix.trackedDirs))
	for dir := range ix.trackedDirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	docs := make(map[string]Document, len(ix.documents))
	for path, doc := range ix.documents {
		tf := make(map[string]int, len(doc.TermFrequency))
		for term, count := range doc.TermFrequency {
			tf[term] = count
		}
		docs[path] = Document{
			TermsCount:    doc.TermsCount,
			LastModified:  doc.LastModified,
			TermFrequency: tf,
		}
	}

	df := make(map[string]int, len(ix.documentFrequency))
	for term, count := range ix.documentFrequency {
		df[term] = count
	}

	return Dump{
		TrackedDirs:       dirs,
		Documents:         docs,
		DocumentFrequency: df,
		DocCount:          ix.docCount,
	}
}

// FromDump rebuilds an Index from its serialized form, validating the
// count invariants first. Loading is all-or-nothing: any inconsistency
// fails the whole load.
func FromDump(d Dump) (*Index, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	ix := NewIndex()
	for _, dir := range d.TrackedDirs {
		ix.trackedDirs[dir] = struct{}{}
	}
	for path, doc := range d.Documents {
		tf := make(map[string]int, len(doc.TermFrequency))
		for term, count := range doc.TermFrequency {
			tf[term] = count
		}
		ix.documents[path] = &Document{
			TermsCount:    doc.TermsCount,
			LastModified:  doc.LastModified,
			TermFrequency: tf,
		}
	}
	for term, count := range d.DocumentFrequency {
		ix.documentFrequency[term] = count
	}
	ix.docCount = d.DocCount

	return ix, nil
}

// Validate checks the count invariants that must hold in any
// well-formed dump:
//
//   - doc_count equals the number of documents
//   - each document's term counts are non-negative and sum to terms_count
//   - document_frequency matches a recount over the documents
func (d Dump) Validate() error {
	if d.DocCount != len(d.Documents) {
		return fmt.Errorf("doc_count %d does not match %d documents", d.DocCount, len(d.Documents))
	}

	recount := make(map[string]int, len(d.DocumentFrequency))
	for path, doc := range d.Documents {
		sum := 0
		for term, count := range doc.TermFrequency {
			if count < 0 {
				return fmt.Errorf("document %s: negative count for term %q", path, term)
			}
			if count > 0 {
				recount[term]++
			}
			sum += count
		}
		if sum != doc.TermsCount {
			return fmt.Errorf("document %s: term counts sum to %d, terms_count is %d", path, sum, doc.TermsCount)
		}
	}

	if len(recount) != len(d.DocumentFrequency) {
		return fmt.Errorf("document_frequency has %d terms, documents contain %d", len(d.DocumentFrequency), len(recount))
	}
	for term, want := range recount {
		if got := d.DocumentFrequency[term]; got != want {
			return fmt.Errorf("document_frequency[%q] is %d, %d documents contain it", term, got, want)
		}
	}

	return nil
}
