package corpus

import "math"

// IDF returns the inverse document frequency of term:
// log10(docCount/df) when the term appears in at least one document,
// exactly 0 otherwise. Zero means "absent from the corpus" and lets
// callers skip the per-document scan entirely.
func (ix *Index) IDF(term string) float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.idfLocked(term)
}

func (ix *Index) idfLocked(term string) float64 {
	df := ix.documentFrequency[term]
	if df <= 0 {
		return 0
	}
	return math.Log10(float64(ix.docCount) / float64(df))
}

// TF returns term's frequency in the document at path, normalized by the
// document's total token count. Returns 0 for unknown paths, absent
// terms, and zero-token documents (never divides by zero).
func (ix *Index) TF(path, term string) float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tfLocked(path, term)
}

func (ix *Index) tfLocked(path, term string) float64 {
	doc, ok := ix.documents[path]
	if !ok || doc.TermsCount == 0 {
		return 0
	}
	return float64(doc.TermFrequency[term]) / float64(doc.TermsCount)
}

// Score returns tf*idf for one document and one term.
func (ix *Index) Score(path, term string) float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tfLocked(path, term) * ix.idfLocked(term)
}
