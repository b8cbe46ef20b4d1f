package corpus

// View is a read-only capability over an Index, handed to query workers.
// It exposes scoring and enumeration only; there is no way to reach a
// mutation through it.
type View struct {
	ix *Index
}

// View returns a read-only view of the index.
func (ix *Index) View() *View {
	return &View{ix: ix}
}

// IDF returns the inverse document frequency of term.
func (v *View) IDF(term string) float64 { return v.ix.IDF(term) }

// TF returns the normalized term frequency of term in the document at path.
func (v *View) TF(path, term string) float64 { return v.ix.TF(path, term) }

// Paths returns every indexed document path, sorted.
func (v *View) Paths() []string { return v.ix.Paths() }

// DocCount returns the number of indexed documents.
func (v *View) DocCount() int { return v.ix.DocCount() }
