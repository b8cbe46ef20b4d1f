package query

// Chunk is a half-open range [Start, End) over the query's term sequence.
type Chunk struct {
	Start int
	End   int
}

// Len returns the number of terms in the chunk.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Dispatch splits count terms into contiguous chunks for workers.
// The worker count is clamped to [1, count] so no chunk is ever empty.
// With base = count/workers and r = count%workers, the first r chunks
// hold base+1 terms and the rest hold base, so chunk sizes differ by at
// most one. Together the chunks cover [0, count) exactly once.
func Dispatch(workers, count int) []Chunk {
	if count <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	base := count / workers
	r := count % workers

	chunks := make([]Chunk, workers)
	for i := range chunks {
		start := min(i, r)*(base+1) + max(i-r, 0)*base
		size := base
		if i < r {
			size++
		}
		chunks[i] = Chunk{Start: start, End: start + size}
	}
	return chunks
}
