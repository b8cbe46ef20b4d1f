package telemetry

import "sync"

// RecentBuffer keeps the most recent items up to a fixed capacity,
// evicting the oldest once full.
type RecentBuffer[T any] struct {
	mu    sync.RWMutex
	buf   []T
	limit int
}

// NewRecentBuffer returns a buffer holding at most capacity items.
// A non-positive capacity falls back to 100.
func NewRecentBuffer[T any](capacity int) *RecentBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &RecentBuffer[T]{buf: make([]T, 0, capacity), limit: capacity}
}

// Add appends an item, dropping the oldest one when the buffer is
// already full.
func (r *RecentBuffer[T]) Add(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.buf) == r.limit {
		copy(r.buf, r.buf[1:])
		r.buf[r.limit-1] = item
		return
	}
	r.buf = append(r.buf, item)
}

// Items copies the buffered items out, oldest first. The result is
// never nil.
func (r *RecentBuffer[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, len(r.buf))
	copy(out, r.buf)
	return out
}

// Size reports how many items are currently buffered.
func (r *RecentBuffer[T]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buf)
}

// Clear drops everything while keeping the allocation.
func (r *RecentBuffer[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = r.buf[:0]
}
