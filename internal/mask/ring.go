package mask

import "fmt"

// Ring is a fixed-capacity history of raw masks in arrival order.
//
// Push stores a private copy of the mask, so callers may reuse their buffer.
// Stored masks are never written again; when the ring is full the oldest
// entry is dropped.
type Ring struct {
	slots [][]byte
	head  int // index of the oldest entry
	n     int
}

// NewRing creates an empty ring holding at most capacity masks.
func NewRing(capacity int) (*Ring, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("history capacity must be at least 1, got %d", capacity)
	}
	return &Ring{slots: make([][]byte, capacity)}, nil
}

// Push appends a copy of m, evicting the oldest mask if the ring is full.
func (r *Ring) Push(m []byte) {
	c := make([]byte, len(m))
	copy(c, m)

	if r.n < len(r.slots) {
		r.slots[(r.head+r.n)%len(r.slots)] = c
		r.n++
		return
	}
	r.slots[r.head] = c
	r.head = (r.head + 1) % len(r.slots)
}

// Snapshot returns the stored masks from oldest to newest.
//
// The returned slices alias the ring's storage and must be treated as
// read-only. The outer slice is valid until the next Push or Reset.
func (r *Ring) Snapshot() [][]byte {
	out := make([][]byte, r.n)
	for i := range out {
		out[i] = r.slots[(r.head+i)%len(r.slots)]
	}
	return out
}

// Window returns the sequence the ring would hold after pushing next,
// without modifying the ring. next is not copied.
func (r *Ring) Window(next []byte) [][]byte {
	s := r.Snapshot()
	if r.n == len(r.slots) {
		s = s[1:]
	}
	return append(s, next)
}

// Latest returns the newest mask, or nil when the ring is empty.
func (r *Ring) Latest() []byte {
	if r.n == 0 {
		return nil
	}
	return r.slots[(r.head+r.n-1)%len(r.slots)]
}

// Len returns the number of stored masks.
func (r *Ring) Len() int { return r.n }

// Cap returns the ring capacity.
func (r *Ring) Cap() int { return len(r.slots) }

// Reset drops every stored mask.
func (r *Ring) Reset() {
	for i := range r.slots {
		r.slots[i] = nil
	}
	r.head = 0
	r.n = 0
}
