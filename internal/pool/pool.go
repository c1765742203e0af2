// Package pool provides free lists of reusable slices for allocation-free search and training.
package pool

// Stack is a LIFO free list of slices.
// Slices handed out by Get have zero length but keep the capacity they had
// when they were returned, so the hot path stops allocating once warm.
//
// A Stack is not safe for concurrent use.
type Stack[T any] struct {
	free        [][]T
	outstanding int
	peak        int
}

// Get borrows a zero-length slice. Ownership passes to the caller until Put.
func (s *Stack[T]) Get() []T {
	s.outstanding++
	if s.outstanding > s.peak {
		s.peak = s.outstanding
	}

	n := len(s.free)
	if n == 0 {
		return nil
	}
	b := s.free[n-1]
	s.free[n-1] = nil
	s.free = s.free[:n-1]
	return b[:0]
}

// Put returns a borrowed slice to the free list.
func (s *Stack[T]) Put(b []T) {
	s.outstanding--
	s.free = append(s.free, b[:0])
}

// PutAll returns every slice in bs and empties bs in place.
func (s *Stack[T]) PutAll(bs *[][]T) {
	for i, b := range *bs {
		s.Put(b)
		(*bs)[i] = nil
	}
	*bs = (*bs)[:0]
}

// Len returns the number of slices currently retained for reuse.
func (s *Stack[T]) Len() int {
	return len(s.free)
}

// Outstanding returns the number of slices borrowed and not yet returned.
func (s *Stack[T]) Outstanding() int {
	return s.outstanding
}

// Peak returns the highest number of simultaneously borrowed slices seen.
func (s *Stack[T]) Peak() int {
	return s.peak
}

// Pool groups the free lists used by evaluation and search, keyed by buffer kind.
type Pool[M any] struct {
	Vecs   Stack[float64]   // activations, deltas, trace snapshots
	Traces Stack[[]float64] // per-pass lists of trace snapshots
	Moves  Stack[M]         // legal move lists
}

// New creates an empty pool.
func New[M any]() *Pool[M] {
	return &Pool[M]{}
}

// Outstanding returns the total number of borrowed buffers across all kinds.
func (p *Pool[M]) Outstanding() int {
	return p.Vecs.Outstanding() + p.Traces.Outstanding() + p.Moves.Outstanding()
}
