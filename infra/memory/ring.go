package memory

import "sync/atomic"

// Ring is a lock-free single-producer single-consumer ring buffer.
// The service pushes market-data events from the book writer and one
// dispatcher goroutine pops them.
type Ring[T any] struct {
	head  atomic.Uint64
	_pad1 [56]byte
	tail  atomic.Uint64
	_pad2 [56]byte
	buf   []T
	mask  uint64
}

func NewRing[T any](size uint64) *Ring[T] {
	if size == 0 || size&(size-1) != 0 {
		panic("memory.Ring: size must be a power of two")
	}
	return &Ring[T]{
		buf:  make([]T, size),
		mask: size - 1,
	}
}

// Push enqueues v. It returns false when the ring is full.
func (r *Ring[T]) Push(v T) bool {
	h := r.head.Load()
	if h-r.tail.Load() == uint64(len(r.buf)) {
		return false
	}
	r.buf[h&r.mask] = v
	r.head.Store(h + 1)
	return true
}

// Pop dequeues the oldest value.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T
	t := r.tail.Load()
	if t == r.head.Load() {
		return zero, false
	}
	v := r.buf[t&r.mask]
	r.buf[t&r.mask] = zero
	r.tail.Store(t + 1)
	return v, true
}

func (r *Ring[T]) Len() int {
	return int(r.head.Load() - r.tail.Load())
}
