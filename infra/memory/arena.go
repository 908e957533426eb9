package memory

// Handle addresses a slot in an Arena. The zero value is Nil.
type Handle int32

// Nil is the handle that never refers to a live slot.
const Nil Handle = 0

// Arena is a typed slab with a free list.
// Slot 0 is reserved so the zero Handle can mean "none".
type Arena[T any] struct {
	slots []T
	free  []Handle
}

func NewArena[T any](capacity int) *Arena[T] {
	return &Arena[T]{
		slots: make([]T, 1, capacity+1),
	}
}

// Alloc returns a zeroed slot. It may grow the backing slice, so
// pointers obtained from At before the call must not be reused.
func (a *Arena[T]) Alloc() Handle {
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		return h
	}
	var zero T
	a.slots = append(a.slots, zero)
	return Handle(len(a.slots) - 1)
}

// Release zeroes the slot and makes it available to Alloc.
func (a *Arena[T]) Release(h Handle) {
	if h == Nil || int(h) >= len(a.slots) {
		panic("memory.Arena: release of invalid handle")
	}
	var zero T
	a.slots[h] = zero
	a.free = append(a.free, h)
}

// At returns the slot for h. The pointer is valid until the next Alloc.
func (a *Arena[T]) At(h Handle) *T {
	return &a.slots[h]
}

// Live is the number of allocated, unreleased slots.
func (a *Arena[T]) Live() int {
	return len(a.slots) - 1 - len(a.free)
}

// Cap is the number of slots ever allocated.
func (a *Arena[T]) Cap() int {
	return len(a.slots) - 1
}
