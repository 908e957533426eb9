package sequence

import "sync/atomic"

// Sequencer hands out the journal sequence numbers. Every accepted
// command gets the next one, so the entry WAL, the outbox and snapshots
// share a single ordering.
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer whose next value is start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Reset sets the last issued sequence. Only recovery calls it.
func (s *Sequencer) Reset(v uint64) {
	s.last.Store(v)
}

// Observe raises the last issued sequence to v if it is behind.
func (s *Sequencer) Observe(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
