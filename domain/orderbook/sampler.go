package orderbook

import "math/rand/v2"

// Default populations a category must exceed before RandomOrder samples it.
const (
	DefaultLimitSampleMin     = 10000
	DefaultStopSampleMin      = 500
	DefaultStopLimitSampleMin = 500
)

// idSet is a dense set of order ids with O(1) add, remove and
// uniform pick.
type idSet struct {
	ids []uint64
	pos map[uint64]int
}

func newIDSet() idSet {
	return idSet{pos: make(map[uint64]int)}
}

func (s *idSet) add(id uint64) {
	if _, ok := s.pos[id]; ok {
		return
	}
	s.pos[id] = len(s.ids)
	s.ids = append(s.ids, id)
}

func (s *idSet) remove(id uint64) {
	i, ok := s.pos[id]
	if !ok {
		return
	}
	last := len(s.ids) - 1
	if i != last {
		moved := s.ids[last]
		s.ids[i] = moved
		s.pos[moved] = i
	}
	s.ids = s.ids[:last]
	delete(s.pos, id)
}

func (s *idSet) len() int { return len(s.ids) }

func (s *idSet) pick(r *rand.Rand) uint64 {
	return s.ids[r.IntN(len(s.ids))]
}

// RandomOrder returns a uniformly chosen resting order of the given kind
// once that kind holds more than its minimum population. It exists for
// stream generators and benchmarks; matching never calls it.
func (b *OrderBook) RandomOrder(kind Kind, r *rand.Rand) (OrderView, bool) {
	if int(kind) >= len(b.sample) {
		return OrderView{}, false
	}
	set := &b.sample[kind]
	if set.len() == 0 || set.len() <= b.sampleMin[kind] {
		return OrderView{}, false
	}
	return b.Order(set.pick(r))
}

// Count returns how many resting orders of the given kind the book holds.
func (b *OrderBook) Count(kind Kind) int {
	if int(kind) >= len(b.sample) {
		return 0
	}
	return b.sample[kind].len()
}
