package orderbook

import "matchbook/infra/memory"

// PriceLevel is a FIFO queue of orders at a single price on one tree.
// It doubles as the AVL node of that tree's PriceIndex.
type PriceLevel struct {
	Price int64
	Side  Side
	Stop  bool

	OrderCount  int
	TotalVolume int64

	head memory.Handle
	tail memory.Handle

	parent memory.Handle
	left   memory.Handle
	right  memory.Handle
	height int32
}

// LevelView is a read-only copy of a price level with its queue in
// arrival order.
type LevelView struct {
	Price       int64
	Side        Side
	Stop        bool
	OrderCount  int
	TotalVolume int64
	OrderIDs    []uint64
}

// queue binds the two arenas so level queues can be spliced without
// the caller juggling both.
type queue struct {
	orders *memory.Arena[Order]
	levels *memory.Arena[PriceLevel]
}

// append adds o to the tail of the level.
func (q queue) append(lh, oh memory.Handle) {
	lvl := q.levels.At(lh)
	o := q.orders.At(oh)

	o.level = lh
	o.prev = lvl.tail
	o.next = memory.Nil
	if lvl.tail == memory.Nil {
		lvl.head = oh
	} else {
		q.orders.At(lvl.tail).next = oh
	}
	lvl.tail = oh

	lvl.OrderCount++
	lvl.TotalVolume += o.Shares
}

// unlink removes o from wherever it sits in its level's queue.
func (q queue) unlink(oh memory.Handle) {
	o := q.orders.At(oh)
	lvl := q.levels.At(o.level)

	if o.prev == memory.Nil {
		lvl.head = o.next
	} else {
		q.orders.At(o.prev).next = o.next
	}
	if o.next == memory.Nil {
		lvl.tail = o.prev
	} else {
		q.orders.At(o.next).prev = o.prev
	}

	lvl.OrderCount--
	lvl.TotalVolume -= o.Shares
	o.prev, o.next = memory.Nil, memory.Nil
}

// front returns the oldest order of the level.
func (q queue) front(lh memory.Handle) memory.Handle {
	return q.levels.At(lh).head
}

// fill takes shares off a resting order that stays at its position.
func (q queue) fill(oh memory.Handle, shares int64) {
	o := q.orders.At(oh)
	o.Shares -= shares
	q.levels.At(o.level).TotalVolume -= shares
}

func (q queue) view(lh memory.Handle) LevelView {
	lvl := q.levels.At(lh)
	v := LevelView{
		Price:       lvl.Price,
		Side:        lvl.Side,
		Stop:        lvl.Stop,
		OrderCount:  lvl.OrderCount,
		TotalVolume: lvl.TotalVolume,
		OrderIDs:    make([]uint64, 0, lvl.OrderCount),
	}
	for oh := lvl.head; oh != memory.Nil; oh = q.orders.At(oh).next {
		v.OrderIDs = append(v.OrderIDs, q.orders.At(oh).ID)
	}
	return v
}
