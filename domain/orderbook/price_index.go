package orderbook

import (
	"fmt"

	"matchbook/infra/memory"
)

// Extreme selects which end of a PriceIndex is its best level.
type Extreme uint8

const (
	Highest Extreme = iota
	Lowest
)

// PriceIndex is an AVL tree of PriceLevels keyed by price. The nodes
// are the levels themselves; links are arena handles. The best level
// is cached and re-derived from its neighbour when it is removed.
type PriceIndex struct {
	levels *memory.Arena[PriceLevel]
	prefer Extreme

	root memory.Handle
	best memory.Handle
	size int

	// rebalances counts rotation cases applied since creation.
	rebalances int
}

func NewPriceIndex(levels *memory.Arena[PriceLevel], prefer Extreme) *PriceIndex {
	return &PriceIndex{levels: levels, prefer: prefer}
}

func (t *PriceIndex) Empty() bool { return t.root == memory.Nil }

func (t *PriceIndex) Len() int { return t.size }

func (t *PriceIndex) Best() memory.Handle { return t.best }

func (t *PriceIndex) Root() memory.Handle { return t.root }

func (t *PriceIndex) Rebalances() int { return t.rebalances }

func (t *PriceIndex) Height() int { return int(t.height(t.root)) }

// ---- mutation ----

// Insert links the level h into the tree. The level must carry its price
// and no links. A price that is already present is a caller bug.
func (t *PriceIndex) Insert(h memory.Handle) {
	n := t.node(h)
	n.left, n.right, n.parent = memory.Nil, memory.Nil, memory.Nil
	n.height = 1
	price := n.Price

	parent := memory.Nil
	for cur := t.root; cur != memory.Nil; {
		parent = cur
		c := t.node(cur)
		switch {
		case price < c.Price:
			cur = c.left
		case price > c.Price:
			cur = c.right
		default:
			panic(fmt.Sprintf("orderbook: price level %d already indexed", price))
		}
	}

	n.parent = parent
	if parent == memory.Nil {
		t.root = h
	} else if p := t.node(parent); price < p.Price {
		p.left = h
	} else {
		p.right = h
	}
	t.size++

	if t.best == memory.Nil || t.better(price, t.node(t.best).Price) {
		t.best = h
	}
	t.retrace(parent)
}

// Remove unlinks the level h using its own stored links.
func (t *PriceIndex) Remove(h memory.Handle) {
	if h == t.best {
		if t.prefer == Highest {
			t.best = t.predecessor(h)
		} else {
			t.best = t.successor(h)
		}
	}

	z := t.node(h)
	left, right, parent := z.left, z.right, z.parent

	var from memory.Handle
	switch {
	case left == memory.Nil:
		t.transplant(h, right)
		from = parent
	case right == memory.Nil:
		t.transplant(h, left)
		from = parent
	default:
		s := t.min(right)
		if t.node(s).parent != h {
			from = t.node(s).parent
			t.transplant(s, t.node(s).right)
			t.node(s).right = right
			t.node(right).parent = s
		} else {
			from = s
		}
		t.transplant(h, s)
		t.node(s).left = left
		t.node(left).parent = s
		t.node(s).height = z.height
	}

	z.left, z.right, z.parent = memory.Nil, memory.Nil, memory.Nil
	z.height = 0
	t.size--
	t.retrace(from)
}

// ---- traversal ----

// Ascend visits levels from the lowest price up until fn returns false.
func (t *PriceIndex) Ascend(fn func(memory.Handle) bool) {
	for h := t.min(t.root); h != memory.Nil; h = t.successor(h) {
		if !fn(h) {
			return
		}
	}
}

// Descend visits levels from the highest price down until fn returns false.
func (t *PriceIndex) Descend(fn func(memory.Handle) bool) {
	for h := t.max(t.root); h != memory.Nil; h = t.predecessor(h) {
		if !fn(h) {
			return
		}
	}
}

// FromBest visits levels starting at the best one.
func (t *PriceIndex) FromBest(fn func(memory.Handle) bool) {
	if t.prefer == Highest {
		t.Descend(fn)
	} else {
		t.Ascend(fn)
	}
}

// Prices returns the in-order (ascending) price dump.
func (t *PriceIndex) Prices() []int64 {
	out := make([]int64, 0, t.size)
	t.Ascend(func(h memory.Handle) bool {
		out = append(out, t.node(h).Price)
		return true
	})
	return out
}

// ---- internal helpers ----

func (t *PriceIndex) node(h memory.Handle) *PriceLevel {
	return t.levels.At(h)
}

func (t *PriceIndex) better(a, b int64) bool {
	if t.prefer == Highest {
		return a > b
	}
	return a < b
}

func (t *PriceIndex) height(h memory.Handle) int32 {
	if h == memory.Nil {
		return 0
	}
	return t.node(h).height
}

func (t *PriceIndex) balanceFactor(h memory.Handle) int32 {
	n := t.node(h)
	return t.height(n.left) - t.height(n.right)
}

func (t *PriceIndex) updateHeight(h memory.Handle) {
	n := t.node(h)
	n.height = 1 + max(t.height(n.left), t.height(n.right))
}

func (t *PriceIndex) min(h memory.Handle) memory.Handle {
	for h != memory.Nil && t.node(h).left != memory.Nil {
		h = t.node(h).left
	}
	return h
}

func (t *PriceIndex) max(h memory.Handle) memory.Handle {
	for h != memory.Nil && t.node(h).right != memory.Nil {
		h = t.node(h).right
	}
	return h
}

func (t *PriceIndex) successor(h memory.Handle) memory.Handle {
	if r := t.node(h).right; r != memory.Nil {
		return t.min(r)
	}
	p := t.node(h).parent
	for p != memory.Nil && h == t.node(p).right {
		h = p
		p = t.node(p).parent
	}
	return p
}

func (t *PriceIndex) predecessor(h memory.Handle) memory.Handle {
	if l := t.node(h).left; l != memory.Nil {
		return t.max(l)
	}
	p := t.node(h).parent
	for p != memory.Nil && h == t.node(p).left {
		h = p
		p = t.node(p).parent
	}
	return p
}

// replaceChild points parent's link that held old at repl, or the root
// when parent is Nil.
func (t *PriceIndex) replaceChild(parent, old, repl memory.Handle) {
	switch {
	case parent == memory.Nil:
		t.root = repl
	case t.node(parent).left == old:
		t.node(parent).left = repl
	default:
		t.node(parent).right = repl
	}
}

// transplant puts v in u's position under u's parent.
func (t *PriceIndex) transplant(u, v memory.Handle) {
	p := t.node(u).parent
	t.replaceChild(p, u, v)
	if v != memory.Nil {
		t.node(v).parent = p
	}
}

func (t *PriceIndex) rotateLeft(h memory.Handle) memory.Handle {
	n := t.node(h)
	r := n.right
	rn := t.node(r)

	n.right = rn.left
	if rn.left != memory.Nil {
		t.node(rn.left).parent = h
	}
	rn.parent = n.parent
	t.replaceChild(n.parent, h, r)
	rn.left = h
	n.parent = r

	t.updateHeight(h)
	t.updateHeight(r)
	return r
}

func (t *PriceIndex) rotateRight(h memory.Handle) memory.Handle {
	n := t.node(h)
	l := n.left
	ln := t.node(l)

	n.left = ln.right
	if ln.right != memory.Nil {
		t.node(ln.right).parent = h
	}
	ln.parent = n.parent
	t.replaceChild(n.parent, h, l)
	ln.right = h
	n.parent = l

	t.updateHeight(h)
	t.updateHeight(l)
	return l
}

// rebalance restores the AVL condition at h and returns the root of
// the (possibly rotated) subtree.
func (t *PriceIndex) rebalance(h memory.Handle) memory.Handle {
	t.updateHeight(h)
	switch bf := t.balanceFactor(h); {
	case bf > 1:
		if t.balanceFactor(t.node(h).left) < 0 {
			t.rotateLeft(t.node(h).left)
		}
		t.rebalances++
		return t.rotateRight(h)
	case bf < -1:
		if t.balanceFactor(t.node(h).right) > 0 {
			t.rotateRight(t.node(h).right)
		}
		t.rebalances++
		return t.rotateLeft(h)
	}
	return h
}

// retrace walks from h to the root fixing heights and balance.
func (t *PriceIndex) retrace(h memory.Handle) {
	for h != memory.Nil {
		h = t.rebalance(h)
		h = t.node(h).parent
	}
}
