package orderbook

import (
	"errors"
	"fmt"

	"matchbook/infra/memory"
)

// CheckInvariants walks the whole book and reports every structural
// inconsistency it finds. It is O(n) and meant for tests and debugging.
func (b *OrderBook) CheckInvariants() error {
	var errs []error
	levels, orders := 0, 0

	for i := range b.trees {
		tree := Tree(i)
		tr := &b.trees[i]
		errs = append(errs, b.checkTree(tree, tr)...)

		levels += tr.index.Len()
		tr.index.Ascend(func(lh memory.Handle) bool {
			n, err := b.checkLevel(tree, lh)
			orders += n
			errs = append(errs, err...)
			return true
		})
	}

	if levels != b.levels.Live() {
		errs = append(errs, fmt.Errorf("%d levels indexed, %d allocated", levels, b.levels.Live()))
	}
	if orders != len(b.byID) || orders != b.orders.Live() {
		errs = append(errs, fmt.Errorf("%d orders queued, %d by id, %d allocated", orders, len(b.byID), b.orders.Live()))
	}
	sampled := 0
	for i := range b.sample {
		sampled += b.sample[i].len()
	}
	if sampled != len(b.byID) {
		errs = append(errs, fmt.Errorf("%d orders sampled, %d by id", sampled, len(b.byID)))
	}

	bb, sb := b.trees[BuyTree].index.Best(), b.trees[SellTree].index.Best()
	if bb != memory.Nil && sb != memory.Nil && b.levels.At(bb).Price >= b.levels.At(sb).Price {
		errs = append(errs, fmt.Errorf("book crossed: best buy %d, best sell %d",
			b.levels.At(bb).Price, b.levels.At(sb).Price))
	}
	return errors.Join(errs...)
}

func (b *OrderBook) checkTree(tree Tree, tr *bookTree) []error {
	var errs []error
	t := tr.index

	if t.root != memory.Nil && b.levels.At(t.root).parent != memory.Nil {
		errs = append(errs, fmt.Errorf("%s: root has a parent", tree))
	}

	count := 0
	var walk func(h, parent memory.Handle, lo, hi *int64) int32
	walk = func(h, parent memory.Handle, lo, hi *int64) int32 {
		if h == memory.Nil {
			return 0
		}
		count++
		n := b.levels.At(h)
		if n.parent != parent {
			errs = append(errs, fmt.Errorf("%s: level %d has a stale parent link", tree, n.Price))
		}
		if (lo != nil && n.Price <= *lo) || (hi != nil && n.Price >= *hi) {
			errs = append(errs, fmt.Errorf("%s: level %d out of order", tree, n.Price))
		}
		lh := walk(n.left, h, lo, &n.Price)
		rh := walk(n.right, h, &n.Price, hi)
		if d := lh - rh; d > 1 || d < -1 {
			errs = append(errs, fmt.Errorf("%s: level %d unbalanced (%d)", tree, n.Price, d))
		}
		height := 1 + max(lh, rh)
		if n.height != height {
			errs = append(errs, fmt.Errorf("%s: level %d height %d, want %d", tree, n.Price, n.height, height))
		}
		if got, ok := tr.levels[n.Price]; !ok || got != h {
			errs = append(errs, fmt.Errorf("%s: level %d missing from price map", tree, n.Price))
		}
		return height
	}
	walk(t.root, memory.Nil, nil, nil)

	if count != t.size || count != len(tr.levels) {
		errs = append(errs, fmt.Errorf("%s: %d nodes, size %d, %d mapped", tree, count, t.size, len(tr.levels)))
	}

	want := t.max(t.root)
	if t.prefer == Lowest {
		want = t.min(t.root)
	}
	if t.best != want {
		errs = append(errs, fmt.Errorf("%s: cached best is stale", tree))
	}
	return errs
}

func (b *OrderBook) checkLevel(tree Tree, lh memory.Handle) (int, []error) {
	var errs []error
	lvl := b.levels.At(lh)
	if treeOf(lvl.Side, lvl.Stop) != tree {
		errs = append(errs, fmt.Errorf("%s: level %d belongs to %s", tree, lvl.Price, treeOf(lvl.Side, lvl.Stop)))
	}
	if lvl.OrderCount == 0 {
		errs = append(errs, fmt.Errorf("%s: empty level %d is still indexed", tree, lvl.Price))
	}

	n := 0
	var volume int64
	prev := memory.Nil
	for oh := lvl.head; oh != memory.Nil; oh = b.orders.At(oh).next {
		o := b.orders.At(oh)
		n++
		volume += o.Shares
		if o.level != lh || o.prev != prev {
			errs = append(errs, fmt.Errorf("%s: order %d has stale queue links", tree, o.ID))
		}
		if o.Shares <= 0 {
			errs = append(errs, fmt.Errorf("%s: order %d rests with %d shares", tree, o.ID, o.Shares))
		}
		if got, ok := b.byID[o.ID]; !ok || got != oh {
			errs = append(errs, fmt.Errorf("%s: order %d missing from id map", tree, o.ID))
		}
		key := o.LimitPrice
		if lvl.Stop {
			key = o.StopPrice
		}
		if key != lvl.Price || o.Side != lvl.Side {
			errs = append(errs, fmt.Errorf("%s: order %d queued at foreign level %d", tree, o.ID, lvl.Price))
		}
		prev = oh
	}
	if lvl.tail != prev {
		errs = append(errs, fmt.Errorf("%s: level %d tail is stale", tree, lvl.Price))
	}
	if n != lvl.OrderCount || volume != lvl.TotalVolume {
		errs = append(errs, fmt.Errorf("%s: level %d counts %d/%d, queue holds %d/%d",
			tree, lvl.Price, lvl.OrderCount, lvl.TotalVolume, n, volume))
	}
	return n, errs
}
