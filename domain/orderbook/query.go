package orderbook

import "matchbook/infra/memory"

// Order returns a copy of the resting order with the given id.
func (b *OrderBook) Order(id uint64) (OrderView, bool) {
	oh, ok := b.byID[id]
	if !ok {
		return OrderView{}, false
	}
	return b.orders.At(oh).view(), true
}

// Level returns the limit level at price on side.
func (b *OrderBook) Level(price int64, side Side) (LevelView, bool) {
	return b.levelAt(b.tree(side, false), price)
}

// StopLevel returns the stop level at stop price on side.
func (b *OrderBook) StopLevel(price int64, side Side) (LevelView, bool) {
	return b.levelAt(b.tree(side, true), price)
}

func (b *OrderBook) levelAt(tr *bookTree, price int64) (LevelView, bool) {
	lh, ok := tr.levels[price]
	if !ok {
		return LevelView{}, false
	}
	return b.q.view(lh), true
}

func (b *OrderBook) BestBuy() (LevelView, bool)      { return b.Best(BuyTree) }
func (b *OrderBook) BestSell() (LevelView, bool)     { return b.Best(SellTree) }
func (b *OrderBook) BestStopBuy() (LevelView, bool)  { return b.Best(StopBuyTree) }
func (b *OrderBook) BestStopSell() (LevelView, bool) { return b.Best(StopSellTree) }

// Best returns the best level of a tree: highest buy, lowest sell,
// lowest stop buy, highest stop sell.
func (b *OrderBook) Best(tree Tree) (LevelView, bool) {
	if int(tree) >= len(b.trees) {
		return LevelView{}, false
	}
	lh := b.trees[tree].index.Best()
	if lh == memory.Nil {
		return LevelView{}, false
	}
	return b.q.view(lh), true
}

// Prices returns the ascending in-order dump of a tree's prices.
func (b *OrderBook) Prices(tree Tree) []int64 {
	if int(tree) >= len(b.trees) {
		return nil
	}
	return b.trees[tree].index.Prices()
}

func (b *OrderBook) Height(tree Tree) int {
	if int(tree) >= len(b.trees) {
		return 0
	}
	return b.trees[tree].index.Height()
}

func (b *OrderBook) LevelCount(tree Tree) int {
	if int(tree) >= len(b.trees) {
		return 0
	}
	return b.trees[tree].index.Len()
}

// Depth returns up to n limit levels of side, best first. n <= 0 means all.
func (b *OrderBook) Depth(side Side, n int) []LevelView {
	tr := b.tree(side, false)
	size := tr.index.Len()
	if n > 0 && n < size {
		size = n
	}
	out := make([]LevelView, 0, size)
	tr.index.FromBest(func(lh memory.Handle) bool {
		out = append(out, b.q.view(lh))
		return len(out) < size
	})
	return out
}

// Walk visits every resting order: buys, sells, stop buys, then stop
// sells; best level first and arrival order inside a level. Stopping
// early is done by returning false.
func (b *OrderBook) Walk(fn func(OrderView) bool) {
	for i := range b.trees {
		cont := true
		b.trees[i].index.FromBest(func(lh memory.Handle) bool {
			for oh := b.levels.At(lh).head; oh != memory.Nil; oh = b.orders.At(oh).next {
				if !fn(b.orders.At(oh).view()) {
					cont = false
					return false
				}
			}
			return true
		})
		if !cont {
			return
		}
	}
}

// Len returns the number of resting orders, stops included.
func (b *OrderBook) Len() int { return len(b.byID) }

// Clock returns the logical time of the last operation.
func (b *OrderBook) Clock() uint64 { return b.clock }
