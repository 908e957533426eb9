package orderbook

import "matchbook/infra/memory"

// market sweeps the opposite side without a price bound.
func (b *OrderBook) market(id uint64, side Side, qty int64) {
	b.res.Dropped += b.sweep(id, side, qty, NoPrice)
}

// limit matches up to price and rests any remainder as a limit order.
func (b *OrderBook) limit(id uint64, side Side, qty, price int64) {
	rem := b.sweep(id, side, qty, price)
	if rem == 0 {
		return
	}
	b.rest(Order{ID: id, Side: side, Kind: KindLimit, Shares: rem, LimitPrice: price})
}

// stop either rests the order in its stop tree or activates it right away.
func (b *OrderBook) stop(id uint64, side Side, kind Kind, qty, limitPrice, stopPrice int64) {
	if b.triggered(side, stopPrice) {
		b.res.Triggered++
		b.activate(id, side, kind, qty, limitPrice)
		return
	}
	b.rest(Order{ID: id, Side: side, Kind: kind, Shares: qty, LimitPrice: limitPrice, StopPrice: stopPrice})
}

func (b *OrderBook) activate(id uint64, side Side, kind Kind, qty, limitPrice int64) {
	if kind == KindStop {
		b.market(id, side, qty)
		return
	}
	b.limit(id, side, qty, limitPrice)
}

// sweep walks the opposite limit tree from its best level, filling the
// oldest order first, until qty is exhausted, the side is empty or the
// next level is outside limit. It returns the unfilled quantity.
func (b *OrderBook) sweep(taker uint64, side Side, qty, limit int64) int64 {
	opp := b.tree(side.Opposite(), false).index
	for qty > 0 {
		lh := opp.Best()
		if lh == memory.Nil {
			break
		}
		price := b.levels.At(lh).Price
		if limit != NoPrice && !crosses(side, limit, price) {
			break
		}

		oh := b.q.front(lh)
		maker := b.orders.At(oh)
		if maker.Shares <= qty {
			qty -= maker.Shares
			b.trade(taker, maker.ID, side, price, maker.Shares)
			b.res.Filled++
			b.removeOrder(oh)
			continue
		}

		b.trade(taker, maker.ID, side, price, qty)
		b.q.fill(oh, qty)
		maker.EventTime = b.clock
		b.res.Partials++
		qty = 0
	}
	return qty
}

// crosses reports whether a taker on side with the given limit may
// trade against a level at price.
func crosses(side Side, limit, price int64) bool {
	if side == Buy {
		return price <= limit
	}
	return price >= limit
}

func (b *OrderBook) trade(taker, maker uint64, side Side, price, shares int64) {
	b.res.Trades = append(b.res.Trades, Trade{
		Taker:     taker,
		Maker:     maker,
		TakerSide: side,
		Price:     price,
		Shares:    shares,
	})
}

// rest appends o to the tail of its level, creating the level if needed.
func (b *OrderBook) rest(o Order) {
	stop := o.Kind != KindLimit
	key := o.LimitPrice
	if stop {
		key = o.StopPrice
	}

	tr := b.tree(o.Side, stop)
	lh, ok := tr.levels[key]
	if !ok {
		lh = b.levels.Alloc()
		*b.levels.At(lh) = PriceLevel{Price: key, Side: o.Side, Stop: stop}
		tr.levels[key] = lh
		tr.index.Insert(lh)
	}

	oh := b.orders.Alloc()
	o.EntryTime, o.EventTime = b.clock, b.clock
	*b.orders.At(oh) = o
	b.q.append(lh, oh)

	b.byID[o.ID] = oh
	b.sample[o.Kind].add(o.ID)
}

// removeOrder unlinks and frees an order, dropping its level when it
// becomes empty.
func (b *OrderBook) removeOrder(oh memory.Handle) {
	o := b.orders.At(oh)
	lh := o.level

	b.q.unlink(oh)
	delete(b.byID, o.ID)
	b.sample[o.Kind].remove(o.ID)
	b.orders.Release(oh)

	if b.levels.At(lh).OrderCount == 0 {
		b.dropLevel(lh)
	}
}

func (b *OrderBook) dropLevel(lh memory.Handle) {
	lvl := b.levels.At(lh)
	tr := b.tree(lvl.Side, lvl.Stop)
	tr.index.Remove(lh)
	delete(tr.levels, lvl.Price)
	b.levels.Release(lh)
}

// triggered reports whether a stop on side at stopPrice is live against
// the current opposite best. An empty opposite side triggers nothing.
func (b *OrderBook) triggered(side Side, stopPrice int64) bool {
	if side == Buy {
		lh := b.trees[SellTree].index.Best()
		return lh != memory.Nil && b.levels.At(lh).Price >= stopPrice
	}
	lh := b.trees[BuyTree].index.Best()
	return lh != memory.Nil && b.levels.At(lh).Price <= stopPrice
}

// cascade fires triggered stops until none is left. Every firing takes
// one order out of a stop tree and nothing is added to one, so the loop
// ends.
func (b *OrderBook) cascade() {
	for {
		fired := b.fire(Buy)
		if b.fire(Sell) {
			fired = true
		}
		if !fired {
			return
		}
	}
}

// fire activates the oldest order of the best stop level on side when
// that level is triggered.
func (b *OrderBook) fire(side Side) bool {
	tr := b.tree(side, true)
	lh := tr.index.Best()
	if lh == memory.Nil || !b.triggered(side, b.levels.At(lh).Price) {
		return false
	}

	oh := b.q.front(lh)
	o := *b.orders.At(oh)
	b.removeOrder(oh)

	b.res.Triggered++
	b.activate(o.ID, o.Side, o.Kind, o.Shares, o.LimitPrice)
	return true
}
