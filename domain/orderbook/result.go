package orderbook

// Trade is one fill between an incoming order and a resting one.
type Trade struct {
	Taker     uint64
	Maker     uint64
	TakerSide Side
	Price     int64
	Shares    int64
}

// Result reports what a single book operation did, including any stop
// cascade it set off.
type Result struct {
	// Filled counts resting orders fully executed, Partials those
	// executed only in part.
	Filled   int
	Partials int

	// Rebalances counts AVL rotation cases over all four trees.
	Rebalances int

	// Triggered counts stop and stop-limit orders activated.
	Triggered int

	// Dropped is market quantity that found no liquidity and was discarded.
	Dropped int64

	Trades []Trade
}

func (r Result) Executed() int {
	return r.Filled + r.Partials
}

func (r Result) PartiallyFilled() bool {
	return r.Partials > 0
}

// Volume is the total traded quantity.
func (r Result) Volume() int64 {
	var v int64
	for _, tr := range r.Trades {
		v += tr.Shares
	}
	return v
}
