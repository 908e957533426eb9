package orderbook

import (
	"fmt"

	"matchbook/infra/memory"
)

// Tree names one of the four price indexes of the book.
type Tree uint8

const (
	BuyTree Tree = iota
	SellTree
	StopBuyTree
	StopSellTree
)

var treeNames = [...]string{"buy", "sell", "stop-buy", "stop-sell"}

func (t Tree) String() string {
	if int(t) < len(treeNames) {
		return treeNames[t]
	}
	return "unknown"
}

// ParseTree is the inverse of Tree.String.
func ParseTree(s string) (Tree, bool) {
	for i, name := range treeNames {
		if name == s {
			return Tree(i), true
		}
	}
	return 0, false
}

type bookTree struct {
	index  *PriceIndex
	levels map[int64]memory.Handle
}

// OrderBook is single-writer and deterministic. It owns every order and
// level it creates; callers only ever see copies.
type OrderBook struct {
	orders *memory.Arena[Order]
	levels *memory.Arena[PriceLevel]
	q      queue

	trees [4]bookTree
	byID  map[uint64]memory.Handle

	sample    [3]idSet
	sampleMin [3]int

	clock uint64

	// per-call accumulator, see begin/end
	res  Result
	mark int
}

type Option func(*OrderBook)

// WithSampleMinimum sets the population a kind must exceed before
// RandomOrder returns orders of that kind.
func WithSampleMinimum(kind Kind, n int) Option {
	return func(b *OrderBook) {
		if int(kind) < len(b.sampleMin) {
			b.sampleMin[kind] = n
		}
	}
}

// WithCapacity pre-sizes the order and level arenas.
func WithCapacity(orders, levels int) Option {
	return func(b *OrderBook) {
		b.orders = memory.NewArena[Order](orders)
		b.levels = memory.NewArena[PriceLevel](levels)
	}
}

func NewOrderBook(opts ...Option) *OrderBook {
	b := &OrderBook{
		orders:    memory.NewArena[Order](1024),
		levels:    memory.NewArena[PriceLevel](256),
		byID:      make(map[uint64]memory.Handle),
		sampleMin: [3]int{DefaultLimitSampleMin, DefaultStopSampleMin, DefaultStopLimitSampleMin},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.q = queue{orders: b.orders, levels: b.levels}

	prefer := [4]Extreme{BuyTree: Highest, SellTree: Lowest, StopBuyTree: Lowest, StopSellTree: Highest}
	for i := range b.trees {
		b.trees[i] = bookTree{
			index:  NewPriceIndex(b.levels, prefer[i]),
			levels: make(map[int64]memory.Handle),
		}
	}
	for i := range b.sample {
		b.sample[i] = newIDSet()
	}
	return b
}

// ---- order lifecycle ----

// Market sweeps the opposite side for qty shares. Whatever the book
// cannot fill is dropped and reported in Result.Dropped.
func (b *OrderBook) Market(id uint64, side Side, qty int64) (Result, error) {
	if err := checkOrder(side, qty); err != nil {
		return Result{}, err
	}
	b.begin()
	b.market(id, side, qty)
	b.cascade()
	return b.end(), nil
}

// AddLimit matches what is marketable at price or better and rests the rest.
func (b *OrderBook) AddLimit(id uint64, side Side, qty, price int64) (Result, error) {
	if err := b.checkNew(id, side, qty, price); err != nil {
		return Result{}, err
	}
	b.begin()
	b.limit(id, side, qty, price)
	b.cascade()
	return b.end(), nil
}

func (b *OrderBook) CancelLimit(id uint64) (Result, error) {
	return b.cancel(id, KindLimit)
}

// ModifyLimit cancels the order and submits it again with the new
// quantity and price. It loses time priority and may match at once.
func (b *OrderBook) ModifyLimit(id uint64, qty, price int64) (Result, error) {
	if err := checkAmounts(qty, price); err != nil {
		return Result{}, err
	}
	oh, err := b.lookup(id, KindLimit)
	if err != nil {
		return Result{}, err
	}
	side := b.orders.At(oh).Side

	b.begin()
	b.removeOrder(oh)
	b.limit(id, side, qty, price)
	b.cascade()
	return b.end(), nil
}

// AddStop rests a stop order, or runs it as a market order when the
// trigger is already crossed.
func (b *OrderBook) AddStop(id uint64, side Side, qty, stopPrice int64) (Result, error) {
	if err := b.checkNew(id, side, qty, stopPrice); err != nil {
		return Result{}, err
	}
	b.begin()
	b.stop(id, side, KindStop, qty, NoPrice, stopPrice)
	b.cascade()
	return b.end(), nil
}

func (b *OrderBook) CancelStop(id uint64) (Result, error) {
	return b.cancel(id, KindStop)
}

func (b *OrderBook) ModifyStop(id uint64, qty, stopPrice int64) (Result, error) {
	if err := checkAmounts(qty, stopPrice); err != nil {
		return Result{}, err
	}
	oh, err := b.lookup(id, KindStop)
	if err != nil {
		return Result{}, err
	}
	side := b.orders.At(oh).Side

	b.begin()
	b.removeOrder(oh)
	b.stop(id, side, KindStop, qty, NoPrice, stopPrice)
	b.cascade()
	return b.end(), nil
}

// AddStopLimit rests a stop-limit order, or submits it as a limit order
// when the trigger is already crossed.
func (b *OrderBook) AddStopLimit(id uint64, side Side, qty, limitPrice, stopPrice int64) (Result, error) {
	if err := b.checkNew(id, side, qty, stopPrice); err != nil {
		return Result{}, err
	}
	if limitPrice <= 0 {
		return Result{}, fmt.Errorf("%w: limit %d", ErrInvalidPrice, limitPrice)
	}
	b.begin()
	b.stop(id, side, KindStopLimit, qty, limitPrice, stopPrice)
	b.cascade()
	return b.end(), nil
}

func (b *OrderBook) CancelStopLimit(id uint64) (Result, error) {
	return b.cancel(id, KindStopLimit)
}

func (b *OrderBook) ModifyStopLimit(id uint64, qty, limitPrice, stopPrice int64) (Result, error) {
	if err := checkAmounts(qty, stopPrice); err != nil {
		return Result{}, err
	}
	if limitPrice <= 0 {
		return Result{}, fmt.Errorf("%w: limit %d", ErrInvalidPrice, limitPrice)
	}
	oh, err := b.lookup(id, KindStopLimit)
	if err != nil {
		return Result{}, err
	}
	side := b.orders.At(oh).Side

	b.begin()
	b.removeOrder(oh)
	b.stop(id, side, KindStopLimit, qty, limitPrice, stopPrice)
	b.cascade()
	return b.end(), nil
}

func (b *OrderBook) cancel(id uint64, kind Kind) (Result, error) {
	oh, err := b.lookup(id, kind)
	if err != nil {
		return Result{}, err
	}
	b.begin()
	b.removeOrder(oh)
	b.cascade()
	return b.end(), nil
}

// ---- per-call accounting ----

func (b *OrderBook) begin() {
	b.clock++
	b.res = Result{}
	b.mark = b.rebalances()
}

func (b *OrderBook) end() Result {
	r := b.res
	r.Rebalances = b.rebalances() - b.mark
	b.res = Result{}
	return r
}

func (b *OrderBook) rebalances() int {
	n := 0
	for i := range b.trees {
		n += b.trees[i].index.Rebalances()
	}
	return n
}

// ---- validation ----

func checkOrder(side Side, qty int64) error {
	if !side.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSide, side)
	}
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	return nil
}

func checkAmounts(qty, price int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if price <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPrice, price)
	}
	return nil
}

func (b *OrderBook) checkNew(id uint64, side Side, qty, price int64) error {
	if err := checkOrder(side, qty); err != nil {
		return err
	}
	if price <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPrice, price)
	}
	if _, ok := b.byID[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateOrder, id)
	}
	return nil
}

func (b *OrderBook) lookup(id uint64, kind Kind) (memory.Handle, error) {
	oh, ok := b.byID[id]
	if !ok {
		return memory.Nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if k := b.orders.At(oh).Kind; k != kind {
		return memory.Nil, fmt.Errorf("%w: order %d is a %s order, not %s", ErrNotFound, id, k, kind)
	}
	return oh, nil
}

func (b *OrderBook) tree(side Side, stop bool) *bookTree {
	return &b.trees[treeOf(side, stop)]
}

func treeOf(side Side, stop bool) Tree {
	switch {
	case stop && side == Buy:
		return StopBuyTree
	case stop:
		return StopSellTree
	case side == Buy:
		return BuyTree
	default:
		return SellTree
	}
}
