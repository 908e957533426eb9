package orderbook

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook(t *testing.T, opts ...Option) *OrderBook {
	t.Helper()
	b := NewOrderBook(opts...)
	t.Cleanup(func() {
		require.NoError(t, b.CheckInvariants())
	})
	return b
}

func mustLimit(t *testing.T, b *OrderBook, id uint64, side Side, qty, price int64) Result {
	t.Helper()
	res, err := b.AddLimit(id, side, qty, price)
	require.NoError(t, err)
	require.NoError(t, b.CheckInvariants())
	return res
}

func mustMarket(t *testing.T, b *OrderBook, id uint64, side Side, qty int64) Result {
	t.Helper()
	res, err := b.Market(id, side, qty)
	require.NoError(t, err)
	require.NoError(t, b.CheckInvariants())
	return res
}

func mustStop(t *testing.T, b *OrderBook, id uint64, side Side, qty, stop int64) Result {
	t.Helper()
	res, err := b.AddStop(id, side, qty, stop)
	require.NoError(t, err)
	require.NoError(t, b.CheckInvariants())
	return res
}

func bestPrice(t *testing.T, b *OrderBook, tree Tree) int64 {
	t.Helper()
	lvl, ok := b.Best(tree)
	require.True(t, ok, "%s tree is empty", tree)
	return lvl.Price
}

func TestCrossingLimitsExecuteFully(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 1, Buy, 100, 50)
	res := mustLimit(t, b, 2, Sell, 100, 50)

	assert.Equal(t, 1, res.Filled)
	assert.Equal(t, 0, res.Partials)
	assert.Equal(t, []Trade{{Taker: 2, Maker: 1, TakerSide: Sell, Price: 50, Shares: 100}}, res.Trades)

	_, ok := b.Order(1)
	assert.False(t, ok)
	_, ok = b.Order(2)
	assert.False(t, ok)
	_, ok = b.Level(50, Buy)
	assert.False(t, ok)
	_, ok = b.Level(50, Sell)
	assert.False(t, ok)
	_, ok = b.BestBuy()
	assert.False(t, ok)
	_, ok = b.BestSell()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
}

func TestMarketFillsInArrivalOrder(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 1, Buy, 50, 50)
	mustLimit(t, b, 2, Buy, 50, 50)

	res := mustMarket(t, b, 3, Sell, 60)
	assert.Equal(t, 1, res.Filled)
	assert.Equal(t, 1, res.Partials)
	assert.Equal(t, 2, res.Executed())
	assert.True(t, res.PartiallyFilled())
	require.Len(t, res.Trades, 2)
	assert.Equal(t, uint64(1), res.Trades[0].Maker)
	assert.Equal(t, int64(50), res.Trades[0].Shares)
	assert.Equal(t, uint64(2), res.Trades[1].Maker)
	assert.Equal(t, int64(10), res.Trades[1].Shares)

	o, ok := b.Order(2)
	require.True(t, ok)
	assert.Equal(t, int64(40), o.Shares)

	lvl, ok := b.Level(50, Buy)
	require.True(t, ok)
	assert.Equal(t, 1, lvl.OrderCount)
	assert.Equal(t, int64(40), lvl.TotalVolume)
	assert.Equal(t, []uint64{2}, lvl.OrderIDs)
}

func TestMarketRemainderIsDropped(t *testing.T) {
	b := newTestBook(t)
	res := mustMarket(t, b, 1, Buy, 25)
	assert.Equal(t, int64(25), res.Dropped)
	assert.Equal(t, 0, res.Executed())

	mustLimit(t, b, 2, Sell, 10, 70)
	res = mustMarket(t, b, 3, Buy, 25)
	assert.Equal(t, 1, res.Filled)
	assert.Equal(t, int64(15), res.Dropped)
	assert.Equal(t, int64(10), res.Volume())
	assert.Equal(t, 0, b.Len())
}

func TestLimitSweepStopsAtPrice(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 1, Sell, 10, 100)
	mustLimit(t, b, 2, Sell, 10, 101)
	mustLimit(t, b, 3, Sell, 10, 103)

	res := mustLimit(t, b, 4, Buy, 30, 101)
	assert.Equal(t, 2, res.Filled)
	assert.Equal(t, int64(20), res.Volume())

	o, ok := b.Order(4)
	require.True(t, ok)
	assert.Equal(t, int64(10), o.Shares)
	assert.Equal(t, int64(101), o.LimitPrice)
	assert.Equal(t, int64(101), bestPrice(t, b, BuyTree))
	assert.Equal(t, int64(103), bestPrice(t, b, SellTree))
}

func TestBuyStopFiresWhenOfferLiftsThroughStop(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 2, Sell, 100, 55)
	mustLimit(t, b, 3, Sell, 50, 61)

	res := mustStop(t, b, 1, Buy, 100, 60)
	assert.Equal(t, 0, res.Triggered)
	lvl, ok := b.StopLevel(60, Buy)
	require.True(t, ok)
	assert.Equal(t, []uint64{1}, lvl.OrderIDs)
	assert.Equal(t, int64(60), bestPrice(t, b, StopBuyTree))

	res = mustMarket(t, b, 4, Buy, 100)
	assert.Equal(t, 1, res.Triggered)
	assert.Equal(t, 2, res.Filled)
	assert.Equal(t, int64(50), res.Dropped)
	assert.Equal(t, []Trade{
		{Taker: 4, Maker: 2, TakerSide: Buy, Price: 55, Shares: 100},
		{Taker: 1, Maker: 3, TakerSide: Buy, Price: 61, Shares: 50},
	}, res.Trades)

	_, ok = b.BestStopBuy()
	assert.False(t, ok)
	_, ok = b.BestSell()
	assert.False(t, ok)
	_, ok = b.Order(1)
	assert.False(t, ok)
}

func TestSellStopFiresWhenBidFallsThroughStop(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 20, Buy, 10, 100)
	mustLimit(t, b, 21, Buy, 10, 95)
	mustStop(t, b, 22, Sell, 5, 98)
	assert.Equal(t, int64(98), bestPrice(t, b, StopSellTree))

	res := mustMarket(t, b, 23, Sell, 10)
	assert.Equal(t, 1, res.Triggered)
	assert.Equal(t, 1, res.Filled)
	assert.Equal(t, 1, res.Partials)

	o, ok := b.Order(21)
	require.True(t, ok)
	assert.Equal(t, int64(5), o.Shares)
}

func TestStopLimitRestsAsLimitAfterTrigger(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 10, Sell, 10, 100)
	res, err := b.AddStopLimit(11, Buy, 20, 105, 101)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Triggered)
	assert.Equal(t, 1, b.Count(KindStopLimit))

	mustLimit(t, b, 12, Sell, 10, 102)
	res = mustMarket(t, b, 13, Buy, 10)
	assert.Equal(t, 1, res.Triggered)
	assert.Equal(t, 2, res.Filled)

	o, ok := b.Order(11)
	require.True(t, ok)
	assert.Equal(t, KindLimit, o.Kind)
	assert.Equal(t, int64(10), o.Shares)
	assert.Equal(t, int64(105), o.LimitPrice)
	assert.Equal(t, int64(105), bestPrice(t, b, BuyTree))
	assert.Equal(t, 0, b.Count(KindStopLimit))
	assert.Equal(t, 1, b.Count(KindLimit))
}

func TestStopCascadeChainsTriggers(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 30, Sell, 10, 100)
	mustLimit(t, b, 31, Sell, 10, 101)
	mustLimit(t, b, 32, Sell, 10, 102)
	mustStop(t, b, 34, Buy, 10, 102)
	mustStop(t, b, 33, Buy, 10, 101)
	assert.Equal(t, []int64{101, 102}, b.Prices(StopBuyTree))

	res := mustMarket(t, b, 35, Buy, 10)
	assert.Equal(t, 2, res.Triggered)
	assert.Equal(t, 3, res.Filled)
	require.Len(t, res.Trades, 3)
	assert.Equal(t, uint64(33), res.Trades[1].Taker)
	assert.Equal(t, int64(101), res.Trades[1].Price)
	assert.Equal(t, uint64(34), res.Trades[2].Taker)
	assert.Equal(t, int64(102), res.Trades[2].Price)
	assert.Equal(t, 0, b.Len())
}

func TestStopsAtSamePriceFireInArrivalOrder(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 1, Sell, 5, 100)
	mustLimit(t, b, 2, Sell, 10, 110)
	mustStop(t, b, 3, Buy, 4, 105)
	mustStop(t, b, 4, Buy, 4, 105)

	res := mustMarket(t, b, 5, Buy, 5)
	require.Len(t, res.Trades, 3)
	assert.Equal(t, uint64(3), res.Trades[1].Taker)
	assert.Equal(t, uint64(4), res.Trades[2].Taker)
}

func TestStopTriggeredOnEntryExecutesImmediately(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 40, Sell, 10, 100)

	res := mustStop(t, b, 41, Buy, 5, 90)
	assert.Equal(t, 1, res.Triggered)
	assert.Equal(t, 1, res.Partials)
	_, ok := b.Order(41)
	assert.False(t, ok)
	_, ok = b.StopLevel(90, Buy)
	assert.False(t, ok)
}

func TestStopWithEmptyOppositeSideRests(t *testing.T) {
	b := newTestBook(t)
	res := mustStop(t, b, 1, Buy, 5, 90)
	assert.Equal(t, 0, res.Triggered)
	res = mustStop(t, b, 2, Sell, 5, 90)
	assert.Equal(t, 0, res.Triggered)
	assert.Equal(t, 2, b.Count(KindStop))
}

func TestModifyLimitLosesTimePriority(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 1, Buy, 10, 50)
	mustLimit(t, b, 2, Buy, 10, 50)

	_, err := b.ModifyLimit(1, 10, 50)
	require.NoError(t, err)
	lvl, ok := b.Level(50, Buy)
	require.True(t, ok)
	assert.Equal(t, []uint64{2, 1}, lvl.OrderIDs)

	res := mustMarket(t, b, 3, Sell, 10)
	assert.Equal(t, uint64(2), res.Trades[0].Maker)
}

func TestModifyLimitMayMatch(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 1, Buy, 10, 50)
	mustLimit(t, b, 2, Sell, 10, 55)

	res, err := b.ModifyLimit(1, 10, 55)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Filled)
	assert.Equal(t, 0, b.Len())
}

func TestModifyStopMovesLevel(t *testing.T) {
	b := newTestBook(t)
	mustStop(t, b, 1, Sell, 10, 40)
	_, err := b.ModifyStop(1, 20, 45)
	require.NoError(t, err)

	_, ok := b.StopLevel(40, Sell)
	assert.False(t, ok)
	lvl, ok := b.StopLevel(45, Sell)
	require.True(t, ok)
	assert.Equal(t, int64(20), lvl.TotalVolume)

	_, err = b.ModifyStopLimit(1, 20, 44, 45)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = b.AddStopLimit(2, Sell, 5, 39, 41)
	require.NoError(t, err)
	_, err = b.ModifyStopLimit(2, 6, 38, 42)
	require.NoError(t, err)
	o, ok := b.Order(2)
	require.True(t, ok)
	assert.Equal(t, int64(38), o.LimitPrice)
	assert.Equal(t, int64(42), o.StopPrice)
	assert.Equal(t, int64(45), bestPrice(t, b, StopSellTree))

	_, err = b.CancelStopLimit(2)
	require.NoError(t, err)
	_, err = b.CancelStop(1)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestCancelRefreshesBookEdge(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 1, Buy, 10, 50)
	mustLimit(t, b, 2, Buy, 10, 48)
	mustLimit(t, b, 3, Buy, 10, 52)
	mustLimit(t, b, 4, Buy, 10, 49)
	assert.Equal(t, int64(52), bestPrice(t, b, BuyTree))

	_, err := b.CancelLimit(3)
	require.NoError(t, err)
	_, ok := b.Level(52, Buy)
	assert.False(t, ok)
	assert.Equal(t, int64(50), bestPrice(t, b, BuyTree))
	assert.Equal(t, []int64{48, 49, 50}, b.Prices(BuyTree))

	_, err = b.CancelLimit(1)
	require.NoError(t, err)
	assert.Equal(t, int64(49), bestPrice(t, b, BuyTree))

	_, err = b.CancelLimit(4)
	require.NoError(t, err)
	_, err = b.CancelLimit(2)
	require.NoError(t, err)
	_, ok = b.BestBuy()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Height(BuyTree))
}

func TestCancelUnknownIsNoop(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 1, Buy, 10, 50)
	mustStop(t, b, 2, Sell, 10, 40)
	before := b.Prices(BuyTree)

	res, err := b.CancelLimit(99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, before, b.Prices(BuyTree))
	assert.Equal(t, 2, b.Len())

	_, err = b.CancelLimit(2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = b.CancelStop(1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = b.ModifyLimit(99, 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, b.Len())
}

func TestRejectsInvalidInput(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 1, Buy, 10, 50)

	_, err := b.AddLimit(2, Buy, 0, 50)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = b.AddLimit(2, Side(7), 10, 50)
	assert.ErrorIs(t, err, ErrInvalidSide)
	_, err = b.AddLimit(2, Buy, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = b.AddLimit(1, Sell, 10, 60)
	assert.ErrorIs(t, err, ErrDuplicateOrder)
	_, err = b.AddStopLimit(2, Buy, 10, 0, 60)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = b.Market(2, Sell, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = b.ModifyLimit(1, 0, 50)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	assert.Equal(t, 1, b.Len())
	assert.Equal(t, uint64(1), b.Clock())
}

func TestResultCountsRebalances(t *testing.T) {
	b := newTestBook(t)
	assert.Equal(t, 0, mustLimit(t, b, 1, Buy, 1, 1).Rebalances)
	assert.Equal(t, 0, mustLimit(t, b, 2, Buy, 1, 2).Rebalances)
	assert.Equal(t, 1, mustLimit(t, b, 3, Buy, 1, 3).Rebalances)
	assert.Equal(t, 2, b.Height(BuyTree))
}

func TestDepthAndWalk(t *testing.T) {
	b := newTestBook(t)
	mustLimit(t, b, 1, Buy, 10, 50)
	mustLimit(t, b, 2, Buy, 5, 52)
	mustLimit(t, b, 3, Buy, 7, 50)
	mustLimit(t, b, 4, Sell, 3, 60)
	mustStop(t, b, 5, Buy, 1, 70)

	depth := b.Depth(Buy, 1)
	require.Len(t, depth, 1)
	assert.Equal(t, int64(52), depth[0].Price)

	depth = b.Depth(Buy, 0)
	require.Len(t, depth, 2)
	assert.Equal(t, int64(17), depth[1].TotalVolume)
	assert.Equal(t, 2, depth[1].OrderCount)

	var ids []uint64
	b.Walk(func(o OrderView) bool {
		ids = append(ids, o.ID)
		return true
	})
	assert.Equal(t, []uint64{2, 1, 3, 4, 5}, ids)

	ids = ids[:0]
	b.Walk(func(o OrderView) bool {
		ids = append(ids, o.ID)
		return len(ids) < 2
	})
	assert.Equal(t, []uint64{2, 1}, ids)
}

func TestRandomOrderRespectsMinimum(t *testing.T) {
	b := newTestBook(t, WithSampleMinimum(KindLimit, 2), WithSampleMinimum(KindStop, 0))
	r := rand.New(rand.NewPCG(1, 2))

	_, ok := b.RandomOrder(KindStop, r)
	assert.False(t, ok)

	mustLimit(t, b, 1, Buy, 10, 50)
	mustLimit(t, b, 2, Buy, 10, 51)
	_, ok = b.RandomOrder(KindLimit, r)
	assert.False(t, ok)

	mustLimit(t, b, 3, Sell, 10, 60)
	o, ok := b.RandomOrder(KindLimit, r)
	require.True(t, ok)
	assert.Equal(t, KindLimit, o.Kind)
	assert.Contains(t, []uint64{1, 2, 3}, o.ID)

	mustStop(t, b, 4, Sell, 1, 10)
	o, ok = b.RandomOrder(KindStop, r)
	require.True(t, ok)
	assert.Equal(t, uint64(4), o.ID)

	_, ok = b.RandomOrder(Kind(9), r)
	assert.False(t, ok)
}

func TestParseTree(t *testing.T) {
	for _, tree := range []Tree{BuyTree, SellTree, StopBuyTree, StopSellTree} {
		got, ok := ParseTree(tree.String())
		require.True(t, ok)
		assert.Equal(t, tree, got)
	}
	_, ok := ParseTree("bids")
	assert.False(t, ok)
}
