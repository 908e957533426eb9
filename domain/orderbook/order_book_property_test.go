package orderbook

import (
	"testing"

	"pgregory.net/rapid"
)

// Resting limits on disjoint price bands never cross, so cancelling all
// of them in any order must leave a book equal to a fresh one.
func TestPropertyInsertCancelRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewOrderBook()
		n := rapid.IntRange(1, 200).Draw(t, "n")

		ids := make([]uint64, 0, n)
		for i := 0; i < n; i++ {
			id := uint64(i + 1)
			side := Side(rapid.IntRange(0, 1).Draw(t, "side"))
			price := rapid.Int64Range(1, 100).Draw(t, "price")
			if side == Sell {
				price += 100
			}
			qty := rapid.Int64Range(1, 1000).Draw(t, "qty")
			if _, err := b.AddLimit(id, side, qty, price); err != nil {
				t.Fatalf("add %d: %v", id, err)
			}
			ids = append(ids, id)
		}
		if err := b.CheckInvariants(); err != nil {
			t.Fatal(err)
		}

		for _, id := range rapid.Permutation(ids).Draw(t, "cancel order") {
			if _, err := b.CancelLimit(id); err != nil {
				t.Fatalf("cancel %d: %v", id, err)
			}
		}
		if err := b.CheckInvariants(); err != nil {
			t.Fatal(err)
		}

		if b.Len() != 0 || b.orders.Live() != 0 || b.levels.Live() != 0 {
			t.Fatalf("book not empty: %d orders, %d live slots, %d levels", b.Len(), b.orders.Live(), b.levels.Live())
		}
		for _, tree := range []Tree{BuyTree, SellTree, StopBuyTree, StopSellTree} {
			if b.LevelCount(tree) != 0 || len(b.trees[tree].levels) != 0 {
				t.Fatalf("%s tree not empty", tree)
			}
			if _, ok := b.Best(tree); ok {
				t.Fatalf("%s tree still has a best level", tree)
			}
		}
	})
}

// Any mix of operations keeps every structural invariant, leaves the
// book uncrossed and leaves no stop that the current market triggers.
func TestPropertyRandomOperationsKeepInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewOrderBook()
		var next uint64
		newID := func() uint64 {
			next++
			return next
		}
		anyID := func() uint64 {
			if next == 0 {
				return 1
			}
			return rapid.Uint64Range(1, next).Draw(t, "id")
		}
		price := rapid.Int64Range(90, 110)
		qty := rapid.Int64Range(1, 50)

		steps := rapid.IntRange(1, 300).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			side := Side(rapid.IntRange(0, 1).Draw(t, "side"))
			switch rapid.IntRange(0, 9).Draw(t, "op") {
			case 0:
				_, _ = b.Market(newID(), side, qty.Draw(t, "qty"))
			case 1, 2, 3:
				_, _ = b.AddLimit(newID(), side, qty.Draw(t, "qty"), price.Draw(t, "price"))
			case 4:
				_, _ = b.CancelLimit(anyID())
			case 5:
				_, _ = b.ModifyLimit(anyID(), qty.Draw(t, "qty"), price.Draw(t, "price"))
			case 6:
				_, _ = b.AddStop(newID(), side, qty.Draw(t, "qty"), price.Draw(t, "stop"))
			case 7:
				_, _ = b.AddStopLimit(newID(), side, qty.Draw(t, "qty"), price.Draw(t, "limit"), price.Draw(t, "stop"))
			case 8:
				_, _ = b.CancelStop(anyID())
			case 9:
				_, _ = b.ModifyStopLimit(anyID(), qty.Draw(t, "qty"), price.Draw(t, "limit"), price.Draw(t, "stop"))
			}

			if err := b.CheckInvariants(); err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
			checkQuiet(t, b)
		}
	})
}

func checkQuiet(t *rapid.T, b *OrderBook) {
	if stop, ok := b.BestStopBuy(); ok {
		if sell, ok := b.BestSell(); ok && sell.Price >= stop.Price {
			t.Fatalf("buy stop %d left untriggered with best sell %d", stop.Price, sell.Price)
		}
	}
	if stop, ok := b.BestStopSell(); ok {
		if buy, ok := b.BestBuy(); ok && buy.Price <= stop.Price {
			t.Fatalf("sell stop %d left untriggered with best buy %d", stop.Price, buy.Price)
		}
	}
}

// Two orders at one price always fill in the order they arrived.
func TestPropertyPriceTimePriority(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewOrderBook()
		p := rapid.Int64Range(1, 1000).Draw(t, "price")
		first := rapid.Int64Range(1, 100).Draw(t, "first")
		second := rapid.Int64Range(1, 100).Draw(t, "second")
		take := rapid.Int64Range(1, first+second).Draw(t, "take")

		_, _ = b.AddLimit(1, Sell, first, p)
		_, _ = b.AddLimit(2, Sell, second, p)
		res, err := b.Market(3, Buy, take)
		if err != nil {
			t.Fatal(err)
		}
		if res.Trades[0].Maker != 1 {
			t.Fatalf("first fill went to %d", res.Trades[0].Maker)
		}
		if take > first {
			if len(res.Trades) != 2 || res.Trades[1].Maker != 2 {
				t.Fatalf("unexpected fills %+v", res.Trades)
			}
		}
		if _, ok := b.Order(1); ok && take >= first {
			t.Fatal("first order still rests after being consumed")
		}
	})
}
