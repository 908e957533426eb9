package orderbook

import (
	"math/rand/v2"
	"testing"
)

func BenchmarkAddLimit(b *testing.B) {
	book := NewOrderBook(WithCapacity(b.N, 1024))
	r := rand.New(rand.NewPCG(1, 1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		side := Side(i & 1)
		price := int64(500 + r.IntN(200))
		if side == Sell {
			price += 200
		}
		_, _ = book.AddLimit(uint64(i+1), side, 100, price)
	}
}

func BenchmarkCancelLimit(b *testing.B) {
	book := NewOrderBook(WithCapacity(b.N, 1024))
	for i := 0; i < b.N; i++ {
		_, _ = book.AddLimit(uint64(i+1), Buy, 100, int64(100+i%1000))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = book.CancelLimit(uint64(i + 1))
	}
}

func BenchmarkMarketSweep(b *testing.B) {
	book := NewOrderBook(WithCapacity(b.N*2, 1024))
	id := uint64(0)
	for i := 0; i < b.N; i++ {
		id++
		_, _ = book.AddLimit(id, Sell, 10, int64(1000+i%500))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id++
		_, _ = book.Market(id, Buy, 10)
	}
}

// Mixed stream in the proportions the order generator uses.
func BenchmarkMixedStream(b *testing.B) {
	book := NewOrderBook(WithCapacity(1<<16, 4096), WithSampleMinimum(KindLimit, 100))
	r := rand.New(rand.NewPCG(3, 5))
	id := uint64(0)
	for i := 0; i < 10000; i++ {
		id++
		p := int64(r.NormFloat64()*50 + 500)
		side := Sell
		if p < 500 {
			side = Buy
		}
		_, _ = book.AddLimit(id, side, int64(1+r.IntN(1000)), max(p, 1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id++
		side := Side(r.IntN(2))
		switch r.IntN(4) {
		case 0:
			_, _ = book.Market(id, side, int64(5+r.IntN(5000)))
		case 1:
			_, _ = book.AddLimit(id, side, int64(5+r.IntN(5000)), max(int64(r.NormFloat64()*50+500), 1))
		case 2:
			if o, ok := book.RandomOrder(KindLimit, r); ok {
				_, _ = book.CancelLimit(o.ID)
			}
		case 3:
			_, _ = book.AddStop(id, side, int64(1+r.IntN(100)), max(int64(r.NormFloat64()*50+500), 1))
		}
	}
}
