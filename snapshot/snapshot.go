package snapshot

import (
	"time"

	"matchbook/domain/orderbook"
)

const FileName = "snapshot.bin"

type Snapshot struct {
	Seq     uint64
	Created time.Time
	Orders  []OrderEntry
}

type OrderEntry struct {
	ID         uint64
	Side       uint8
	Kind       uint8
	Shares     int64
	LimitPrice int64
	StopPrice  int64
}

// Capture copies the resting orders of book. The caller must hold the
// book's writer lock.
func Capture(seq uint64, book *orderbook.OrderBook) *Snapshot {
	s := &Snapshot{
		Seq:     seq,
		Created: time.Now(),
		Orders:  make([]OrderEntry, 0, book.Len()),
	}
	book.Walk(func(o orderbook.OrderView) bool {
		s.Orders = append(s.Orders, OrderEntry{
			ID:         o.ID,
			Side:       uint8(o.Side),
			Kind:       uint8(o.Kind),
			Shares:     o.Shares,
			LimitPrice: o.LimitPrice,
			StopPrice:  o.StopPrice,
		})
		return true
	})
	return s
}
