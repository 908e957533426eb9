package orderbook

import "matchbook/infra/memory"

type Side uint8
type Kind uint8

// Side values match the feed encoding (1 = buy, 0 = sell).
const (
	Sell Side = iota
	Buy
)

const (
	KindLimit Kind = iota
	KindStop
	KindStopLimit
)

// NoPrice marks an order without a limit price (pure market or stop).
const NoPrice int64 = 0

func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

func (k Kind) String() string {
	switch k {
	case KindLimit:
		return "limit"
	case KindStop:
		return "stop"
	case KindStopLimit:
		return "stop-limit"
	default:
		return "unknown"
	}
}

// Order is a resting order. It lives in the book's order arena and is
// linked into exactly one PriceLevel queue.
type Order struct {
	ID         uint64
	Side       Side
	Kind       Kind
	Shares     int64
	LimitPrice int64
	StopPrice  int64

	// EntryTime is the book clock when the order started resting,
	// EventTime the clock of its last fill.
	EntryTime uint64
	EventTime uint64

	level memory.Handle
	prev  memory.Handle
	next  memory.Handle
}

// OrderView is a read-only copy of a resting order.
type OrderView struct {
	ID         uint64
	Side       Side
	Kind       Kind
	Shares     int64
	LimitPrice int64
	StopPrice  int64
	EntryTime  uint64
	EventTime  uint64
}

func (o *Order) view() OrderView {
	return OrderView{
		ID:         o.ID,
		Side:       o.Side,
		Kind:       o.Kind,
		Shares:     o.Shares,
		LimitPrice: o.LimitPrice,
		StopPrice:  o.StopPrice,
		EntryTime:  o.EntryTime,
		EventTime:  o.EventTime,
	}
}
