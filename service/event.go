package service

import (
	"time"

	"github.com/google/uuid"

	"matchbook/domain/command"
	"matchbook/domain/orderbook"
)

// ExecutionEvent is the outbox payload for a command that traded.
type ExecutionEvent struct {
	EventID   uuid.UUID      `json:"event_id"`
	Seq       uint64         `json:"seq"`
	Time      time.Time      `json:"time"`
	Op        string         `json:"op"`
	OrderID   uint64         `json:"order_id"`
	Filled    int            `json:"filled"`
	Partials  int            `json:"partials"`
	Triggered int            `json:"triggered"`
	Dropped   int64          `json:"dropped"`
	Trades    []TradeMessage `json:"trades"`
}

type TradeMessage struct {
	Seq       uint64 `json:"seq"`
	Taker     uint64 `json:"taker"`
	Maker     uint64 `json:"maker"`
	TakerSide string `json:"taker_side"`
	Price     int64  `json:"price"`
	Shares    int64  `json:"shares"`
}

// TopOfBook is the best price and its resting volume on each side.
type TopOfBook struct {
	Seq       uint64 `json:"seq"`
	BidPrice  int64  `json:"bid_price,omitempty"`
	BidVolume int64  `json:"bid_volume,omitempty"`
	AskPrice  int64  `json:"ask_price,omitempty"`
	AskVolume int64  `json:"ask_volume,omitempty"`
}

func newExecutionEvent(seq uint64, cmd command.Command, res orderbook.Result) ExecutionEvent {
	return ExecutionEvent{
		EventID:   uuid.New(),
		Seq:       seq,
		Time:      time.Now().UTC(),
		Op:        cmd.Op.String(),
		OrderID:   cmd.ID,
		Filled:    res.Filled,
		Partials:  res.Partials,
		Triggered: res.Triggered,
		Dropped:   res.Dropped,
		Trades:    tradeMessages(seq, res.Trades),
	}
}

func tradeMessages(seq uint64, trades []orderbook.Trade) []TradeMessage {
	out := make([]TradeMessage, len(trades))
	for i, tr := range trades {
		out[i] = TradeMessage{
			Seq:       seq,
			Taker:     tr.Taker,
			Maker:     tr.Maker,
			TakerSide: tr.TakerSide.String(),
			Price:     tr.Price,
			Shares:    tr.Shares,
		}
	}
	return out
}

func topOf(seq uint64, book *orderbook.OrderBook) TopOfBook {
	top := TopOfBook{Seq: seq}
	if lvl, ok := book.BestBuy(); ok {
		top.BidPrice, top.BidVolume = lvl.Price, lvl.TotalVolume
	}
	if lvl, ok := book.BestSell(); ok {
		top.AskPrice, top.AskVolume = lvl.Price, lvl.TotalVolume
	}
	return top
}

// marketUpdate is queued by the writer and fanned out by the
// dispatcher goroutine.
type marketUpdate struct {
	trades []TradeMessage
	top    TopOfBook
}
