// Package command is the serializable form of a book operation. Every
// writer (the service, WAL replay, the gRPC API and the text feed)
// builds a Command and applies it, so a journaled command replays to
// exactly the same book state.
package command

import (
	"errors"
	"fmt"

	"matchbook/domain/orderbook"
)

type Op uint8

const (
	OpMarket Op = iota + 1
	OpAddLimit
	OpAddLimitMarket
	OpCancelLimit
	OpModifyLimit
	OpAddStop
	OpCancelStop
	OpModifyStop
	OpAddStopLimit
	OpCancelStopLimit
	OpModifyStopLimit
)

var opNames = map[Op]string{
	OpMarket:          "Market",
	OpAddLimit:        "AddLimit",
	OpAddLimitMarket:  "AddLimitMarket",
	OpCancelLimit:     "CancelLimit",
	OpModifyLimit:     "ModifyLimit",
	OpAddStop:         "AddStop",
	OpCancelStop:      "CancelStop",
	OpModifyStop:      "ModifyStop",
	OpAddStopLimit:    "AddStopLimit",
	OpCancelStopLimit: "CancelStopLimit",
	OpModifyStopLimit: "ModifyStopLimit",
}

// String returns the directive used by the text feed.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// ParseOp is the inverse of Op.String.
func ParseOp(s string) (Op, bool) {
	for op, name := range opNames {
		if name == s {
			return op, true
		}
	}
	return 0, false
}

func (o Op) IsCancel() bool {
	return o == OpCancelLimit || o == OpCancelStop || o == OpCancelStopLimit
}

func (o Op) IsModify() bool {
	return o == OpModifyLimit || o == OpModifyStop || o == OpModifyStopLimit
}

// HasSide reports whether the op carries a side. Cancels and modifies
// act on an existing order and take its side.
func (o Op) HasSide() bool {
	return !o.IsCancel() && !o.IsModify()
}

var ErrUnknownOp = errors.New("unknown command")

// Command is one book operation in primitive form. Price is the limit
// price, StopPrice the trigger; fields an op does not use are zero.
type Command struct {
	Op        Op
	ID        uint64
	Side      orderbook.Side
	Qty       int64
	Price     int64
	StopPrice int64
}

// Validate checks the fields the op needs. The book still validates
// against its own state (duplicate ids, unknown orders).
func (c Command) Validate() error {
	if _, ok := opNames[c.Op]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOp, c.Op)
	}
	if c.Op.HasSide() && !c.Side.Valid() {
		return fmt.Errorf("%w: %d", orderbook.ErrInvalidSide, c.Side)
	}
	if !c.Op.IsCancel() && c.Qty <= 0 {
		return fmt.Errorf("%w: %d", orderbook.ErrInvalidQuantity, c.Qty)
	}
	switch c.Op {
	case OpAddLimit, OpAddLimitMarket, OpModifyLimit:
		if c.Price <= 0 {
			return fmt.Errorf("%w: limit %d", orderbook.ErrInvalidPrice, c.Price)
		}
	case OpAddStop, OpModifyStop:
		if c.StopPrice <= 0 {
			return fmt.Errorf("%w: stop %d", orderbook.ErrInvalidPrice, c.StopPrice)
		}
	case OpAddStopLimit, OpModifyStopLimit:
		if c.Price <= 0 || c.StopPrice <= 0 {
			return fmt.Errorf("%w: limit %d stop %d", orderbook.ErrInvalidPrice, c.Price, c.StopPrice)
		}
	}
	return nil
}

// Apply runs the command against the book.
func (c Command) Apply(b *orderbook.OrderBook) (orderbook.Result, error) {
	switch c.Op {
	case OpMarket:
		return b.Market(c.ID, c.Side, c.Qty)
	case OpAddLimit, OpAddLimitMarket:
		return b.AddLimit(c.ID, c.Side, c.Qty, c.Price)
	case OpCancelLimit:
		return b.CancelLimit(c.ID)
	case OpModifyLimit:
		return b.ModifyLimit(c.ID, c.Qty, c.Price)
	case OpAddStop:
		return b.AddStop(c.ID, c.Side, c.Qty, c.StopPrice)
	case OpCancelStop:
		return b.CancelStop(c.ID)
	case OpModifyStop:
		return b.ModifyStop(c.ID, c.Qty, c.StopPrice)
	case OpAddStopLimit:
		return b.AddStopLimit(c.ID, c.Side, c.Qty, c.Price, c.StopPrice)
	case OpCancelStopLimit:
		return b.CancelStopLimit(c.ID)
	case OpModifyStopLimit:
		return b.ModifyStopLimit(c.ID, c.Qty, c.Price, c.StopPrice)
	}
	return orderbook.Result{}, fmt.Errorf("%w: %d", ErrUnknownOp, c.Op)
}
