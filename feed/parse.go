package feed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"matchbook/domain/command"
	"matchbook/domain/orderbook"
)

var ErrSyntax = errors.New("feed: syntax error")

// field order after the directive, per op
const (
	fID = iota
	fSide
	fQty
	fPrice
	fStop
)

var layouts = map[command.Op][]int{
	command.OpMarket:          {fID, fSide, fQty},
	command.OpAddLimit:        {fID, fSide, fQty, fPrice},
	command.OpAddLimitMarket:  {fID, fSide, fQty, fPrice},
	command.OpCancelLimit:     {fID},
	command.OpModifyLimit:     {fID, fQty, fPrice},
	command.OpAddStop:         {fID, fSide, fQty, fStop},
	command.OpCancelStop:      {fID},
	command.OpModifyStop:      {fID, fQty, fStop},
	command.OpAddStopLimit:    {fID, fSide, fQty, fPrice, fStop},
	command.OpCancelStopLimit: {fID},
	command.OpModifyStopLimit: {fID, fQty, fPrice, fStop},
}

// Parse turns one line into a command. It checks the shape of the line
// only; Command.Validate checks the values.
func Parse(line string) (command.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command.Command{}, fmt.Errorf("%w: empty line", ErrSyntax)
	}
	op, ok := command.ParseOp(fields[0])
	if !ok {
		return command.Command{}, fmt.Errorf("%w: %q", command.ErrUnknownOp, fields[0])
	}
	layout := layouts[op]
	args := fields[1:]
	if len(args) != len(layout) {
		return command.Command{}, fmt.Errorf("%w: %s takes %d fields, got %d", ErrSyntax, op, len(layout), len(args))
	}

	cmd := command.Command{Op: op}
	for i, f := range layout {
		switch f {
		case fID:
			id, err := strconv.ParseUint(args[i], 10, 64)
			if err != nil {
				return command.Command{}, fmt.Errorf("%w: id %q", ErrSyntax, args[i])
			}
			cmd.ID = id
		case fSide:
			switch args[i] {
			case "1":
				cmd.Side = orderbook.Buy
			case "0":
				cmd.Side = orderbook.Sell
			default:
				return command.Command{}, fmt.Errorf("%w: side %q", ErrSyntax, args[i])
			}
		default:
			v, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				return command.Command{}, fmt.Errorf("%w: %q", ErrSyntax, args[i])
			}
			switch f {
			case fQty:
				cmd.Qty = v
			case fPrice:
				cmd.Price = v
			case fStop:
				cmd.StopPrice = v
			}
		}
	}
	return cmd, nil
}

// Format is the inverse of Parse.
func Format(cmd command.Command) string {
	layout, ok := layouts[cmd.Op]
	if !ok {
		return cmd.Op.String()
	}
	var b strings.Builder
	b.WriteString(cmd.Op.String())
	for _, f := range layout {
		b.WriteByte(' ')
		switch f {
		case fID:
			b.WriteString(strconv.FormatUint(cmd.ID, 10))
		case fSide:
			if cmd.Side == orderbook.Buy {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		case fQty:
			b.WriteString(strconv.FormatInt(cmd.Qty, 10))
		case fPrice:
			b.WriteString(strconv.FormatInt(cmd.Price, 10))
		case fStop:
			b.WriteString(strconv.FormatInt(cmd.StopPrice, 10))
		}
	}
	return b.String()
}
