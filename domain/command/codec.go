package command

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"matchbook/domain/orderbook"
)

// Field numbers of the journal encoding. They are the wire contract of
// the entry WAL; never renumber.
const (
	fieldOp        protowire.Number = 1
	fieldID        protowire.Number = 2
	fieldSide      protowire.Number = 3
	fieldQty       protowire.Number = 4
	fieldPrice     protowire.Number = 5
	fieldStopPrice protowire.Number = 6
)

var ErrMalformed = errors.New("malformed command payload")

// MarshalBinary encodes c in protobuf wire format. Zero fields are
// omitted like proto3 scalars.
func (c Command) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 32)
	b = appendVarint(b, fieldOp, uint64(c.Op))
	b = appendVarint(b, fieldID, c.ID)
	b = appendVarint(b, fieldSide, uint64(c.Side))
	b = appendVarint(b, fieldQty, protowire.EncodeZigZag(c.Qty))
	b = appendVarint(b, fieldPrice, protowire.EncodeZigZag(c.Price))
	b = appendVarint(b, fieldStopPrice, protowire.EncodeZigZag(c.StopPrice))
	return b, nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// UnmarshalBinary decodes the wire format. Unknown fields are skipped.
func (c *Command) UnmarshalBinary(b []byte) error {
	*c = Command{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case fieldOp:
			c.Op = Op(v)
		case fieldID:
			c.ID = v
		case fieldSide:
			c.Side = orderbook.Side(v)
		case fieldQty:
			c.Qty = protowire.DecodeZigZag(v)
		case fieldPrice:
			c.Price = protowire.DecodeZigZag(v)
		case fieldStopPrice:
			c.StopPrice = protowire.DecodeZigZag(v)
		}
	}
	return nil
}
