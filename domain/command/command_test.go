package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"matchbook/domain/orderbook"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cmd  Command
		err  error
	}{
		{"market", Command{Op: OpMarket, ID: 1, Side: orderbook.Buy, Qty: 5}, nil},
		{"cancel needs no side", Command{Op: OpCancelLimit, ID: 1, Side: 9}, nil},
		{"modify needs no side", Command{Op: OpModifyLimit, ID: 1, Side: 9, Qty: 1, Price: 2}, nil},
		{"unknown op", Command{Op: 42}, ErrUnknownOp},
		{"bad side", Command{Op: OpAddLimit, Side: 3, Qty: 1, Price: 1}, orderbook.ErrInvalidSide},
		{"zero qty", Command{Op: OpMarket, Side: orderbook.Sell}, orderbook.ErrInvalidQuantity},
		{"limit without price", Command{Op: OpAddLimitMarket, Side: orderbook.Sell, Qty: 1}, orderbook.ErrInvalidPrice},
		{"stop without trigger", Command{Op: OpAddStop, Side: orderbook.Sell, Qty: 1, Price: 5}, orderbook.ErrInvalidPrice},
		{"stop-limit needs both", Command{Op: OpModifyStopLimit, Qty: 1, StopPrice: 5}, orderbook.ErrInvalidPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cmd.Validate()
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestApplyRoutesEveryOp(t *testing.T) {
	b := orderbook.NewOrderBook()
	steps := []Command{
		{Op: OpAddLimit, ID: 1, Side: orderbook.Buy, Qty: 10, Price: 100},
		{Op: OpModifyLimit, ID: 1, Qty: 8, Price: 101},
		{Op: OpAddStop, ID: 2, Side: orderbook.Sell, Qty: 3, StopPrice: 90},
		{Op: OpModifyStop, ID: 2, Qty: 4, StopPrice: 91},
		{Op: OpAddStopLimit, ID: 3, Side: orderbook.Sell, Qty: 3, Price: 85, StopPrice: 89},
		{Op: OpModifyStopLimit, ID: 3, Qty: 2, Price: 84, StopPrice: 88},
		{Op: OpAddLimitMarket, ID: 4, Side: orderbook.Sell, Qty: 2, Price: 101},
		{Op: OpMarket, ID: 5, Side: orderbook.Sell, Qty: 1},
		{Op: OpCancelStopLimit, ID: 3},
		{Op: OpCancelStop, ID: 2},
		{Op: OpCancelLimit, ID: 1},
	}
	for _, c := range steps {
		require.NoError(t, c.Validate(), c.Op.String())
		_, err := c.Apply(b)
		require.NoError(t, err, c.Op.String())
	}
	assert.Equal(t, 0, b.Len())
	require.NoError(t, b.CheckInvariants())

	_, err := Command{Op: 99}.Apply(b)
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestOpNames(t *testing.T) {
	for op := OpMarket; op <= OpModifyStopLimit; op++ {
		got, ok := ParseOp(op.String())
		require.True(t, ok, op.String())
		assert.Equal(t, op, got)
	}
	_, ok := ParseOp("Limit")
	assert.False(t, ok)
	assert.Equal(t, "Op(200)", Op(200).String())
}

func TestBinaryEncoding(t *testing.T) {
	in := Command{Op: OpAddStopLimit, ID: 1 << 40, Side: orderbook.Buy, Qty: 250, Price: 101, StopPrice: 99}
	b, err := in.MarshalBinary()
	require.NoError(t, err)

	var out Command
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, in, out)

	// Sell is the zero side and is omitted on the wire.
	b, err = Command{Op: OpMarket, ID: 7, Side: orderbook.Sell, Qty: 3}.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, orderbook.Sell, out.Side)
	assert.Equal(t, int64(3), out.Qty)
	assert.Zero(t, out.Price)
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	in := Command{Op: OpCancelLimit, ID: 12}
	b, err := in.MarshalBinary()
	require.NoError(t, err)
	b = protowire.AppendTag(b, 15, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))
	b = protowire.AppendTag(b, 16, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)

	var out Command
	require.NoError(t, out.UnmarshalBinary(b))
	assert.Equal(t, in, out)
}

func TestUnmarshalRejectsTruncatedPayload(t *testing.T) {
	b, err := Command{Op: OpMarket, ID: 1 << 50, Qty: 1}.MarshalBinary()
	require.NoError(t, err)

	var out Command
	assert.ErrorIs(t, out.UnmarshalBinary(b[:4]), ErrMalformed)
}
