package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/domain/orderbook"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"BUY GFD 100 10 B1", Command{Kind: Place, Side: orderbook.Buy, TIF: orderbook.GoodForDay, Price: 100, Qty: 10, ID: "B1"}},
		{"SELL IOC 7 3 order-x", Command{Kind: Place, Side: orderbook.Sell, TIF: orderbook.InsertOrCancel, Price: 7, Qty: 3, ID: "order-x"}},
		{"  BUY \t GFD   100 10   B1  ", Command{Kind: Place, Side: orderbook.Buy, TIF: orderbook.GoodForDay, Price: 100, Qty: 10, ID: "B1"}},
		{"CANCEL B1", Command{Kind: Cancel, ID: "B1"}},
		{"MODIFY B1 SELL 100 10", Command{Kind: Modify, ID: "B1", Side: orderbook.Sell, Price: 100, Qty: 10}},
		{"PRINT", Command{Kind: Print}},
		// zero passes the parser; the book rejects it
		{"BUY GFD 0 10 B1", Command{Kind: Place, Side: orderbook.Buy, TIF: orderbook.GoodForDay, Price: 0, Qty: 10, ID: "B1"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line string
		err  error
	}{
		{"", ErrEmpty},
		{"   ", ErrEmpty},
		{"HOLD GFD 100 10 B1", ErrUnknownCommand},
		{"buy GFD 100 10 B1", ErrUnknownCommand},
		{"BUY GFD 100 10", ErrFieldCount},
		{"BUY GFD 100 10 B1 extra", ErrFieldCount},
		{"CANCEL", ErrFieldCount},
		{"CANCEL a b", ErrFieldCount},
		{"MODIFY B1 SELL 100", ErrFieldCount},
		{"PRINT now", ErrFieldCount},
		{"BUY GTC 100 10 B1", orderbook.ErrInvalidTimeInForce},
		{"MODIFY B1 HOLD 100 10", orderbook.ErrInvalidSide},
		{"BUY GFD abc 10 B1", ErrInvalidNumber},
		{"BUY GFD 100 -10 B1", ErrInvalidNumber},
		{"SELL IOC 1.5 10 B1", ErrInvalidNumber},
		{"MODIFY B1 BUY 100 x", ErrInvalidNumber},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCommandStringRoundTrips(t *testing.T) {
	for _, line := range []string{
		"BUY GFD 100 10 B1",
		"SELL IOC 5 1 S9",
		"CANCEL B1",
		"MODIFY B1 BUY 101 4",
		"PRINT",
	} {
		c, err := Parse(line)
		require.NoError(t, err)
		assert.Equal(t, line, c.String())
	}
}
