package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/domain/orderbook"
)

func TestTextTrade(t *testing.T) {
	var out bytes.Buffer
	r := NewText(&out)

	r.Trade(orderbook.Trade{RestingID: "S1", RestingPrice: 100, IncomingID: "B1", IncomingPrice: 101, Qty: 5})
	require.NoError(t, r.Flush())

	assert.Equal(t, "TRADE S1 100 5 B1 101 5\n", out.String())
}

func TestTextBook(t *testing.T) {
	var out bytes.Buffer
	r := NewText(&out)

	r.Book(orderbook.Snapshot{
		Asks: []orderbook.Level{{Price: 120, Qty: 2}, {Price: 110, Qty: 4}},
		Bids: []orderbook.Level{{Price: 95, Qty: 5}},
	})
	require.NoError(t, r.Flush())

	assert.Equal(t, "SELL:\n120 2\n110 4\nBUY:\n95 5\n", out.String())
}

func TestTextEmptyBook(t *testing.T) {
	var out bytes.Buffer
	r := NewText(&out)

	r.Book(orderbook.Snapshot{})
	require.NoError(t, r.Flush())

	assert.Equal(t, "SELL:\nBUY:\n", out.String())
}
