// Package report renders engine events in the line-oriented output protocol.
package report

import (
	"bufio"
	"io"
	"strconv"

	"matchbook/domain/orderbook"
)

// Reporter receives engine output in the order it happens.
type Reporter interface {
	Trade(orderbook.Trade)
	Book(orderbook.Snapshot)
	Flush() error
}

// Text writes the output protocol:
//
//	TRADE <restingId> <restingPrice> <qty> <incomingId> <incomingPrice> <qty>
//	SELL:
//	<price> <qty>
//	BUY:
//	<price> <qty>
type Text struct {
	w   *bufio.Writer
	buf []byte
	err error
}

func NewText(w io.Writer) *Text {
	return &Text{w: bufio.NewWriter(w), buf: make([]byte, 0, 128)}
}

func (t *Text) Trade(tr orderbook.Trade) {
	b := append(t.buf[:0], "TRADE "...)
	b = append(b, tr.RestingID...)
	b = append(b, ' ')
	b = strconv.AppendInt(b, tr.RestingPrice, 10)
	b = append(b, ' ')
	b = strconv.AppendInt(b, tr.Qty, 10)
	b = append(b, ' ')
	b = append(b, tr.IncomingID...)
	b = append(b, ' ')
	b = strconv.AppendInt(b, tr.IncomingPrice, 10)
	b = append(b, ' ')
	b = strconv.AppendInt(b, tr.Qty, 10)
	b = append(b, '\n')
	t.write(b)
}

func (t *Text) Book(s orderbook.Snapshot) {
	t.side("SELL:", s.Asks)
	t.side("BUY:", s.Bids)
}

func (t *Text) side(label string, levels []orderbook.Level) {
	b := append(t.buf[:0], label...)
	b = append(b, '\n')
	for _, l := range levels {
		b = strconv.AppendInt(b, l.Price, 10)
		b = append(b, ' ')
		b = strconv.AppendInt(b, l.Qty, 10)
		b = append(b, '\n')
	}
	t.write(b)
}

func (t *Text) write(b []byte) {
	t.buf = b[:0]
	if t.err != nil {
		return
	}
	_, t.err = t.w.Write(b)
}

// Flush pushes buffered lines to the underlying writer and reports the first
// write error seen since the previous flush.
func (t *Text) Flush() error {
	if t.err != nil {
		err := t.err
		t.err = nil
		return err
	}
	return t.w.Flush()
}
