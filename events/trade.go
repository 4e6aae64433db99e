// Package events encodes engine output for the trade side channel. Messages
// use the protobuf wire format so downstream consumers can decode them with
// a generated TradeEvent type:
//
//	message TradeEvent {
//	  string session        = 1;
//	  uint64 seq            = 2;
//	  string resting_id     = 3;
//	  int64  resting_price  = 4;
//	  string incoming_id    = 5;
//	  int64  incoming_price = 6;
//	  int64  qty            = 7;
//	  int64  time_unix_nano = 8;
//	}
package events

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"matchbook/domain/orderbook"
)

var ErrMalformed = errors.New("events: malformed trade event")

const (
	fieldSession protowire.Number = iota + 1
	fieldSeq
	fieldRestingID
	fieldRestingPrice
	fieldIncomingID
	fieldIncomingPrice
	fieldQty
	fieldTime
)

type TradeEvent struct {
	Session string
	Seq     uint64
	Trade   orderbook.Trade
	Time    int64
}

// Key is the partitioning key used when publishing: every trade of a session
// lands on the same partition and keeps its order.
func (e *TradeEvent) Key() []byte {
	return []byte(e.Session)
}

func (e *TradeEvent) Marshal() []byte {
	b := make([]byte, 0, 64+len(e.Session)+len(e.Trade.RestingID)+len(e.Trade.IncomingID))
	b = appendString(b, fieldSession, e.Session)
	b = appendVarint(b, fieldSeq, e.Seq)
	b = appendString(b, fieldRestingID, e.Trade.RestingID)
	b = appendVarint(b, fieldRestingPrice, uint64(e.Trade.RestingPrice))
	b = appendString(b, fieldIncomingID, e.Trade.IncomingID)
	b = appendVarint(b, fieldIncomingPrice, uint64(e.Trade.IncomingPrice))
	b = appendVarint(b, fieldQty, uint64(e.Trade.Qty))
	b = appendVarint(b, fieldTime, uint64(e.Time))
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// Unmarshal decodes b into e. Unknown fields are skipped.
func (e *TradeEvent) Unmarshal(b []byte) error {
	*e = TradeEvent{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && (num == fieldSession || num == fieldRestingID || num == fieldIncomingID):
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldSession:
				e.Session = v
			case fieldRestingID:
				e.Trade.RestingID = v
			case fieldIncomingID:
				e.Trade.IncomingID = v
			}
		case typ == protowire.VarintType && num >= fieldSeq && num <= fieldTime:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldSeq:
				e.Seq = v
			case fieldRestingPrice:
				e.Trade.RestingPrice = int64(v)
			case fieldIncomingPrice:
				e.Trade.IncomingPrice = int64(v)
			case fieldQty:
				e.Trade.Qty = int64(v)
			case fieldTime:
				e.Time = int64(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}
