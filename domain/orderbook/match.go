package orderbook

// Trade is one matched pair. Price is always the resting order's price.
type Trade struct {
	RestingID     string
	RestingPrice  int64
	IncomingID    string
	IncomingPrice int64
	Qty           int64
}

// match walks the opposite side from the best level inwards, trading
// against the oldest order of each level, until o is filled or the book no
// longer crosses.
func (b *OrderBook) match(o *Order) []Trade {
	var trades []Trade
	book := b.opposite(o.Side)

	for o.Remaining() > 0 {
		lvl := best(book, o.Side)
		if lvl == nil || !o.crosses(lvl.Price) {
			break
		}
		trades = b.matchLevel(o, lvl, trades)
	}
	return trades
}

func best(t *priceTree, incoming Side) *PriceLevel {
	if incoming == Buy {
		return t.Min()
	}
	return t.Max()
}

func (b *OrderBook) matchLevel(o *Order, lvl *PriceLevel, trades []Trade) []Trade {
	for o.Remaining() > 0 && !lvl.Empty() {
		head := lvl.Head()
		qty := min(head.Remaining(), o.Remaining())

		trades = append(trades, Trade{
			RestingID:     head.ID,
			RestingPrice:  head.Price,
			IncomingID:    o.ID,
			IncomingPrice: o.Price,
			Qty:           qty,
		})

		o.Subtract(qty)
		if qty == head.Remaining() {
			// fully consumed: drops the level too once it is empty
			b.removeFromBook(head)
		} else {
			lvl.SubtractHead(qty)
		}
	}
	return trades
}
