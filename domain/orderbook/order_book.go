package orderbook

import "errors"

var (
	ErrDuplicateOrder = errors.New("orderbook: order id already resting")
	ErrUnknownOrder   = errors.New("orderbook: unknown order id")
)

// OrderBook is the single-instrument book. It is single-writer: callers
// serialize every mutation through one goroutine.
type OrderBook struct {
	bids *priceTree
	asks *priceTree

	// index holds resting orders only; each entry is linked into exactly one
	// level of the side and price it carries.
	index map[string]*Order
}

func New() *OrderBook {
	return &OrderBook{
		bids:  newPriceTree(),
		asks:  newPriceTree(),
		index: make(map[string]*Order),
	}
}

// Has reports whether an order with id is resting.
func (b *OrderBook) Has(id string) bool {
	_, ok := b.index[id]
	return ok
}

// Order returns the resting order with id.
func (b *OrderBook) Order(id string) (*Order, bool) {
	o, ok := b.index[id]
	return o, ok
}

// Len is the number of resting orders.
func (b *OrderBook) Len() int {
	return len(b.index)
}

// Place matches o against the opposite side and rests any GFD remainder.
// IOC remainders are discarded.
func (b *OrderBook) Place(o *Order) ([]Trade, error) {
	if b.Has(o.ID) {
		return nil, ErrDuplicateOrder
	}

	trades := b.match(o)
	if o.Remaining() == 0 || o.IsInsertOrCancel() {
		return trades, nil
	}

	b.rest(o)
	return trades, nil
}

// Cancel removes the resting order with id. Unknown ids are a no-op.
func (b *OrderBook) Cancel(id string) bool {
	o, ok := b.index[id]
	if !ok {
		return false
	}
	b.removeFromBook(o)
	return true
}

// Modify replaces a resting order with a new GFD order carrying the same id.
// The replacement loses time priority and may trade immediately. Nothing is
// touched unless the id rests and the new fields are valid.
func (b *OrderBook) Modify(id string, side Side, price, qty int64) ([]Trade, error) {
	o, ok := b.index[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if err := validate(side, price, qty); err != nil {
		return nil, err
	}

	b.removeFromBook(o)
	return b.Place(newReplacement(id, side, price, qty))
}

func (b *OrderBook) side(s Side) *priceTree {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

func (b *OrderBook) opposite(s Side) *priceTree {
	if s == Buy {
		return b.asks
	}
	return b.bids
}

func (b *OrderBook) rest(o *Order) {
	b.index[o.ID] = o
	b.side(o.Side).Upsert(o.Price).Enqueue(o)
}

// removeFromBook unlinks a resting order from its level and the index, and
// drops the level once it is empty. Every removal path goes through here.
func (b *OrderBook) removeFromBook(o *Order) {
	tree := b.side(o.Side)
	if lvl := tree.Find(o.Price); lvl != nil {
		lvl.Remove(o)
		if lvl.Empty() {
			tree.Delete(o.Price)
		}
	}
	delete(b.index, o.ID)
}

// BestBid returns the highest bid price.
func (b *OrderBook) BestBid() (int64, bool) {
	if lvl := b.bids.Max(); lvl != nil {
		return lvl.Price, true
	}
	return 0, false
}

// BestAsk returns the lowest ask price.
func (b *OrderBook) BestAsk() (int64, bool) {
	if lvl := b.asks.Min(); lvl != nil {
		return lvl.Price, true
	}
	return 0, false
}

// Level is one aggregated line of a book snapshot.
type Level struct {
	Price int64
	Qty   int64
}

// Snapshot lists both sides highest price first.
type Snapshot struct {
	Asks []Level
	Bids []Level
}

func (b *OrderBook) Snapshot() Snapshot {
	return Snapshot{
		Asks: depth(b.asks),
		Bids: depth(b.bids),
	}
}

func depth(t *priceTree) []Level {
	out := make([]Level, 0, t.Len())
	t.Descend(func(lvl *PriceLevel) bool {
		// empty levels are deleted eagerly; skip anything that slipped through
		if lvl.TotalQty > 0 {
			out = append(out, Level{Price: lvl.Price, Qty: lvl.TotalQty})
		}
		return true
	})
	return out
}

// Walk visits every resting order, bids best to worst and then asks best to
// worst, oldest first within a level.
func (b *OrderBook) Walk(fn func(*Order)) {
	visit := func(lvl *PriceLevel) bool {
		for o := lvl.Head(); o != nil; o = o.Next() {
			fn(o)
		}
		return true
	}
	b.bids.Descend(visit)
	b.asks.Ascend(visit)
}
