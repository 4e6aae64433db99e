package orderbook

import "errors"

type Side uint8
type TimeInForce uint8

const (
	Buy Side = iota + 1
	Sell
)

const (
	GoodForDay TimeInForce = iota + 1
	InsertOrCancel
)

var (
	ErrInvalidSide        = errors.New("orderbook: invalid side")
	ErrInvalidTimeInForce = errors.New("orderbook: invalid time in force")
	ErrInvalidPrice       = errors.New("orderbook: price must be positive")
	ErrInvalidQuantity    = errors.New("orderbook: quantity must be positive")
	ErrInvalidOrderID     = errors.New("orderbook: empty order id")
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

func (t TimeInForce) String() string {
	switch t {
	case GoodForDay:
		return "GFD"
	case InsertOrCancel:
		return "IOC"
	default:
		return "UNKNOWN"
	}
}

// ParseSide accepts exactly "BUY" or "SELL".
func ParseSide(s string) (Side, error) {
	switch s {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return 0, ErrInvalidSide
}

// ParseTimeInForce accepts exactly "GFD" or "IOC".
func ParseTimeInForce(s string) (TimeInForce, error) {
	switch s {
	case "GFD":
		return GoodForDay, nil
	case "IOC":
		return InsertOrCancel, nil
	}
	return 0, ErrInvalidTimeInForce
}

// Order is a trade intent. Only Qty changes after construction, and only downwards.
type Order struct {
	ID    string
	Price int64
	Qty   int64
	Side  Side
	TIF   TimeInForce

	// Seq is the arrival sequence stamped by the caller; informational only,
	// time priority is the position inside the price level.
	Seq uint64


	next *Order
	prev *Order
}

// NewOrder validates the five order fields.
func NewOrder(side Side, tif TimeInForce, price, qty int64, id string) (*Order, error) {
	if err := validate(side, price, qty); err != nil {
		return nil, err
	}
	if tif != GoodForDay && tif != InsertOrCancel {
		return nil, ErrInvalidTimeInForce
	}
	if id == "" {
		return nil, ErrInvalidOrderID
	}
	return &Order{
		ID:    id,
		Price: price,
		Qty:   qty,
		Side:  side,
		TIF:   tif,
	}, nil
}

// newReplacement builds the GFD order that MODIFY re-places. Fields are
// validated by the caller.
func newReplacement(id string, side Side, price, qty int64) *Order {
	return &Order{
		ID:    id,
		Price: price,
		Qty:   qty,
		Side:  side,
		TIF:   GoodForDay,
	}
}

func validate(side Side, price, qty int64) error {
	if side != Buy && side != Sell {
		return ErrInvalidSide
	}
	if price <= 0 {
		return ErrInvalidPrice
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func (o *Order) Remaining() int64 { return o.Qty }

func (o *Order) IsBuy() bool { return o.Side == Buy }

func (o *Order) IsInsertOrCancel() bool { return o.TIF == InsertOrCancel }

// Subtract reduces the remaining quantity. q must not exceed Qty.
func (o *Order) Subtract(q int64) {
	o.Qty -= q
}

// Next walks the level queue towards the tail.
func (o *Order) Next() *Order {
	return o.next
}

// crosses reports whether a resting level at price can trade against o.
func (o *Order) crosses(price int64) bool {
	if o.IsBuy() {
		return price <= o.Price
	}
	return price >= o.Price
}
