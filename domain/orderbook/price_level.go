package orderbook

// PriceLevel is a FIFO queue of resting orders at a single price.
// It is an intrusive doubly-linked deque, so front removal and removal of a
// known order are both O(1).
type PriceLevel struct {
	Price int64

	head *Order
	tail *Order

	// TotalQty is the sum of remaining quantities; used for reporting only.
	TotalQty int64
	Count    int
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Enqueue appends o at the tail.
func (p *PriceLevel) Enqueue(o *Order) {
	o.next = nil
	o.prev = p.tail
	if p.tail == nil {
		p.head = o
	} else {
		p.tail.next = o
	}
	p.tail = o
	p.TotalQty += o.Qty
	p.Count++
}

// Remove unlinks o, wherever it sits in the queue.
func (p *PriceLevel) Remove(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}
	o.next = nil
	o.prev = nil

	p.TotalQty -= o.Qty
	p.Count--
}

// PopHead removes and returns the oldest order, or nil.
func (p *PriceLevel) PopHead() *Order {
	o := p.head
	if o == nil {
		return nil
	}
	p.Remove(o)
	return o
}

// SubtractHead reduces the front order by q and drops it once it reaches
// zero. The removed order is returned, nil if it is still resting.
func (p *PriceLevel) SubtractHead(q int64) *Order {
	o := p.head
	if o == nil {
		return nil
	}
	o.Subtract(q)
	p.TotalQty -= q
	if o.Qty > 0 {
		return nil
	}
	return p.PopHead()
}

func (p *PriceLevel) Head() *Order {
	return p.head
}

func (p *PriceLevel) Empty() bool {
	return p.head == nil
}

// Orders returns the queue contents, oldest first.
func (p *PriceLevel) Orders() []*Order {
	out := make([]*Order, 0, p.Count)
	for o := p.head; o != nil; o = o.next {
		out = append(out, o)
	}
	return out
}
