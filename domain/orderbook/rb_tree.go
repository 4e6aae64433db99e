package orderbook

type color uint8

const (
	red color = iota
	black
)

type node struct {
	price  int64
	level  *PriceLevel
	color  color
	left   *node
	right  *node
	parent *node
}

// priceTree is a red-black tree of price levels keyed by price.
// One tree holds one side of the book.
type priceTree struct {
	root *node
	leaf *node // black sentinel
	size int
}

func newPriceTree() *priceTree {
	sentinel := &node{color: black}
	return &priceTree{root: sentinel, leaf: sentinel}
}

func (t *priceTree) Len() int { return t.size }

func (t *priceTree) Find(price int64) *PriceLevel {
	if n := t.search(price); n != t.leaf {
		return n.level
	}
	return nil
}

// Upsert returns the level at price, creating it when missing.
func (t *priceTree) Upsert(price int64) *PriceLevel {
	parent := t.leaf
	cur := t.root
	for cur != t.leaf {
		parent = cur
		switch {
		case price < cur.price:
			cur = cur.left
		case price > cur.price:
			cur = cur.right
		default:
			return cur.level
		}
	}

	z := &node{
		price:  price,
		level:  newPriceLevel(price),
		color:  red,
		left:   t.leaf,
		right:  t.leaf,
		parent: parent,
	}
	switch {
	case parent == t.leaf:
		t.root = z
	case price < parent.price:
		parent.left = z
	default:
		parent.right = z
	}
	t.insertFixup(z)
	t.size++
	return z.level
}

func (t *priceTree) Delete(price int64) bool {
	z := t.search(price)
	if z == t.leaf {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

// Min is the lowest-priced level: the best ask.
func (t *priceTree) Min() *PriceLevel {
	if n := t.minNode(t.root); n != t.leaf {
		return n.level
	}
	return nil
}

// Max is the highest-priced level: the best bid.
func (t *priceTree) Max() *PriceLevel {
	if n := t.maxNode(t.root); n != t.leaf {
		return n.level
	}
	return nil
}

// Ascend visits levels from lowest to highest price until fn returns false.
func (t *priceTree) Ascend(fn func(*PriceLevel) bool) {
	for n := t.minNode(t.root); n != t.leaf; n = t.successor(n) {
		if !fn(n.level) {
			return
		}
	}
}

// Descend visits levels from highest to lowest price until fn returns false.
func (t *priceTree) Descend(fn func(*PriceLevel) bool) {
	for n := t.maxNode(t.root); n != t.leaf; n = t.predecessor(n) {
		if !fn(n.level) {
			return
		}
	}
}

func (t *priceTree) search(price int64) *node {
	n := t.root
	for n != t.leaf {
		switch {
		case price < n.price:
			n = n.left
		case price > n.price:
			n = n.right
		default:
			return n
		}
	}
	return t.leaf
}

func (t *priceTree) minNode(n *node) *node {
	if n == t.leaf {
		return n
	}
	for n.left != t.leaf {
		n = n.left
	}
	return n
}

func (t *priceTree) maxNode(n *node) *node {
	if n == t.leaf {
		return n
	}
	for n.right != t.leaf {
		n = n.right
	}
	return n
}

func (t *priceTree) successor(n *node) *node {
	if n.right != t.leaf {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.leaf && n == p.right {
		n, p = p, p.parent
	}
	return p
}

func (t *priceTree) predecessor(n *node) *node {
	if n.left != t.leaf {
		return t.maxNode(n.left)
	}
	p := n.parent
	for p != t.leaf && n == p.left {
		n, p = p, p.parent
	}
	return p
}

func (t *priceTree) rotateLeft(x *node) {
	y := x.right
	x.right = y.left
	if y.left != t.leaf {
		y.left.parent = x
	}
	t.replaceChild(x, y)
	y.left = x
	x.parent = y
}

func (t *priceTree) rotateRight(y *node) {
	x := y.left
	y.left = x.right
	if x.right != t.leaf {
		x.right.parent = y
	}
	t.replaceChild(y, x)
	x.right = y
	y.parent = x
}

// replaceChild puts v where u hangs off u's parent.
func (t *priceTree) replaceChild(u, v *node) {
	switch {
	case u.parent == t.leaf:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *priceTree) insertFixup(z *node) {
	for z.parent.color == red {
		gp := z.parent.parent
		if z.parent == gp.left {
			uncle := gp.right
			if uncle.color == red {
				z.parent.color, uncle.color, gp.color = black, black, red
				z = gp
				continue
			}
			if z == z.parent.right {
				z = z.parent
				t.rotateLeft(z)
			}
			z.parent.color = black
			z.parent.parent.color = red
			t.rotateRight(z.parent.parent)
		} else {
			uncle := gp.left
			if uncle.color == red {
				z.parent.color, uncle.color, gp.color = black, black, red
				z = gp
				continue
			}
			if z == z.parent.left {
				z = z.parent
				t.rotateRight(z)
			}
			z.parent.color = black
			z.parent.parent.color = red
			t.rotateLeft(z.parent.parent)
		}
	}
	t.root.color = black
}

func (t *priceTree) deleteNode(z *node) {
	y := z
	removed := y.color
	var x *node

	switch {
	case z.left == t.leaf:
		x = z.right
		t.replaceChild(z, z.right)
	case z.right == t.leaf:
		x = z.left
		t.replaceChild(z, z.left)
	default:
		y = t.minNode(z.right)
		removed = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.replaceChild(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.replaceChild(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if removed == black {
		t.deleteFixup(x)
	}
}

func (t *priceTree) deleteFixup(x *node) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rotateLeft(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
				continue
			}
			if w.right.color == black {
				w.left.color = black
				w.color = red
				t.rotateRight(w)
				w = x.parent.right
			}
			w.color = x.parent.color
			x.parent.color = black
			w.right.color = black
			t.rotateLeft(x.parent)
			x = t.root
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rotateRight(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
				continue
			}
			if w.left.color == black {
				w.right.color = black
				w.color = red
				t.rotateLeft(w)
				w = x.parent.left
			}
			w.color = x.parent.color
			x.parent.color = black
			w.left.color = black
			t.rotateRight(x.parent)
			x = t.root
		}
	}
	x.color = black
}
