package session

import (
	"errors"
	"strconv"
	"strings"

	"github.com/clicafe/clicafe/pkg/protocol"
)

// ErrInvalidQuantity is returned for quantities below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// ErrItemNotFound is returned for unknown cart item ids.
var ErrItemNotFound = errors.New("item not in cart")

// CartItem is one cart line. Quantity is always at least one.
type CartItem struct {
	ID        string
	ProductID string
	Name      string
	UnitPrice protocol.Price
	Quantity  int
	Form      string
	Weight    string
	Options   string // custom drink choices
}

// Subtotal returns UnitPrice × Quantity.
func (i CartItem) Subtotal() protocol.Price {
	return i.UnitPrice.Mul(i.Quantity)
}

func (i CartItem) sameLine(o CartItem) bool {
	return strings.EqualFold(i.ProductID, o.ProductID) &&
		strings.EqualFold(i.Form, o.Form) &&
		strings.EqualFold(i.Weight, o.Weight) &&
		i.Options == o.Options &&
		i.UnitPrice == o.UnitPrice
}

// Cart is the session's cart. In remote mode it mirrors the server cart.
type Cart struct {
	items  []CartItem
	nextID int
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []CartItem {
	return append([]CartItem(nil), c.items...)
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

// Total is the exact sum of all line subtotals.
func (c *Cart) Total() protocol.Price {
	var total protocol.Price
	for _, it := range c.items {
		total += it.Subtotal()
	}
	return total
}

// Add adds item, merging it into an existing line for the same product,
// form, weight and options. It returns the resulting line.
func (c *Cart) Add(item CartItem) (CartItem, error) {
	if item.Quantity < 1 {
		return CartItem{}, ErrInvalidQuantity
	}
	for i := range c.items {
		if c.items[i].sameLine(item) {
			c.items[i].Quantity += item.Quantity
			return c.items[i], nil
		}
	}
	c.nextID++
	item.ID = strconv.Itoa(c.nextID)
	c.items = append(c.items, item)
	return item, nil
}

// Find returns the line with the given item id, or failing that the first
// line for the given product id or product name.
func (c *Cart) Find(ref string) (CartItem, bool) {
	i := c.index(ref)
	if i < 0 {
		return CartItem{}, false
	}
	return c.items[i], true
}

func (c *Cart) index(ref string) int {
	for i, it := range c.items {
		if it.ID == ref {
			return i
		}
	}
	for i, it := range c.items {
		if strings.EqualFold(it.ProductID, ref) {
			return i
		}
	}
	for i, it := range c.items {
		if strings.EqualFold(it.Name, ref) {
			return i
		}
	}
	return -1
}

// Update sets the quantity of a line.
func (c *Cart) Update(ref string, qty int) (CartItem, error) {
	if qty < 1 {
		return CartItem{}, ErrInvalidQuantity
	}
	i := c.index(ref)
	if i < 0 {
		return CartItem{}, ErrItemNotFound
	}
	c.items[i].Quantity = qty
	return c.items[i], nil
}

// Remove deletes a line.
func (c *Cart) Remove(ref string) (CartItem, error) {
	i := c.index(ref)
	if i < 0 {
		return CartItem{}, ErrItemNotFound
	}
	removed := c.items[i]
	c.items = append(c.items[:i], c.items[i+1:]...)
	return removed, nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Replace overwrites the lines with a server snapshot. Lines with a
// quantity below one are dropped.
func (c *Cart) Replace(items []protocol.CartItem) {
	c.items = c.items[:0]
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		c.items = append(c.items, CartItem{
			ID:        it.ID.String(),
			ProductID: it.ProductID.String(),
			Name:      it.ProductName,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
}
