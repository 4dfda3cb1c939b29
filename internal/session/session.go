// Package session holds the per-shell state: path, cart, user, orders,
// the modal input flow and the terminal colour.
package session

import (
	"time"

	"github.com/clicafe/clicafe/pkg/protocol"
	"github.com/clicafe/clicafe/pkg/vfs"
)

// Order statuses.
const (
	StatusPlaced          = "placed"
	StatusAwaitingPayment = "awaiting-payment"
	StatusPaymentPending  = "payment-pending"
	StatusCancelled       = "cancelled"
)

// Choices are the checkout options picked before confirm-order.
type Choices struct {
	PaymentMethod  string
	ShippingMethod string
	Coupon         string
}

// Lines renders the choices that are set.
func (c Choices) Lines() []string {
	var out []string
	if c.PaymentMethod != "" {
		out = append(out, "Payment method: "+c.PaymentMethod)
	}
	if c.ShippingMethod != "" {
		out = append(out, "Shipping method: "+c.ShippingMethod)
	}
	if c.Coupon != "" {
		out = append(out, "Coupon: "+c.Coupon)
	}
	return out
}

// Order is an order placed during this session.
type Order struct {
	ID         string
	Items      []CartItem
	Total      protocol.Price
	Address    protocol.ShippingAddress
	Choices    Choices
	Status     string
	PaymentURL string
	CreatedAt  time.Time
}

// Session is the state of one interactive shell. It is owned by the
// goroutine running the shell and is not safe for concurrent use.
type Session struct {
	Path   string
	Cart   Cart
	User   *protocol.UserProfile
	Orders []Order
	Flow   Flow
	Color  string

	// Checkout holds the choices for the next order.
	Checkout Choices

	// LastLogin is when the current user signed in.
	LastLogin time.Time
}

// New creates a session at the tree root.
func New(color string) *Session {
	return &Session{Path: vfs.Home, Color: color}
}

// Segments returns the current path as tree segments.
func (s *Session) Segments() []string {
	return vfs.Split(s.Path)
}

// AtRoot reports whether the session is at the tree root.
func (s *Session) AtRoot() bool {
	return len(s.Segments()) == 0
}

// LoggedIn reports whether a user is signed in.
func (s *Session) LoggedIn() bool {
	return s.User != nil
}

// SignIn records the signed-in user.
func (s *Session) SignIn(u *protocol.UserProfile, at time.Time) {
	s.User = u
	s.LastLogin = at
}

// SignOut forgets the user and everything bought on their behalf.
func (s *Session) SignOut() {
	s.User = nil
	s.LastLogin = time.Time{}
	s.Cart.Clear()
	s.Orders = nil
	s.Checkout = Choices{}
	s.Flow.Reset()
}

// RecordOrder appends o to the order history.
func (s *Session) RecordOrder(o Order) {
	s.Orders = append(s.Orders, o)
}

// Order returns the order with the given id.
func (s *Session) Order(id string) (*Order, bool) {
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			return &s.Orders[i], true
		}
	}
	return nil, false
}
