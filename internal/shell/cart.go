package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/pkg/gateway"
)

// cartBackend decides who owns the cart. localCart keeps it in the session;
// remoteCart sends every change to the server and mirrors the result.
type cartBackend interface {
	Add(ctx context.Context, s *session.Session, item session.CartItem) (session.CartItem, error)
	Update(ctx context.Context, s *session.Session, ref string, qty int) (session.CartItem, error)
	Remove(ctx context.Context, s *session.Session, ref string) (session.CartItem, error)
	Clear(ctx context.Context, s *session.Session) error
	Sync(ctx context.Context, s *session.Session) error
}

type localCart struct{}

func (localCart) Add(ctx context.Context, s *session.Session, item session.CartItem) (session.CartItem, error) {
	return s.Cart.Add(item)
}

func (localCart) Update(ctx context.Context, s *session.Session, ref string, qty int) (session.CartItem, error) {
	return s.Cart.Update(ref, qty)
}

func (localCart) Remove(ctx context.Context, s *session.Session, ref string) (session.CartItem, error) {
	return s.Cart.Remove(ref)
}

func (localCart) Clear(ctx context.Context, s *session.Session) error {
	s.Cart.Clear()
	return nil
}

func (localCart) Sync(ctx context.Context, s *session.Session) error {
	return nil
}

type remoteCart struct {
	gw Gateway
}

func (r *remoteCart) Add(ctx context.Context, s *session.Session, item session.CartItem) (session.CartItem, error) {
	if item.Quantity < 1 {
		return session.CartItem{}, session.ErrInvalidQuantity
	}
	if !s.LoggedIn() {
		return session.CartItem{}, gateway.ErrNotAuthenticated
	}
	if err := r.gw.AddToCart(ctx, item.ProductID, item.Quantity); err != nil {
		return session.CartItem{}, fmt.Errorf("add to cart: %w", err)
	}
	if err := r.Sync(ctx, s); err != nil {
		return session.CartItem{}, err
	}
	line, ok := s.Cart.Find(item.ProductID)
	if !ok {
		return item, nil
	}
	return line, nil
}

// resolve maps a user reference to the server's item id using the mirror.
func (r *remoteCart) resolve(s *session.Session, ref string) (session.CartItem, error) {
	if !s.LoggedIn() {
		return session.CartItem{}, gateway.ErrNotAuthenticated
	}
	line, ok := s.Cart.Find(ref)
	if !ok {
		return session.CartItem{}, session.ErrItemNotFound
	}
	return line, nil
}

func (r *remoteCart) Update(ctx context.Context, s *session.Session, ref string, qty int) (session.CartItem, error) {
	if qty < 1 {
		return session.CartItem{}, session.ErrInvalidQuantity
	}
	line, err := r.resolve(s, ref)
	if err != nil {
		return session.CartItem{}, err
	}
	if err := r.gw.UpdateCartItem(ctx, line.ID, qty); err != nil {
		return session.CartItem{}, fmt.Errorf("update cart item: %w", err)
	}
	if err := r.Sync(ctx, s); err != nil {
		return session.CartItem{}, err
	}
	line.Quantity = qty
	if updated, ok := s.Cart.Find(line.ID); ok {
		line = updated
	}
	return line, nil
}

func (r *remoteCart) Remove(ctx context.Context, s *session.Session, ref string) (session.CartItem, error) {
	line, err := r.resolve(s, ref)
	if err != nil {
		return session.CartItem{}, err
	}
	if err := r.gw.RemoveCartItem(ctx, line.ID); err != nil {
		return session.CartItem{}, fmt.Errorf("remove cart item: %w", err)
	}
	return line, r.Sync(ctx, s)
}

// Clear removes the lines one by one; the API has no bulk delete.
func (r *remoteCart) Clear(ctx context.Context, s *session.Session) error {
	if !s.LoggedIn() {
		return gateway.ErrNotAuthenticated
	}
	for _, it := range s.Cart.Items() {
		if err := r.gw.RemoveCartItem(ctx, it.ID); err != nil && !gateway.IsStatus(err, 404) {
			return fmt.Errorf("remove cart item: %w", err)
		}
	}
	return r.Sync(ctx, s)
}

func (r *remoteCart) Sync(ctx context.Context, s *session.Session) error {
	if !s.LoggedIn() {
		return nil
	}
	cart, err := r.gw.Cart(ctx)
	if err != nil {
		return fmt.Errorf("fetch cart: %w", err)
	}
	s.Cart.Replace(cart.Items)
	return nil
}

type addToCartCommand struct {
	productID string
	quantity  int
	form      string
	weight    string
}

func parseAddToCart(a Args) (addToCartCommand, error) {
	if err := a.Only("product", "quantity", "form", "weight"); err != nil {
		return addToCartCommand{}, err
	}
	cmd := addToCartCommand{
		productID: a.Value("product"),
		form:      a.Value("form"),
		weight:    a.Value("weight"),
	}
	if cmd.productID == "" {
		cmd.productID = a.Arg(0)
	}
	if cmd.productID == "" {
		return cmd, usagef("Usage: add-to-cart --product=<id> [--quantity=N --form=<form> --weight=<weight>]")
	}
	qty, err := a.Quantity("quantity", 1)
	if err != nil {
		return cmd, err
	}
	cmd.quantity = qty
	return cmd, nil
}

func (d *Dispatcher) runAddToCart(ctx context.Context, s *session.Session, a Args) (Result, error) {
	cmd, err := parseAddToCart(a)
	if err != nil {
		return Result{}, err
	}
	p, err := d.products.Product(ctx, cmd.productID)
	if isNotFound(err) {
		return Result{}, usagef("Product %s not found", cmd.productID)
	}
	if err != nil {
		return Result{}, fmt.Errorf("get product %s: %w", cmd.productID, err)
	}

	form, weight := cmd.form, cmd.weight
	if form == "" {
		form = p.Form
	}
	if weight == "" {
		weight = p.Weight
	}
	if _, err := d.cart.Add(ctx, s, session.CartItem{
		ProductID: p.ID.String(),
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  cmd.quantity,
		Form:      form,
		Weight:    weight,
	}); err != nil {
		return Result{}, cartError(err)
	}
	return lines(fmt.Sprintf("Added %d %s to cart", cmd.quantity, p.Name)), nil
}

type updateCartCommand struct {
	ref      string
	quantity int
}

func parseUpdateCart(a Args) (updateCartCommand, error) {
	if err := a.Only("quantity"); err != nil {
		return updateCartCommand{}, err
	}
	cmd := updateCartCommand{ref: a.Arg(0)}
	v, ok := a.Flag("quantity")
	if cmd.ref == "" || !ok {
		return cmd, usagef("Usage: update-cart <itemID> --quantity=N")
	}
	qty, err := parseQuantity(v)
	if err != nil {
		return cmd, err
	}
	cmd.quantity = qty
	return cmd, nil
}

func (d *Dispatcher) runUpdateCart(ctx context.Context, s *session.Session, a Args) (Result, error) {
	cmd, err := parseUpdateCart(a)
	if err != nil {
		return Result{}, err
	}
	line, err := d.cart.Update(ctx, s, cmd.ref, cmd.quantity)
	if err != nil {
		return Result{}, cartError(err, cmd.ref)
	}
	return lines(fmt.Sprintf("Updated %s quantity to %d", line.Name, line.Quantity)), nil
}

func (d *Dispatcher) runRemoveFromCart(ctx context.Context, s *session.Session, a Args) (Result, error) {
	if err := a.Only(); err != nil {
		return Result{}, err
	}
	ref := strings.Join(a.Positional, " ")
	if ref == "" {
		return Result{}, usagef("Usage: rm-from-cart <itemID>")
	}
	line, err := d.cart.Remove(ctx, s, ref)
	if err != nil {
		return Result{}, cartError(err, ref)
	}
	return lines(fmt.Sprintf("Removed %s from cart", line.Name)), nil
}

func (d *Dispatcher) runClear(ctx context.Context, s *session.Session, a Args) (Result, error) {
	if !strings.EqualFold(a.Arg(0), "cart") || len(a.Positional) > 1 {
		return Result{}, usagef("Usage: clear cart")
	}
	if err := d.cart.Clear(ctx, s); err != nil {
		return Result{}, err
	}
	return lines("Cart cleared"), nil
}

func (d *Dispatcher) showCart(ctx context.Context, s *session.Session) (Result, error) {
	if err := d.cart.Sync(ctx, s); err != nil {
		if errors.Is(err, gateway.ErrSessionExpired) {
			return Result{}, err
		}
		// The mirror is still what the last mutation returned.
		logging.WithContext(ctx).Warn("cart sync failed", logging.Err(err))
	}
	if s.Cart.Empty() {
		return lines("Your cart is empty"), nil
	}
	res := lines("Your cart:")
	res = res.add(cartLines(s.Cart.Items())...)
	return res.add("Total: " + s.Cart.Total().String()), nil
}

func cartLines(items []session.CartItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		var details []string
		for _, v := range []string{it.Form, it.Weight, it.Options} {
			if v != "" {
				details = append(details, v)
			}
		}
		name := it.Name
		if len(details) > 0 {
			name += " (" + strings.Join(details, ", ") + ")"
		}
		out = append(out, fmt.Sprintf("  [%s] %d x %s - %s", it.ID, it.Quantity, name, it.Subtotal()))
	}
	return out
}

// cartError turns cart sentinels into user lines.
func cartError(err error, ref ...string) error {
	switch {
	case errors.Is(err, session.ErrInvalidQuantity):
		return usagef("Quantity must be at least 1")
	case errors.Is(err, session.ErrItemNotFound):
		if len(ref) > 0 {
			return usagef("Item %s is not in your cart", ref[0])
		}
		return usagef("Item is not in your cart")
	}
	return err
}
