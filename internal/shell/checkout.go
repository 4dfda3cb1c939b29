package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/pkg/gateway"
	"github.com/clicafe/clicafe/pkg/protocol"
)

var errEmptyCart = usagef("Your cart is empty")

const confirmUsage = `confirm-order --street="<street>" --city=<city> --zip=<zip> [--state= --country= --phone=]`

// runCheckout only reviews the cart; nothing is sent until confirm-order.
func (d *Dispatcher) runCheckout(ctx context.Context, s *session.Session, a Args) (Result, error) {
	if err := a.Only(); err != nil {
		return Result{}, err
	}
	if s.Cart.Empty() {
		return Result{}, errEmptyCart
	}
	res := lines("Proceeding to checkout...")
	res = res.add(cartLines(s.Cart.Items())...)
	res = res.add("Total: " + s.Cart.Total().String())
	res = res.add(s.Checkout.Lines()...)
	return res.add(
		"Optional: set-payment --method=<method>, set-shipping --method=<method>, apply-coupon <code>",
		"To confirm your order and enter the shipping address, use:",
		"  "+confirmUsage,
	), nil
}

type confirmOrderCommand struct {
	address protocol.ShippingAddress
}

func parseConfirmOrder(a Args) (confirmOrderCommand, error) {
	if err := a.Only("street", "city", "zip", "state", "country", "phone"); err != nil {
		return confirmOrderCommand{}, err
	}
	cmd := confirmOrderCommand{address: protocol.ShippingAddress{
		Street:     a.Value("street"),
		City:       a.Value("city"),
		PostalCode: a.Value("zip"),
		State:      a.Value("state"),
		Country:    a.Value("country"),
		Phone:      a.Value("phone"),
	}}
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"--street", cmd.address.Street},
		{"--city", cmd.address.City},
		{"--zip", cmd.address.PostalCode},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return cmd, usagef("Missing shipping address: %s. Usage: %s", strings.Join(missing, ", "), confirmUsage)
	}
	return cmd, nil
}

func (d *Dispatcher) runConfirmOrder(ctx context.Context, s *session.Session, a Args) (Result, error) {
	if s.Cart.Empty() {
		return Result{}, errEmptyCart
	}
	cmd, err := parseConfirmOrder(a)
	if err != nil {
		return Result{}, err
	}

	order := session.Order{
		Items:     s.Cart.Items(),
		Total:     s.Cart.Total(),
		Address:   cmd.address,
		Choices:   s.Checkout,
		CreatedAt: d.opts.Now(),
	}

	if !d.Online() {
		order.ID = fmt.Sprintf("ORD%04d", len(s.Orders)+1)
		order.Status = session.StatusPlaced
		s.RecordOrder(order)
		s.Cart.Clear()
		s.Checkout = session.Choices{}
		res := lines(
			"Order confirmed! Thank you for your purchase.",
			"Order ID: "+order.ID,
			"Total: "+order.Total.String(),
		)
		return res.add(order.Choices.Lines()...), nil
	}

	if !s.LoggedIn() {
		return Result{}, gateway.ErrNotAuthenticated
	}
	created, err := d.opts.Gateway.CreateOrder(ctx, protocol.CreateOrderRequest{
		ShippingAddress: cmd.address,
		PaymentMethod:   order.Choices.PaymentMethod,
		ShippingMethod:  order.Choices.ShippingMethod,
		CouponCode:      order.Choices.Coupon,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create order: %w", err)
	}
	order.ID = created.ID.String()
	if created.Total != 0 {
		order.Total = created.Total
	}
	if !created.CreatedAt.IsZero() {
		order.CreatedAt = created.CreatedAt
	}
	// The server turned its cart into the order.
	s.Cart.Clear()
	s.Checkout = session.Choices{}

	res := lines(fmt.Sprintf("Order %s created. Total: %s", order.ID, order.Total))
	payment, err := d.opts.Gateway.ProcessPayment(ctx, order.ID)
	if err != nil {
		order.Status = session.StatusPaymentPending
		s.RecordOrder(order)
		logging.WithContext(ctx).Warn("payment not started",
			logging.String("order_id", order.ID), logging.Err(err))
		res = res.add(describe(fmt.Errorf("start payment: %w", err)),
			fmt.Sprintf("Your order is saved. Retry the payment with: pay-order %s", order.ID))
		return res, nil
	}

	order.Status = session.StatusAwaitingPayment
	order.PaymentURL = payment.RedirectURL
	s.RecordOrder(order)
	res = res.add("Complete your payment at:", payment.RedirectURL)
	res.RedirectURL = payment.RedirectURL
	return res, nil
}

func (d *Dispatcher) runPayOrder(ctx context.Context, s *session.Session, a Args) (Result, error) {
	id := a.Arg(0)
	if id == "" {
		return Result{}, usagef("Usage: pay-order <orderID>")
	}
	o, ok := s.Order(id)
	if !ok {
		return Result{}, usagef("Order %s not found", id)
	}
	if !d.Online() || o.Status == session.StatusPlaced {
		return Result{}, usagef("Order %s does not need a payment", id)
	}
	if o.Status == session.StatusCancelled {
		return Result{}, usagef("Order %s has been cancelled", id)
	}
	payment, err := d.opts.Gateway.ProcessPayment(ctx, o.ID)
	if err != nil {
		return Result{}, fmt.Errorf("start payment: %w", err)
	}
	o.Status = session.StatusAwaitingPayment
	o.PaymentURL = payment.RedirectURL
	res := lines("Complete your payment at:", payment.RedirectURL)
	res.RedirectURL = payment.RedirectURL
	return res, nil
}

func (d *Dispatcher) runLog(ctx context.Context, s *session.Session, a Args) (Result, error) {
	if !strings.EqualFold(a.Arg(0), "orders") {
		return Result{}, usagef("Usage: log orders [--export=<file.xlsx>]")
	}
	if err := a.Only("export"); err != nil {
		return Result{}, err
	}
	if len(s.Orders) == 0 {
		return lines("No orders found"), nil
	}

	if a.Has("export") {
		path := a.Value("export")
		if path == "" {
			return Result{}, usagef("Usage: log orders --export=<file.xlsx>")
		}
		if err := d.opts.Export(path, s.Orders); err != nil {
			return Result{}, fmt.Errorf("export orders: %w", err)
		}
		return lines(fmt.Sprintf("Exported %d orders to %s", len(s.Orders), path)), nil
	}

	res := lines("Your orders:")
	for _, o := range s.Orders {
		res = res.add(fmt.Sprintf("Order %s - Total: %s - %s", o.ID, o.Total, o.Status))
	}
	return res, nil
}

func (d *Dispatcher) showOrder(s *session.Session, id string) (Result, error) {
	o, ok := s.Order(id)
	if !ok {
		return Result{}, usagef("Order %s not found", id)
	}
	res := lines(fmt.Sprintf("Order %s (%s)", o.ID, o.Status))
	if !o.CreatedAt.IsZero() {
		res = res.add("Placed: " + o.CreatedAt.Format("2006-01-02 15:04"))
	}
	res = res.add(cartLines(o.Items)...)
	res = res.add("Total: " + o.Total.String())
	res = res.add(o.Choices.Lines()...)
	if o.Address.Street != "" {
		res = res.add(fmt.Sprintf("Ship to: %s, %s %s", o.Address.Street, o.Address.City, o.Address.PostalCode))
	}
	if o.PaymentURL != "" && o.Status == session.StatusAwaitingPayment {
		res = res.add("Payment: " + o.PaymentURL)
	}
	return res, nil
}

func (d *Dispatcher) runTrackOrder(ctx context.Context, s *session.Session, a Args) (Result, error) {
	id := a.Arg(0)
	if id == "" {
		return Result{}, usagef("Usage: track-order <orderID>")
	}
	o, ok := s.Order(id)
	if !ok {
		return Result{}, usagef("Order %s not found", id)
	}
	switch o.Status {
	case session.StatusCancelled:
		return lines(fmt.Sprintf("Order %s has been cancelled.", o.ID)), nil
	case session.StatusAwaitingPayment:
		return lines(fmt.Sprintf("Order %s is waiting for payment at %s", o.ID, o.PaymentURL)), nil
	case session.StatusPaymentPending:
		return lines(fmt.Sprintf("Order %s was created but its payment has not started. Use: pay-order %s", o.ID, o.ID)), nil
	default:
		return lines(fmt.Sprintf("Order %s is being processed and will be shipped soon.", o.ID)), nil
	}
}

// runCancelOrder cancels an order of this session. The order stays in the
// history with the cancelled status.
func (d *Dispatcher) runCancelOrder(ctx context.Context, s *session.Session, a Args) (Result, error) {
	id := a.Arg(0)
	if id == "" {
		return Result{}, usagef("Usage: cancel-order <orderID>")
	}
	o, ok := s.Order(id)
	if !ok {
		return Result{}, usagef("Order %s not found", id)
	}
	if o.Status == session.StatusCancelled {
		return Result{}, usagef("Order %s is already cancelled", id)
	}
	o.Status = session.StatusCancelled
	return lines(fmt.Sprintf("Order %s has been cancelled.", o.ID)), nil
}
