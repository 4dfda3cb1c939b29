package shell

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/clicafe/clicafe/internal/catalog"
	"github.com/clicafe/clicafe/internal/session"
)

var (
	paymentMethods  = []string{"credit-card", "debit-card", "transfer"}
	shippingMethods = []string{"standard", "express", "pickup"}
)

// parseMethod reads --method=<m> for set-payment and set-shipping.
func parseMethod(a Args, verb string, choices []string) (string, error) {
	if err := a.Only("method"); err != nil {
		return "", err
	}
	raw := a.Value("method")
	if raw == "" {
		return "", usagef("Usage: %s --method=%s", verb, strings.Join(choices, "|"))
	}
	m := catalog.Choose(choices, raw)
	if m == "" {
		return "", usagef("Unknown method %q. Options: %s", raw, strings.Join(choices, ", "))
	}
	return m, nil
}

func (d *Dispatcher) runSetPayment(ctx context.Context, s *session.Session, a Args) (Result, error) {
	m, err := parseMethod(a, "set-payment", paymentMethods)
	if err != nil {
		return Result{}, err
	}
	s.Checkout.PaymentMethod = m
	return lines("Payment method set to " + m), nil
}

func (d *Dispatcher) runSetShipping(ctx context.Context, s *session.Session, a Args) (Result, error) {
	m, err := parseMethod(a, "set-shipping", shippingMethods)
	if err != nil {
		return Result{}, err
	}
	s.Checkout.ShippingMethod = m
	return lines("Shipping method set to " + m), nil
}

// parseCoupon accepts 3 to 20 letters, digits or dashes and upper-cases them.
func parseCoupon(a Args) (string, error) {
	if err := a.Only(); err != nil {
		return "", err
	}
	code := a.Arg(0)
	if code == "" || len(a.Positional) > 1 {
		return "", usagef("Usage: apply-coupon <code>")
	}
	if len(code) < 3 || len(code) > 20 {
		return "", usagef("Invalid coupon code: %s", code)
	}
	for _, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return "", usagef("Invalid coupon code: %s", code)
		}
	}
	return strings.ToUpper(code), nil
}

// runApplyCoupon records the code for the next order. The discount itself
// is worked out by the server when the order is created.
func (d *Dispatcher) runApplyCoupon(ctx context.Context, s *session.Session, a Args) (Result, error) {
	code, err := parseCoupon(a)
	if err != nil {
		return Result{}, err
	}
	if s.Cart.Empty() {
		return Result{}, errEmptyCart
	}
	s.Checkout.Coupon = code
	return lines(fmt.Sprintf("Coupon %s applied", code)), nil
}
