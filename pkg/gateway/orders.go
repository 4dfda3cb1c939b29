package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/clicafe/clicafe/pkg/protocol"
)

// CreateOrderFromCart turns the server-side cart into an order shipped to
// addr.
func (c *Client) CreateOrderFromCart(ctx context.Context, addr protocol.ShippingAddress) (*protocol.OrderResponse, error) {
	return c.CreateOrder(ctx, protocol.CreateOrderRequest{ShippingAddress: addr})
}

// CreateOrder turns the server-side cart into an order, carrying the
// payment and shipping methods and coupon chosen at checkout.
func (c *Client) CreateOrder(ctx context.Context, req protocol.CreateOrderRequest) (*protocol.OrderResponse, error) {
	var out protocol.OrderResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/orders/create-from-cart/",
		body:     req,
		out:      &out,
		auth:     true,
		endpoint: "order_create",
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if out.ID == "" {
		return nil, errors.New("create order: response carried no order id")
	}
	return &out, nil
}

// ProcessPayment starts payment for an order and returns the provider
// redirect.
func (c *Client) ProcessPayment(ctx context.Context, orderID string) (*protocol.PaymentResponse, error) {
	if orderID == "" {
		return nil, errors.New("process payment: empty order id")
	}
	var out protocol.PaymentResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/orders/" + escape(orderID) + "/process-payment/",
		out:      &out,
		auth:     true,
		endpoint: "order_payment",
	})
	if err != nil {
		return nil, fmt.Errorf("process payment: %w", err)
	}
	if out.RedirectURL == "" {
		return nil, errors.New("process payment: response carried no redirect url")
	}
	return &out, nil
}
