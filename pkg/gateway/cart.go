package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/clicafe/clicafe/pkg/protocol"
)

// Cart fetches the authenticated user's cart.
func (c *Client) Cart(ctx context.Context) (*protocol.Cart, error) {
	var out protocol.Cart
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/cart/",
		out:      &out,
		auth:     true,
		endpoint: "cart",
	})
	if err != nil {
		return nil, fmt.Errorf("cart: %w", err)
	}
	return &out, nil
}

// AddToCart adds qty units of a product to the cart.
func (c *Client) AddToCart(ctx context.Context, productID string, qty int) error {
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/cart/add/",
		body:     protocol.AddToCartRequest{ProductID: productID, Quantity: qty},
		auth:     true,
		endpoint: "cart_add",
	})
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	return nil
}

// UpdateCartItem sets the quantity of a cart line.
func (c *Client) UpdateCartItem(ctx context.Context, itemID string, qty int) error {
	err := c.do(ctx, call{
		method:   http.MethodPut,
		path:     "/cart/items/" + escape(itemID) + "/",
		body:     protocol.UpdateCartItemRequest{Quantity: qty},
		auth:     true,
		endpoint: "cart_update",
	})
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

// RemoveCartItem deletes a cart line.
func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	err := c.do(ctx, call{
		method:   http.MethodDelete,
		path:     "/cart/items/" + escape(itemID) + "/",
		auth:     true,
		endpoint: "cart_remove",
	})
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}
