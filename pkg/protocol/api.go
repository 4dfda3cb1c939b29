// Package protocol defines the gateway API request/response types.
package protocol

import "time"

// ErrorResponse is returned on API errors. The backend is not consistent
// about which key carries the message, so all known keys are accepted.
type ErrorResponse struct {
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Text returns the first non-empty message field.
func (e ErrorResponse) Text() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Error != "":
		return e.Error
	default:
		return e.Message
	}
}

// LoginRequest is the body for POST /login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /login/.
type LoginResponse struct {
	Access      string      `json:"access"`
	Refresh     string      `json:"refresh"`
	UserProfile UserProfile `json:"userProfile"`
}

// RefreshRequest is the body for POST /token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse is returned by POST /token/refresh/. Rotating backends
// return a new refresh token; others leave it empty.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// UserProfile describes the authenticated customer.
type UserProfile struct {
	ID              int    `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	PaternalSurname string `json:"apellido_paterno"`
	MaternalSurname string `json:"apellido_materno"`
	Phone           string `json:"phone,omitempty"`
	FullName        string `json:"full_name,omitempty"`
}

// DisplayName returns the short name used in the prompt.
func (u *UserProfile) DisplayName() string {
	if u == nil {
		return "guest"
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// RegisterRequest is the body for POST /register/.
type RegisterRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	PaternalSurname string `json:"apellido_paterno"`
	MaternalSurname string `json:"apellido_materno"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
}

// PasswordResetRequest is the body for POST /password-reset/.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// AckResponse is a generic acknowledgement body.
type AckResponse struct {
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}

// Text returns the acknowledgement message.
func (a AckResponse) Text() string {
	if a.Detail != "" {
		return a.Detail
	}
	return a.Message
}

// Product types.
const (
	TypeCoffee    = "coffee"
	TypeAccessory = "accessory"
)

// Category is returned by GET /categories/.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Product is a catalog entry.
type Product struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Price       Price  `json:"price"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Form        string `json:"form,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Roast       string `json:"roast,omitempty"`
	Weight      string `json:"weight,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ProductFilter narrows GET /products/.
type ProductFilter struct {
	Type   string
	Form   string
	Origin string
	Roast  string
	Search string
}

// CartItem is a line of the server-side cart.
type CartItem struct {
	ID          ID     `json:"id"`
	ProductID   ID     `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   Price  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
}

// Cart is returned by GET /cart/ and by every cart mutation.
type Cart struct {
	Items []CartItem `json:"items"`
	Total Price      `json:"total"`
}

// AddToCartRequest is the body for POST /cart/add/.
type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest is the body for PUT /cart/items/{id}/.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// ShippingAddress is attached to an order at creation.
type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// CreateOrderRequest is the body for POST /orders/create-from-cart/.
type CreateOrderRequest struct {
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	ShippingMethod  string          `json:"shipping_method,omitempty"`
	CouponCode      string          `json:"coupon_code,omitempty"`
}

// OrderResponse is returned by POST /orders/create-from-cart/.
type OrderResponse struct {
	ID        ID        `json:"id"`
	Total     Price     `json:"total"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// PaymentResponse is returned by POST /orders/{id}/process-payment/.
type PaymentResponse struct {
	RedirectURL  string `json:"redirect_url"`
	PreferenceID string `json:"preference_id,omitempty"`
}

// Payment outcomes reported by the provider redirect.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePending = "pending"
)

// PaymentReport is the body for POST /payments/{outcome}/.
type PaymentReport struct {
	PaymentID         string `json:"payment_id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
	MerchantOrderID   string `json:"merchant_order_id"`
}
