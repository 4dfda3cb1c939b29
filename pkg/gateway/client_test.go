package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clicafe/clicafe/pkg/cache"
	"github.com/clicafe/clicafe/pkg/protocol"
)

// authServer serves /cart/ only for the bearer token in valid and hands out
// next on /token/refresh/.
type authServer struct {
	mu           sync.Mutex
	valid        string
	next         string
	refreshFails bool
	refreshCalls int32
	cartCalls    int32
}

func (s *authServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/token/refresh/":
		atomic.AddInt32(&s.refreshCalls, 1)
		time.Sleep(5 * time.Millisecond)
		if s.refreshFails {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
			return
		}
		s.mu.Lock()
		s.valid = s.next
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"access": s.next})
	case "/cart/":
		atomic.AddInt32(&s.cartCalls, 1)
		s.mu.Lock()
		ok := r.Header.Get("Authorization") == "Bearer "+s.valid
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": "1", "product_id": "COL001", "product_name": "Colombian Supreme", "unit_price": "15.99", "quantity": 2},
			},
			"total": "31.98",
		})
	default:
		http.NotFound(w, r)
	}
}

func TestAuthenticatedCall_RefreshesOnceOn401(t *testing.T) {
	srv := &authServer{valid: "new", next: "new"}
	c, ts := testClient(srv)
	defer ts.Close()
	c.SetTokens("old", "ref")

	cart, err := c.Cart(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Total != 3198 || len(cart.Items) != 1 {
		t.Errorf("unexpected cart: %+v", cart)
	}
	if n := atomic.LoadInt32(&srv.refreshCalls); n != 1 {
		t.Errorf("expected 1 refresh, got %d", n)
	}
	if n := atomic.LoadInt32(&srv.cartCalls); n != 2 {
		t.Errorf("expected original call plus one retry, got %d", n)
	}
}

func TestAuthenticatedCall_RefreshFailureExpiresSession(t *testing.T) {
	srv := &authServer{valid: "never", refreshFails: true}
	c, ts := testClient(srv)
	defer ts.Close()

	var hooks int32
	c.OnSessionExpired(func() { atomic.AddInt32(&hooks, 1) })
	c.SetTokens("old", "ref")

	_, err := c.Cart(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if n := atomic.LoadInt32(&hooks); n != 1 {
		t.Errorf("expected hook once, got %d", n)
	}
	if n := atomic.LoadInt32(&srv.refreshCalls); n != 1 {
		t.Errorf("expected 1 refresh, got %d", n)
	}
	if c.IsAuthenticated() {
		t.Error("tokens should be cleared")
	}
}

func TestAuthenticatedCall_Concurrent401sShareRefresh(t *testing.T) {
	srv := &authServer{valid: "new", next: "new"}
	c, ts := testClient(srv)
	defer ts.Close()
	c.SetTokens("old", "ref")

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Cart(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if n := atomic.LoadInt32(&srv.refreshCalls); n != 1 {
		t.Errorf("expected a single shared refresh, got %d", n)
	}
}

func TestAuthenticatedCall_WithoutToken(t *testing.T) {
	var calls int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	if _, err := c.Cart(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if calls != 0 {
		t.Errorf("no request should be sent, got %d", calls)
	}
}

func TestUnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New(Config{BaseURL: url, Timeout: time.Second})
	err := c.Ping(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if c.IsOnline() {
		t.Error("client should be marked offline")
	}
}

func TestProducts_FiltersAndCaches(t *testing.T) {
	var calls int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/products/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("type") != "coffee" || q.Get("roast") != "Light" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if q.Has("form") {
			t.Error("empty filter fields must not be sent")
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count": 1,
			"results": []map[string]interface{}{
				{"id": "ETH001", "name": "Ethiopian Yirgacheffe", "type": "coffee", "price": 17.99, "roast": "Light"},
			},
		})
	}))
	defer ts.Close()

	cc, err := cache.New(t.TempDir(), 1<<20, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	c.cache = cc

	filter := protocol.ProductFilter{Type: protocol.TypeCoffee, Roast: "Light"}
	for i := 0; i < 2; i++ {
		products, err := c.Products(context.Background(), filter)
		if err != nil {
			t.Fatalf("Products: %v", err)
		}
		if len(products) != 1 || products[0].Price != 1799 {
			t.Fatalf("unexpected products: %+v", products)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("second call should be served from cache, got %d requests", n)
	}

	c.InvalidateCatalog()
	c.Products(context.Background(), filter)
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("invalidate should force a request, got %d", n)
	}
}

func TestProduct_NotFound(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}))
	defer ts.Close()

	_, err := c.Product(context.Background(), "NOPE")
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestCheckoutSequence(t *testing.T) {
	var paid string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/create-from-cart/":
			var req protocol.CreateOrderRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.ShippingAddress.PostalCode != "06600" {
				t.Errorf("postal code = %q", req.ShippingAddress.PostalCode)
			}
			writeJSON(w, http.StatusCreated, map[string]interface{}{"id": "42", "total": "31.98"})
		case "/orders/42/process-payment/":
			paid = "42"
			writeJSON(w, http.StatusOK, map[string]string{"redirect_url": "https://pay.example/checkout/42"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()
	c.SetTokens("acc", "ref")

	order, err := c.CreateOrderFromCart(context.Background(), protocol.ShippingAddress{
		Street: "Av. Reforma 222", City: "CDMX", PostalCode: "06600",
	})
	if err != nil {
		t.Fatalf("CreateOrderFromCart: %v", err)
	}
	if order.Total != 3198 {
		t.Errorf("total = %v", order.Total)
	}
	pay, err := c.ProcessPayment(context.Background(), order.ID.String())
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if paid != "42" || pay.RedirectURL != "https://pay.example/checkout/42" {
		t.Errorf("unexpected payment: %+v", pay)
	}
}

func TestCreateOrder_EmptyIDIsError(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]interface{}{"total": "1.00"})
	}))
	defer ts.Close()
	c.SetTokens("acc", "ref")

	if _, err := c.CreateOrderFromCart(context.Background(), protocol.ShippingAddress{}); err == nil {
		t.Fatal("expected error for missing order id")
	}
}

func TestReportPayment_RetriesTransientFailures(t *testing.T) {
	var calls int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/success/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var rep protocol.PaymentReport
		json.NewDecoder(r.Body).Decode(&rep)
		if rep.PaymentID != "123" || rep.ExternalReference != "42" {
			t.Errorf("unexpected report %+v", rep)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	err := c.ReportPayment(context.Background(), protocol.OutcomeSuccess, protocol.PaymentReport{
		PaymentID: "123", Status: "approved", ExternalReference: "42", MerchantOrderID: "9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
}

func TestReportPayment_UnknownOutcome(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1"})
	if err := c.ReportPayment(context.Background(), "refunded", protocol.PaymentReport{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNumericIDsFromBackend(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cart/":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"items": []map[string]interface{}{
					{"id": 17, "product_id": 3, "product_name": "Veracruz Blend", "unit_price": "250.00", "quantity": 1},
				},
				"total": "250.00",
			})
		case "/orders/create-from-cart/":
			writeJSON(w, http.StatusCreated, map[string]interface{}{"id": 42, "total": "15.99"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()
	c.SetTokens("acc", "ref")

	cart, err := c.Cart(context.Background())
	if err != nil {
		t.Fatalf("Cart: %v", err)
	}
	if got := cart.Items[0]; got.ID != "17" || got.ProductID != "3" {
		t.Errorf("cart ids = %q/%q", got.ID, got.ProductID)
	}

	order, err := c.CreateOrderFromCart(context.Background(), protocol.ShippingAddress{
		Street: "Main", City: "CDMX", PostalCode: "06600",
	})
	if err != nil {
		t.Fatalf("CreateOrderFromCart: %v", err)
	}
	if order.ID != "42" || order.Total != 1599 {
		t.Errorf("unexpected order: %+v", order)
	}
}

func TestCreateOrder_SendsCheckoutChoices(t *testing.T) {
	var got protocol.CreateOrderRequest
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": 7, "total": "20.00"})
	}))
	defer ts.Close()
	c.SetTokens("acc", "ref")

	_, err := c.CreateOrder(context.Background(), protocol.CreateOrderRequest{
		ShippingAddress: protocol.ShippingAddress{Street: "Main", City: "CDMX", PostalCode: "06600"},
		PaymentMethod:   "credit-card",
		ShippingMethod:  "express",
		CouponCode:      "CAFE20",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if got.PaymentMethod != "credit-card" || got.ShippingMethod != "express" || got.CouponCode != "CAFE20" {
		t.Errorf("request body = %+v", got)
	}
}
