// Package shell interprets CLIcafe commands. Each input line becomes a typed
// command, runs against the session and the gateway, and yields a Result for
// the console to render.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clicafe/clicafe/internal/catalog"
	"github.com/clicafe/clicafe/internal/export"
	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/metrics"
	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/pkg/gateway"
	"github.com/clicafe/clicafe/pkg/protocol"
)

// Catalog serves product queries. Both the embedded catalog and the
// gateway client implement it.
type Catalog interface {
	Categories(ctx context.Context) ([]protocol.Category, error)
	Products(ctx context.Context, f protocol.ProductFilter) ([]protocol.Product, error)
	Product(ctx context.Context, id string) (*protocol.Product, error)
}

// Gateway is the part of the REST client the shell drives.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*protocol.LoginResponse, error)
	Register(ctx context.Context, req protocol.RegisterRequest) (*protocol.UserProfile, error)
	ResetPassword(ctx context.Context, email string) (*protocol.AckResponse, error)
	Logout()

	Cart(ctx context.Context) (*protocol.Cart, error)
	AddToCart(ctx context.Context, productID string, qty int) error
	UpdateCartItem(ctx context.Context, itemID string, qty int) error
	RemoveCartItem(ctx context.Context, itemID string) error

	CreateOrder(ctx context.Context, req protocol.CreateOrderRequest) (*protocol.OrderResponse, error)
	ProcessPayment(ctx context.Context, orderID string) (*protocol.PaymentResponse, error)
}

// Options configures a Dispatcher.
type Options struct {
	// Catalog provides the product tree, the drinks menu and, offline,
	// the products themselves. Required.
	Catalog *catalog.Catalog

	// Products overrides where product queries go. Defaults to Catalog.
	Products Catalog

	// Gateway is nil in offline mode. The cart is then local and orders
	// get local ids.
	Gateway Gateway

	Hostname string
	Now      func() time.Time

	// OnLogin is called after a successful sign-in, to persist tokens.
	OnLogin func(email string, resp *protocol.LoginResponse)

	// OnLogout is called after logout.
	OnLogout func()

	// Export writes the order history for log orders --export.
	Export func(path string, orders []session.Order) error
}

// Dispatcher executes command lines.
type Dispatcher struct {
	opts     Options
	products Catalog
	cart     cartBackend
	commands map[string]*command
	verbs    []*command
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	if opts.Catalog == nil {
		panic("shell: Options.Catalog is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Hostname == "" {
		opts.Hostname, _ = os.Hostname()
		if opts.Hostname == "" {
			opts.Hostname = "localhost"
		}
	}
	if opts.Export == nil {
		opts.Export = export.WriteOrders
	}

	d := &Dispatcher{opts: opts, products: opts.Products}
	if d.products == nil {
		d.products = opts.Catalog
	}
	if opts.Gateway != nil {
		d.cart = &remoteCart{gw: opts.Gateway}
	} else {
		d.cart = localCart{}
	}
	d.register()
	return d
}

// Online reports whether the dispatcher talks to a server.
func (d *Dispatcher) Online() bool {
	return d.opts.Gateway != nil
}

// Execute runs one input line against s. It never panics on user input and
// never returns an error: failures become lines of the Result.
func (d *Dispatcher) Execute(ctx context.Context, line string, s *session.Session) Result {
	start := time.Now()
	res, verb, err := d.execute(ctx, line, s)

	outcome := "ok"
	if verb == "unknown" {
		outcome = "unknown"
	}
	if err != nil {
		outcome = "error"
		if errors.Is(err, gateway.ErrSessionExpired) {
			outcome = "expired"
			s.SignOut()
			res.Terminate = true
		}
		res.Lines = append(res.Lines, describe(err))
	}
	res.Path = s.Path
	res.Color = s.Color
	res.MaskInput = s.Flow.State() == session.AwaitingPassword

	if verb != "" {
		elapsed := time.Since(start)
		metrics.RecordCommand(verb, outcome, elapsed)
		fields := []zap.Field{
			logging.String("verb", verb),
			logging.String("outcome", outcome),
			logging.Duration("duration", elapsed),
		}
		if err != nil {
			fields = append(fields, logging.Err(err))
		}
		logging.WithContext(ctx).Debug("command executed", fields...)
	}
	return res
}

func (d *Dispatcher) execute(ctx context.Context, line string, s *session.Session) (Result, string, error) {
	switch s.Flow.State() {
	case session.AwaitingPassword:
		res, err := d.completePassword(ctx, line, s)
		return res, "password", err
	case session.ChoosingBase, session.ChoosingMilk, session.ChoosingExtras, session.ChoosingSize:
		res, err := d.customize(line, s)
		return res, "customize", err
	}

	tokens, err := Tokenize(line)
	if err != nil {
		return Result{}, "parse", usagef("%v", err)
	}
	if len(tokens) == 0 {
		return Result{}, "", nil
	}

	name := strings.ToLower(tokens[0])
	cmd, ok := d.commands[name]
	if !ok {
		return lines(fmt.Sprintf("Error: Unrecognized command: %s. Type \"help\" to see available commands.", tokens[0])), "unknown", nil
	}
	res, err := cmd.run(ctx, s, ParseArgs(tokens[1:]))
	return res, cmd.name, err
}

// describe turns an error into the single line shown to the user.
func describe(err error) string {
	var ue *usageError
	switch {
	case errors.As(err, &ue):
		return "Error: " + ue.msg
	case errors.Is(err, gateway.ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, gateway.ErrNotAuthenticated):
		return "Error: You need to sign in first: ssh -i you@example.com"
	case errors.Is(err, gateway.ErrUnreachable):
		return "Error: Cannot reach the CLIcafe server. Please try again later."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Error: The request was cancelled or timed out."
	}
	if ae, ok := gateway.AsAPIError(err); ok {
		if ae.Message != "" {
			return "Error: " + ae.Message
		}
		return fmt.Sprintf("Error: The server answered with status %d.", ae.Status)
	}
	return "Error: " + err.Error()
}

func isNotFound(err error) bool {
	return errors.Is(err, catalog.ErrNotFound) || gateway.IsStatus(err, 404)
}

// SyncCart refreshes the session's cart mirror from the server. It does
// nothing offline.
func (d *Dispatcher) SyncCart(ctx context.Context, s *session.Session) error {
	return d.cart.Sync(ctx, s)
}
