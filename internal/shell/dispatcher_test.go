package shell

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/pkg/gateway"
	"github.com/clicafe/clicafe/pkg/protocol"
)

func TestUnknownVerbYieldsOneLine(t *testing.T) {
	d, s := offline(t)
	run(t, d, s, "cd Molido")
	run(t, d, s, "add-to-cart --product=COL001")

	res := run(t, d, s, "frobnicate --now")

	require.Len(t, res.Lines, 1)
	assert.Equal(t, `Error: Unrecognized command: frobnicate. Type "help" to see available commands.`, res.Lines[0])
	assert.Equal(t, "/Molido", s.Path)
	assert.Equal(t, "/Molido", res.Path)
	assert.Equal(t, 1, s.Cart.Len())
	assert.False(t, res.Terminate)
}

func TestParseErrorChangesNothing(t *testing.T) {
	d, s := offline(t)
	res := run(t, d, s, `cd "Molido`)
	require.Len(t, res.Lines, 1)
	assert.True(t, strings.HasPrefix(res.Lines[0], "Error:"))
	assert.Equal(t, "~", s.Path)
}

func TestEmptyLine(t *testing.T) {
	d, s := offline(t)
	res := run(t, d, s, "   ")
	assert.Empty(t, res.Lines)
	assert.Equal(t, "~", res.Path)
	assert.Equal(t, "green", res.Color)
}

func TestVerbsAreCaseInsensitive(t *testing.T) {
	d, s := offline(t)
	res := run(t, d, s, "PWD")
	assert.Equal(t, []string{"/home/clicafe"}, res.Lines)
}

func TestCd(t *testing.T) {
	d, s := offline(t)

	res := run(t, d, s, "cd ..")
	assert.Equal(t, []string{"You are already in the root directory"}, res.Lines)
	assert.Equal(t, "~", s.Path)

	res = run(t, d, s, "cd molido")
	assert.Empty(t, res.Lines)
	assert.Equal(t, "/Molido", s.Path)

	run(t, d, s, "cd Kilo")
	assert.Equal(t, "/Molido/Kilo", s.Path)
	assert.Equal(t, []string{"/Molido/Kilo"}, run(t, d, s, "pwd").Lines)

	res = run(t, d, s, "cd Nowhere")
	assert.Equal(t, []string{"Error: Cannot access 'Nowhere': File or directory does not exist"}, res.Lines)
	assert.Equal(t, "/Molido/Kilo", s.Path)

	res = run(t, d, s, "cd VeracruzBlend.coffee")
	require.Len(t, res.Lines, 1)
	assert.Contains(t, res.Lines[0], "does not exist")
	assert.Equal(t, "/Molido/Kilo", s.Path)

	run(t, d, s, "cd ../MedioKilo")
	assert.Equal(t, "/Molido/MedioKilo", s.Path)

	run(t, d, s, "cd /Grano/Sobre")
	assert.Equal(t, "/Grano/Sobre", s.Path)

	run(t, d, s, "cd ~")
	assert.Equal(t, "~", s.Path)

	run(t, d, s, "cd Grano")
	run(t, d, s, "cd")
	assert.Equal(t, "~", s.Path)
}

func TestLsAndCatFile(t *testing.T) {
	d, s := offline(t)

	assert.Equal(t, []string{"Molido/", "Grano/"}, run(t, d, s, "ls").Lines)

	run(t, d, s, "cd Molido/Kilo")
	assert.Equal(t, []string{"VeracruzBlend.coffee", "OaxacaReserve.coffee"}, run(t, d, s, "ls").Lines)

	res := run(t, d, s, "cat veracruzblend")
	require.NotNil(t, res.Popup)
	assert.Equal(t, "Veracruz Blend", res.Popup.Title)
	assert.Equal(t, protocol.Units(250), res.Popup.Price)
	assert.Contains(t, res.Lines, "Price: $250")

	res = run(t, d, s, "vi ../MedioKilo/ChiapasOrganic.coffee")
	require.NotNil(t, res.Popup)
	assert.Equal(t, "Chiapas Organic", res.Popup.Title)

	res = run(t, d, s, "cat ..")
	assert.Nil(t, res.Popup)
	assert.Contains(t, res.Lines[0], "Is a directory")
}

func TestCatalogQueries(t *testing.T) {
	d, s := offline(t)

	res := run(t, d, s, "ls accessories")
	assert.Equal(t, []string{
		"List of accessories:",
		"GRI001. Manual Grinder - $29.99",
		"PRE001. French Press - $24.99",
		"CUP001. Ceramic Mug Set - $19.99",
	}, res.Lines)

	res = run(t, d, s, "find coffee --roast=light")
	assert.Equal(t, "Found coffee:", res.Lines[0])
	assert.Len(t, res.Lines, 3)

	res = run(t, d, s, "find coffee --origin=Mars")
	assert.Equal(t, []string{"No coffee matches those filters"}, res.Lines)

	res = run(t, d, s, "cat product col001")
	require.NotNil(t, res.Popup)
	assert.Equal(t, "Colombian Supreme", res.Popup.Title)

	res = run(t, d, s, "cat product NOPE01")
	assert.Equal(t, []string{"Error: Product NOPE01 not found"}, res.Lines)

	res = run(t, d, s, "ls categories")
	assert.Equal(t, "Categories:", res.Lines[0])

	res = run(t, d, s, "find tea")
	assert.True(t, strings.HasPrefix(res.Lines[0], "Error: Usage: find"))
}

func TestAddToCartMergesAndTotals(t *testing.T) {
	d, s := offline(t)

	res := run(t, d, s, "add-to-cart --product=COL001 --quantity=2")
	assert.Equal(t, []string{"Added 2 Colombian Supreme to cart"}, res.Lines)
	run(t, d, s, "add-to-cart --product=col001")
	run(t, d, s, "add-to-cart --product=CUP001")

	require.Equal(t, 2, s.Cart.Len())
	line, ok := s.Cart.Find("COL001")
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, protocol.Cents(3*1599+1999), s.Cart.Total())

	res = run(t, d, s, "cat cart")
	assert.Equal(t, "Your cart:", res.Lines[0])
	assert.Equal(t, "Total: $67.96", res.Lines[len(res.Lines)-1])
}

func TestAddToCartValidation(t *testing.T) {
	d, s := offline(t)

	tests := []struct {
		line string
		want string
	}{
		{"add-to-cart", "Error: Usage: add-to-cart"},
		{"add-to-cart --product=COL001 --quantity=0", "Error: quantity must be at least 1"},
		{"add-to-cart --product=COL001 --quantity=x", "Error: quantity must be a whole number"},
		{"add-to-cart --product=ZZZ999", "Error: Product ZZZ999 not found"},
		{"add-to-cart --product=COL001 --colour=red", "Error: unknown option --colour"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res := run(t, d, s, tt.line)
			require.Len(t, res.Lines, 1)
			assert.True(t, strings.HasPrefix(res.Lines[0], tt.want), res.Lines[0])
			assert.True(t, s.Cart.Empty())
		})
	}
}

func TestUpdateAndRemove(t *testing.T) {
	d, s := offline(t)
	run(t, d, s, "add-to-cart --product=ETH001")

	res := run(t, d, s, "update-cart 1 --quantity=4")
	assert.Equal(t, []string{"Updated Ethiopian Yirgacheffe quantity to 4"}, res.Lines)

	res = run(t, d, s, "update-cart 1 --quantity=0")
	assert.Equal(t, []string{"Error: quantity must be at least 1"}, res.Lines)

	res = run(t, d, s, "rm-from-cart 9")
	assert.Equal(t, []string{"Error: Item 9 is not in your cart"}, res.Lines)

	res = run(t, d, s, "rm-from-cart 1")
	assert.Equal(t, []string{"Removed Ethiopian Yirgacheffe from cart"}, res.Lines)
	assert.Equal(t, []string{"Your cart is empty"}, run(t, d, s, "cat cart").Lines)
}

func TestClearCart(t *testing.T) {
	d, s := offline(t)
	run(t, d, s, "add-to-cart --product=ETH001")

	assert.Equal(t, []string{"Error: Usage: clear cart"}, run(t, d, s, "clear").Lines)
	assert.False(t, s.Cart.Empty())
	assert.Equal(t, []string{"Cart cleared"}, run(t, d, s, "clear cart").Lines)
	assert.True(t, s.Cart.Empty())
}

func TestCustomizationFlow(t *testing.T) {
	d, s := offline(t)

	res := run(t, d, s, "brew 1")
	assert.Equal(t, "Let's customize your coffee. First, choose the base:", res.Lines[0])
	assert.Equal(t, session.ChoosingBase, s.Flow.State())

	res = run(t, d, s, "mocha")
	assert.Contains(t, res.Lines[0], "not a valid base")
	assert.Equal(t, session.ChoosingBase, s.Flow.State())

	run(t, d, s, "Espresso")
	assert.Equal(t, session.ChoosingMilk, s.Flow.State())
	run(t, d, s, "regular")
	assert.Equal(t, session.ChoosingExtras, s.Flow.State())
	run(t, d, s, "none")
	assert.Equal(t, session.ChoosingSize, s.Flow.State())
	res = run(t, d, s, "large")

	assert.Equal(t, session.Idle, s.Flow.State())
	require.Equal(t, 1, s.Cart.Len())
	item := s.Cart.Items()[0]
	assert.Equal(t, protocol.Units(50), item.UnitPrice)
	assert.Equal(t, "espresso, regular, none, large", item.Options)
	assert.Contains(t, res.Lines[0], "$50")
}

func TestCustomizationWithExtrasAndCancel(t *testing.T) {
	d, s := offline(t)

	run(t, d, s, "brew 1")
	run(t, d, s, "latte")
	run(t, d, s, "almond")
	res := run(t, d, s, "vanilla, whipped cream")
	assert.True(t, strings.HasPrefix(res.Lines[0], "Error:"))
	assert.Equal(t, session.ChoosingExtras, s.Flow.State())
	run(t, d, s, "vanilla, caramel")
	run(t, d, s, "medium")
	require.Equal(t, 1, s.Cart.Len())
	assert.Equal(t, protocol.Units(40+10+10+5), s.Cart.Total())

	run(t, d, s, "brew 1")
	run(t, d, s, "americano")
	res = run(t, d, s, "cancel")
	assert.Equal(t, []string{"Customization cancelled."}, res.Lines)
	assert.Equal(t, session.Idle, s.Flow.State())
	assert.Equal(t, 1, s.Cart.Len())
}

func TestBrewFixedDrink(t *testing.T) {
	d, s := offline(t)

	assert.Equal(t, "1. Custom Coffee - $40", run(t, d, s, "menu").Lines[1])

	res := run(t, d, s, "brew 2 3")
	assert.Equal(t, []string{"Added 3 Espresso to cart"}, res.Lines)
	assert.Equal(t, protocol.Units(75), s.Cart.Total())

	res = run(t, d, s, "brew 9")
	assert.Contains(t, res.Lines[0], "not on the menu")
	res = run(t, d, s, "brew 2 0")
	assert.Equal(t, []string{"Error: quantity must be at least 1"}, res.Lines)
}

func TestOfflineCheckout(t *testing.T) {
	d, s := offline(t)

	assert.Equal(t, []string{"Error: Your cart is empty"}, run(t, d, s, "checkout").Lines)
	assert.Equal(t, []string{"Error: Your cart is empty"}, run(t, d, s, "confirm-order --street=x --city=y --zip=1").Lines)

	run(t, d, s, "add-to-cart --product=BRA001 --quantity=2")
	res := run(t, d, s, "checkout")
	assert.Equal(t, "Proceeding to checkout...", res.Lines[0])
	assert.False(t, s.Cart.Empty())

	res = run(t, d, s, "confirm-order --street=\"Av. Reforma 222\"")
	require.Len(t, res.Lines, 1)
	assert.Contains(t, res.Lines[0], "--city, --zip")
	assert.False(t, s.Cart.Empty())

	res = run(t, d, s, `confirm-order --street="Av. Reforma 222" --city=CDMX --zip=06600`)
	assert.Equal(t, []string{
		"Order confirmed! Thank you for your purchase.",
		"Order ID: ORD0001",
		"Total: $29.98",
	}, res.Lines)
	assert.Empty(t, res.RedirectURL)
	assert.True(t, s.Cart.Empty())

	o, ok := s.Order("ORD0001")
	require.True(t, ok)
	assert.Equal(t, "Av. Reforma 222", o.Address.Street)
	assert.Equal(t, session.StatusPlaced, o.Status)
}

func TestOrders(t *testing.T) {
	d, s := offline(t)
	var exported []session.Order
	d.opts.Export = func(path string, orders []session.Order) error {
		if path != "orders.xlsx" {
			return errors.New("unexpected path " + path)
		}
		exported = orders
		return nil
	}

	assert.Equal(t, []string{"No orders found"}, run(t, d, s, "log orders").Lines)

	run(t, d, s, "brew 5")
	run(t, d, s, "confirm-order --street=Main --city=Puebla --zip=72000")

	assert.Equal(t, []string{"Your orders:", "Order ORD0001 - Total: $28 - placed"}, run(t, d, s, "log orders").Lines)
	assert.Equal(t, []string{"Order ORD0001 is being processed and will be shipped soon."}, run(t, d, s, "track-order ORD0001").Lines)

	res := run(t, d, s, "cat order ORD0001")
	assert.Equal(t, "Order ORD0001 (placed)", res.Lines[0])

	assert.Equal(t, []string{"Exported 1 orders to orders.xlsx"}, run(t, d, s, "log orders --export=orders.xlsx").Lines)
	assert.Len(t, exported, 1)

	assert.Equal(t, []string{"Order ORD0001 has been cancelled."}, run(t, d, s, "cancel-order ORD0001").Lines)
	assert.Equal(t, []string{"Order ORD0001 has been cancelled."}, run(t, d, s, "track-order ORD0001").Lines)
	assert.Equal(t, []string{"Error: Order ORD0001 is already cancelled"}, run(t, d, s, "cancel-order ORD0001").Lines)
	assert.Equal(t, []string{"Error: Order ORD9999 not found"}, run(t, d, s, "track-order ORD9999").Lines)
}

func TestColorAndExit(t *testing.T) {
	d, s := offline(t)

	res := run(t, d, s, "color Blue")
	assert.Equal(t, []string{"Terminal color changed to blue"}, res.Lines)
	assert.Equal(t, "blue", res.Color)

	res = run(t, d, s, "color magenta")
	assert.Equal(t, []string{"Error: Invalid color. Options: green, blue, red, yellow, purple"}, res.Lines)
	assert.Equal(t, "blue", s.Color)

	res = run(t, d, s, "exit")
	assert.True(t, res.Terminate)
	assert.Equal(t, []string{"Exiting CLIcafe Terminal..."}, res.Lines)
}

func TestHelp(t *testing.T) {
	d, s := offline(t)

	res := run(t, d, s, "help")
	assert.Equal(t, "Available commands:", res.Lines[0])
	joined := strings.Join(res.Lines, "\n")
	for _, verb := range []string{"ssh", "add-to-cart", "confirm-order", "brew", "cd", "color"} {
		assert.Contains(t, joined, verb)
	}

	res = run(t, d, s, "help vi")
	assert.Equal(t, "Usage: cat product <id> | cat cart | cat order <id> | cat <file>", res.Lines[0])

	res = run(t, d, s, "help dance")
	assert.True(t, strings.HasPrefix(res.Lines[0], "Error:"))

	assert.Greater(t, len(run(t, d, s, "manual").Lines), 10)
}

func TestOfflineRejectsAccountVerbs(t *testing.T) {
	d, s := offline(t)

	res := run(t, d, s, "ssh -i ana@example.com")
	assert.Contains(t, res.Lines[0], "offline")
	assert.Equal(t, session.Idle, s.Flow.State())
	assert.False(t, res.MaskInput)

	assert.Equal(t, []string{"guest (not signed in)"}, run(t, d, s, "whoami").Lines)
}

func TestSSHUsage(t *testing.T) {
	d, s, gw := online(t)
	for _, line := range []string{"ssh", "ssh ana@example.com", "ssh -i ana", "ssh -i @example.com"} {
		res := run(t, d, s, line)
		assert.Equal(t, []string{"Error: Usage: ssh -i email@example.com"}, res.Lines, line)
	}
	assert.Empty(t, gw.Calls())
}

func TestPasswordFlow(t *testing.T) {
	d, s, gw := online(t)
	var saved string
	d.opts.OnLogin = func(email string, resp *protocol.LoginResponse) { saved = email + ":" + resp.Access }

	res := run(t, d, s, "ssh -i ana@example.com")
	assert.Equal(t, []string{"Enter password:"}, res.Lines)
	assert.True(t, res.MaskInput)
	assert.Equal(t, session.AwaitingPassword, s.Flow.State())

	// The password line is never parsed as a command.
	res = run(t, d, s, "wrong password")
	assert.Equal(t, []string{"Error: Invalid credentials. Please try again."}, res.Lines)
	assert.False(t, res.MaskInput)
	assert.Equal(t, session.Idle, s.Flow.State())
	assert.False(t, s.LoggedIn())

	run(t, d, s, "ssh -i ana@example.com")
	res = run(t, d, s, "s3cret")
	require.True(t, s.LoggedIn())
	assert.Equal(t, "ana@example.com", s.User.Email)
	assert.Equal(t, "ana@example.com:access", saved)
	assert.Contains(t, res.Lines[0], "CLIcafe brewbox 1.0.0-coffee-roast")
	assert.Equal(t, "Welcome, Ana!", res.Lines[len(res.Lines)-1])
	assert.Equal(t, []string{"Login", "Login", "Cart"}, gw.Calls())

	assert.Equal(t, []string{"Ana López (ana@example.com)"}, run(t, d, s, "whoami").Lines)
}

func TestLoginUnreachable(t *testing.T) {
	d, s, gw := online(t)
	gw.loginErr = gateway.ErrUnreachable

	run(t, d, s, "ssh -i ana@example.com")
	res := run(t, d, s, "s3cret")
	assert.Equal(t, []string{"Error: Cannot reach the CLIcafe server. Please try again later."}, res.Lines)
	assert.Equal(t, session.Idle, s.Flow.State())
}

func TestRegisterAsksForMaskedPassword(t *testing.T) {
	d, s, gw := online(t)

	res := run(t, d, s, "register --email=bea@example.com --name=Bea --phone=5551234")
	assert.True(t, res.MaskInput)
	assert.Equal(t, []string{"Choose a password:"}, res.Lines)

	res = run(t, d, s, "p4ss word")
	assert.Equal(t, "Registration successful.", res.Lines[0])
	assert.Equal(t, []string{"Register:bea@example.com:p4ss word"}, gw.Calls())
	assert.False(t, s.LoggedIn())

	res = run(t, d, s, "register --name=Bea")
	assert.True(t, strings.HasPrefix(res.Lines[0], "Error: Usage: register"))
}

func TestPasswd(t *testing.T) {
	d, s, _ := online(t)
	assert.Equal(t, []string{"Server response: Reset email sent"}, run(t, d, s, "passwd ana@example.com").Lines)
	assert.Equal(t, []string{"Error: Usage: passwd email@example.com"}, run(t, d, s, "passwd").Lines)
}

func TestRemoteCartNeedsSignIn(t *testing.T) {
	d, s, gw := online(t)

	res := run(t, d, s, "add-to-cart --product=COL001")
	assert.Equal(t, []string{"Error: You need to sign in first: ssh -i you@example.com"}, res.Lines)
	assert.Empty(t, gw.Calls())
}

func TestRemoteCartMirrorsServer(t *testing.T) {
	d, s, gw := online(t)
	signIn(t, d, s)

	run(t, d, s, "add-to-cart --product=COL001 --quantity=2")
	run(t, d, s, "add-to-cart --product=COL001")
	require.Equal(t, 1, s.Cart.Len())
	line := s.Cart.Items()[0]
	assert.Equal(t, "srv-1", line.ID)
	assert.Equal(t, 3, line.Quantity)

	res := run(t, d, s, "update-cart srv-1 --quantity=5")
	assert.Equal(t, []string{"Updated Colombian Supreme quantity to 5"}, res.Lines)
	assert.Equal(t, 5, gw.items[0].Quantity)

	run(t, d, s, "rm-from-cart COL001")
	assert.True(t, s.Cart.Empty())
	assert.Empty(t, gw.items)
	assert.Contains(t, gw.Calls(), "RemoveCartItem:srv-1")
}

func TestEmptyCheckoutMakesNoGatewayCalls(t *testing.T) {
	d, s, gw := online(t)
	signIn(t, d, s)
	before := len(gw.Calls())

	assert.Equal(t, []string{"Error: Your cart is empty"}, run(t, d, s, "checkout").Lines)
	assert.Equal(t, []string{"Error: Your cart is empty"},
		run(t, d, s, `confirm-order --street="Av. Reforma 222" --city=CDMX --zip=06600`).Lines)

	assert.Len(t, gw.Calls(), before)
}

func TestConfirmOrderRedirectsToPayment(t *testing.T) {
	d, s, gw := online(t)
	signIn(t, d, s)
	run(t, d, s, "add-to-cart --product=ETH001 --quantity=2")

	res := run(t, d, s, `confirm-order --street="Av. Reforma 222" --city=CDMX --zip=06600`)

	assert.Equal(t, "https://pay.example/checkout/42", res.RedirectURL)
	assert.Equal(t, []string{
		"Order 42 created. Total: $35.98",
		"Complete your payment at:",
		"https://pay.example/checkout/42",
	}, res.Lines)
	assert.True(t, s.Cart.Empty())

	calls := gw.Calls()
	assert.Equal(t, []string{"CreateOrder", "ProcessPayment:42"}, calls[len(calls)-2:])

	o, ok := s.Order("42")
	require.True(t, ok)
	assert.Equal(t, session.StatusAwaitingPayment, o.Status)
}

func TestConfirmOrderKeepsOrphanedOrder(t *testing.T) {
	d, s, gw := online(t)
	signIn(t, d, s)
	run(t, d, s, "add-to-cart --product=ETH001")
	gw.paymentErr = &gateway.APIError{Status: 502, Message: "payment provider down"}

	res := run(t, d, s, `confirm-order --street=Main --city=CDMX --zip=06600`)

	assert.Empty(t, res.RedirectURL)
	assert.Equal(t, "Error: payment provider down", res.Lines[1])
	o, ok := s.Order("42")
	require.True(t, ok)
	assert.Equal(t, session.StatusPaymentPending, o.Status)

	gw.paymentErr = nil
	res = run(t, d, s, "pay-order 42")
	assert.Equal(t, "https://pay.example/checkout/42", res.RedirectURL)
	assert.Equal(t, session.StatusAwaitingPayment, o.Status)
}

func TestSessionExpiryTerminates(t *testing.T) {
	d, s, gw := online(t)
	signIn(t, d, s)
	run(t, d, s, "add-to-cart --product=ETH001")
	gw.expired = true

	res := run(t, d, s, "cat cart")

	assert.True(t, res.Terminate)
	assert.Equal(t, []string{"Your session has expired. Please sign in again."}, res.Lines)
	assert.False(t, s.LoggedIn())
	assert.True(t, s.Cart.Empty())
}

func TestLogout(t *testing.T) {
	d, s, gw := online(t)
	loggedOut := false
	d.opts.OnLogout = func() { loggedOut = true }

	assert.Equal(t, []string{"Error: You are not signed in"}, run(t, d, s, "logout").Lines)

	signIn(t, d, s)
	res := run(t, d, s, "logout")
	assert.Equal(t, []string{"Logged out successfully"}, res.Lines)
	assert.False(t, res.Terminate)
	assert.False(t, s.LoggedIn())
	assert.True(t, loggedOut)
	assert.Contains(t, gw.Calls(), "Logout")
}

func TestBrewIsOfflineOnly(t *testing.T) {
	d, s, _ := online(t)
	signIn(t, d, s)
	res := run(t, d, s, "brew 2")
	assert.Equal(t, []string{"Error: The drinks desk only takes orders in offline mode"}, res.Lines)
	assert.True(t, s.Cart.Empty())
}

func TestSwitchingUserDropsPreviousOrders(t *testing.T) {
	d, s, _ := online(t)
	signIn(t, d, s)
	run(t, d, s, "add-to-cart --product=ETH001")
	run(t, d, s, `confirm-order --street=Main --city=CDMX --zip=06600`)
	require.Len(t, s.Orders, 1)

	run(t, d, s, "ssh -i bob@example.com")
	run(t, d, s, "s3cret")

	require.True(t, s.LoggedIn())
	assert.Equal(t, "bob@example.com", s.User.Email)
	assert.Empty(t, s.Orders)
	assert.Equal(t, []string{"No orders found"}, run(t, d, s, "log orders").Lines)
	assert.Equal(t, []string{"Error: Order 42 not found"}, run(t, d, s, "cancel-order 42").Lines)
}

func TestSigningInAgainKeepsOrders(t *testing.T) {
	d, s, _ := online(t)
	signIn(t, d, s)
	run(t, d, s, "add-to-cart --product=ETH001")
	run(t, d, s, `confirm-order --street=Main --city=CDMX --zip=06600`)

	signIn(t, d, s)

	assert.Len(t, s.Orders, 1)
}

func TestCheckoutChoices(t *testing.T) {
	d, s := offline(t)

	assert.Equal(t, []string{"Error: Your cart is empty"}, run(t, d, s, "apply-coupon CAFE20").Lines)
	assert.Equal(t, []string{"Error: Usage: set-payment --method=credit-card|debit-card|transfer"},
		run(t, d, s, "set-payment").Lines)
	assert.Equal(t, []string{`Error: Unknown method "bitcoin". Options: credit-card, debit-card, transfer`},
		run(t, d, s, "set-payment --method=bitcoin").Lines)
	assert.Equal(t, []string{"Error: Invalid coupon code: C!"}, run(t, d, s, "apply-coupon C!").Lines)

	run(t, d, s, "add-to-cart --product=BRA001 --quantity=2")
	assert.Equal(t, []string{"Payment method set to transfer"}, run(t, d, s, "set-payment --method=Transfer").Lines)
	assert.Equal(t, []string{"Shipping method set to express"}, run(t, d, s, "set-shipping --method=express").Lines)
	assert.Equal(t, []string{"Coupon CAFE20 applied"}, run(t, d, s, "apply-coupon cafe20").Lines)

	res := run(t, d, s, "checkout")
	assert.Contains(t, res.Lines, "Payment method: transfer")
	assert.Contains(t, res.Lines, "Shipping method: express")
	assert.Contains(t, res.Lines, "Coupon: CAFE20")

	res = run(t, d, s, `confirm-order --street=Main --city=CDMX --zip=06600`)
	assert.Equal(t, []string{
		"Order confirmed! Thank you for your purchase.",
		"Order ID: ORD0001",
		"Total: $29.98",
		"Payment method: transfer",
		"Shipping method: express",
		"Coupon: CAFE20",
	}, res.Lines)
	assert.Equal(t, session.Choices{}, s.Checkout)

	res = run(t, d, s, "cat order ORD0001")
	assert.Contains(t, res.Lines, "Shipping method: express")
}

func TestCheckoutChoicesTravelWithOnlineOrder(t *testing.T) {
	d, s, gw := online(t)
	signIn(t, d, s)
	run(t, d, s, "add-to-cart --product=ETH001")
	run(t, d, s, "set-payment --method=credit-card")
	run(t, d, s, "set-shipping --method=pickup")
	run(t, d, s, "apply-coupon WELCOME")

	run(t, d, s, `confirm-order --street=Main --city=CDMX --zip=06600`)

	assert.Equal(t, protocol.CreateOrderRequest{
		ShippingAddress: protocol.ShippingAddress{Street: "Main", City: "CDMX", PostalCode: "06600"},
		PaymentMethod:   "credit-card",
		ShippingMethod:  "pickup",
		CouponCode:      "WELCOME",
	}, gw.lastOrder)
	assert.Equal(t, session.Choices{}, s.Checkout)
}

func TestUpdateAccount(t *testing.T) {
	d, s, _ := online(t)

	assert.Equal(t, []string{"Error: You need to sign in first: ssh -i you@example.com"},
		run(t, d, s, "update-account --phone=5550000").Lines)

	signIn(t, d, s)
	assert.Equal(t, []string{"Error: Usage: update-account [--email=<email>] [--phone=<phone>]"},
		run(t, d, s, "update-account").Lines)
	assert.Equal(t, []string{"Error: Invalid email address: nope"},
		run(t, d, s, "update-account --email=nope").Lines)

	res := run(t, d, s, "update-account --email=ana.lopez@example.com --phone=5551234")
	assert.Equal(t, []string{"Account updated successfully"}, res.Lines)
	assert.Equal(t, "ana.lopez@example.com", s.User.Email)
	assert.Equal(t, "5551234", s.User.Phone)
	assert.Equal(t, []string{"Ana López (ana.lopez@example.com)"}, run(t, d, s, "whoami").Lines)
}

func TestUpdateAccountOffline(t *testing.T) {
	d, s := offline(t)
	res := run(t, d, s, "update-account --phone=5551234")
	assert.Contains(t, res.Lines[0], "offline")
}
