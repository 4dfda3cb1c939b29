package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/clicafe/clicafe/internal/session"
)

type handler func(ctx context.Context, s *session.Session, a Args) (Result, error)

type command struct {
	name    string
	aliases []string
	group   string
	usage   string
	summary string
	run     handler
}

// Help groups, in display order.
var groups = []string{"Account", "Products", "Cart", "Checkout", "Orders", "Drinks", "Files", "Other"}

func (d *Dispatcher) register() {
	d.verbs = []*command{
		{name: "ssh", group: "Account", usage: "ssh -i you@example.com", summary: "Sign in. You will be asked for your password.", run: d.runSSH},
		{name: "register", group: "Account", usage: "register --email=<email> --name=<name> [--paternal-surname= --maternal-surname= --phone=]", summary: "Create an account. You will be asked for a password.", run: d.runRegister},
		{name: "passwd", group: "Account", usage: "passwd email@example.com", summary: "Send a password reset email.", run: d.runPasswd},
		{name: "update-account", group: "Account", usage: "update-account [--email=<email>] [--phone=<phone>]", summary: "Change the email or phone of your profile.", run: d.runUpdateAccount},
		{name: "whoami", group: "Account", usage: "whoami", summary: "Show who is signed in.", run: d.runWhoami},
		{name: "logout", group: "Account", usage: "logout", summary: "Sign out and forget this session.", run: d.runLogout},

		{name: "ls", group: "Products", usage: "ls [products|coffee|accessories|categories|<dir>] [--form=<form>]", summary: "List the current directory or the catalog.", run: d.runLs},
		{name: "find", group: "Products", usage: "find coffee|accessories [--form= --origin= --roast= --name=]", summary: "Search the catalog.", run: d.runFind},
		{name: "cat", aliases: []string{"vi"}, group: "Products", usage: "cat product <id> | cat cart | cat order <id> | cat <file>", summary: "Show a product, the cart, an order or a file.", run: d.runCat},

		{name: "add-to-cart", group: "Cart", usage: "add-to-cart --product=<id> [--quantity=N --form=<form> --weight=<weight>]", summary: "Add a product to the cart.", run: d.runAddToCart},
		{name: "update-cart", group: "Cart", usage: "update-cart <itemID> --quantity=N", summary: "Change the quantity of a cart item.", run: d.runUpdateCart},
		{name: "rm-from-cart", group: "Cart", usage: "rm-from-cart <itemID>", summary: "Remove an item from the cart.", run: d.runRemoveFromCart},
		{name: "clear", group: "Cart", usage: "clear cart", summary: "Empty the cart.", run: d.runClear},

		{name: "checkout", group: "Checkout", usage: "checkout", summary: "Review the cart before confirming.", run: d.runCheckout},
		{name: "set-payment", group: "Checkout", usage: "set-payment --method=credit-card|debit-card|transfer", summary: "Choose how to pay for the next order.", run: d.runSetPayment},
		{name: "set-shipping", group: "Checkout", usage: "set-shipping --method=standard|express|pickup", summary: "Choose how the next order is shipped.", run: d.runSetShipping},
		{name: "apply-coupon", group: "Checkout", usage: "apply-coupon <code>", summary: "Use a coupon code on the next order.", run: d.runApplyCoupon},
		{name: "confirm-order", group: "Checkout", usage: `confirm-order --street="<street>" --city=<city> --zip=<zip> [--state= --country= --phone=]`, summary: "Place the order and start the payment.", run: d.runConfirmOrder},
		{name: "pay-order", group: "Checkout", usage: "pay-order <orderID>", summary: "Retry the payment of an order.", run: d.runPayOrder},

		{name: "log", group: "Orders", usage: "log orders [--export=<file.xlsx>]", summary: "List the orders placed in this session.", run: d.runLog},
		{name: "track-order", group: "Orders", usage: "track-order <orderID>", summary: "Show the status of an order.", run: d.runTrackOrder},
		{name: "cancel-order", group: "Orders", usage: "cancel-order <orderID>", summary: "Cancel an order.", run: d.runCancelOrder},

		{name: "menu", group: "Drinks", usage: "menu", summary: "Show the drinks menu.", run: d.runMenu},
		{name: "brew", group: "Drinks", usage: "brew <menuID> [quantity]", summary: "Order a drink. brew 1 lets you customize it.", run: d.runBrew},

		{name: "cd", group: "Files", usage: "cd [dir|..|~|/path]", summary: "Change directory.", run: d.runCd},
		{name: "pwd", group: "Files", usage: "pwd", summary: "Print the current directory.", run: d.runPwd},

		{name: "color", group: "Other", usage: "color green|blue|red|yellow|purple", summary: "Change the terminal colour.", run: d.runColor},
		{name: "help", group: "Other", usage: "help [command]", summary: "List commands or show how to use one.", run: d.runHelp},
		{name: "manual", group: "Other", usage: "manual", summary: "Read the CLIcafe manual.", run: d.runManual},
		{name: "exit", group: "Other", usage: "exit", summary: "Leave CLIcafe.", run: d.runExit},
	}

	d.commands = make(map[string]*command, len(d.verbs))
	for _, c := range d.verbs {
		d.commands[c.name] = c
		for _, a := range c.aliases {
			d.commands[a] = c
		}
	}
}

func (d *Dispatcher) runHelp(ctx context.Context, s *session.Session, a Args) (Result, error) {
	if name := a.Arg(0); name != "" {
		c, ok := d.commands[strings.ToLower(name)]
		if !ok {
			return Result{}, usagef("No help for %q. Type \"help\" to see available commands.", name)
		}
		res := lines("Usage: "+c.usage, c.summary)
		if len(c.aliases) > 0 {
			res = res.add("Aliases: " + strings.Join(c.aliases, ", "))
		}
		return res, nil
	}

	res := lines("Available commands:")
	for _, g := range groups {
		var names []string
		for _, c := range d.verbs {
			if c.group == g {
				names = append(names, c.name)
			}
		}
		res = res.add(fmt.Sprintf("  %-9s %s", g+":", strings.Join(names, ", ")))
	}
	return res.add(`Type "help <command>" for details, or "manual" for the full guide.`), nil
}

var manual = []string{
	"CLIcafe(1)                     CLIcafe Manual                     CLIcafe(1)",
	"",
	"NAME",
	"    clicafe - a coffee shop in your terminal",
	"",
	"ACCOUNT",
	"    ssh -i you@example.com     sign in; the password is read without echo",
	"    register --email= --name=  create an account",
	"    passwd you@example.com     receive a password reset email",
	"    update-account --phone=    change your email or phone",
	"    whoami, logout             show or end the current session",
	"",
	"BROWSING",
	"    The catalog is also a directory tree. Use cd and ls to walk it and",
	"    cat to open a product file, for example:",
	"        cd Molido/Kilo",
	"        cat VeracruzBlend",
	"    ls products, ls coffee --form=Ground and find coffee --roast=Dark",
	"    query the whole catalog. cat product <id> shows one product.",
	"",
	"CART AND CHECKOUT",
	"    add-to-cart --product=COL001 --quantity=2",
	"    update-cart <itemID> --quantity=3, rm-from-cart <itemID>, clear cart",
	"    checkout shows a summary. set-payment --method=transfer,",
	"    set-shipping --method=express and apply-coupon CAFE20 are optional.",
	"    confirm-order places the order:",
	`        confirm-order --street="Av. Reforma 222" --city=CDMX --zip=06600`,
	"    When a payment page is needed its address is printed and opened.",
	"",
	"ORDERS",
	"    log orders [--export=orders.xlsx], cat order <id>,",
	"    track-order <id>, cancel-order <id>, pay-order <id>",
	"",
	"DRINKS",
	"    menu lists the drinks. brew <id> [quantity] adds one to the cart.",
	"    brew 1 walks you through base, milk, extras and size. Type cancel",
	"    at any step to stop.",
	"",
	"OTHER",
	"    color <name>, help [command], exit",
}

func (d *Dispatcher) runManual(ctx context.Context, s *session.Session, a Args) (Result, error) {
	return lines(manual...), nil
}
