package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/clicafe/clicafe/internal/catalog"
	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/pkg/protocol"
)

func (d *Dispatcher) runMenu(ctx context.Context, s *session.Session, a Args) (Result, error) {
	res := lines("Menu:")
	for _, m := range d.opts.Catalog.Menu() {
		res = res.add(fmt.Sprintf("%d. %s - %s", m.ID, m.Name, m.Price))
	}
	return res.add(`Order with "brew <number> [quantity]".`), nil
}

type brewCommand struct {
	item     catalog.MenuItem
	quantity int
}

func (d *Dispatcher) parseBrew(a Args) (brewCommand, error) {
	if err := a.Only(); err != nil {
		return brewCommand{}, err
	}
	if a.Arg(0) == "" || len(a.Positional) > 2 {
		return brewCommand{}, usagef("Usage: brew <menuID> [quantity]")
	}
	id, err := strconv.Atoi(a.Arg(0))
	if err != nil {
		return brewCommand{}, usagef("Usage: brew <menuID> [quantity]")
	}
	item, ok := d.opts.Catalog.MenuItem(id)
	if !ok {
		return brewCommand{}, usagef("Drink %d is not on the menu. Type \"menu\" to see it.", id)
	}
	cmd := brewCommand{item: item, quantity: 1}
	if q := a.Arg(1); q != "" {
		if cmd.quantity, err = parseQuantity(q); err != nil {
			return cmd, err
		}
	}
	return cmd, nil
}

func (d *Dispatcher) runBrew(ctx context.Context, s *session.Session, a Args) (Result, error) {
	cmd, err := d.parseBrew(a)
	if err != nil {
		return Result{}, err
	}
	if d.Online() {
		return Result{}, usagef("The drinks desk only takes orders in offline mode")
	}
	if cmd.item.Custom {
		if err := s.Flow.To(session.ChoosingBase); err != nil {
			return Result{}, err
		}
		res := lines("Let's customize your coffee. First, choose the base:")
		return res.add(choices(d.opts.Catalog.Options().Base)...), nil
	}
	if _, err := s.Cart.Add(menuLine(cmd.item, cmd.item.Price, cmd.quantity, "")); err != nil {
		return Result{}, cartError(err)
	}
	return lines(fmt.Sprintf("Added %d %s to cart", cmd.quantity, cmd.item.Name)), nil
}

func menuLine(m catalog.MenuItem, price protocol.Price, qty int, options string) session.CartItem {
	return session.CartItem{
		ProductID: fmt.Sprintf("MENU-%d", m.ID),
		Name:      m.Name,
		UnitPrice: price,
		Quantity:  qty,
		Options:   options,
	}
}

func choices(options []string) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = "  - " + o
	}
	return out
}

// customize consumes one answer of the custom coffee flow. An invalid answer
// keeps the current step and lists the choices again.
func (d *Dispatcher) customize(line string, s *session.Session) (Result, error) {
	opts := d.opts.Catalog.Options()
	answer := strings.TrimSpace(line)
	if strings.EqualFold(answer, "cancel") {
		s.Flow.Reset()
		return lines("Customization cancelled."), nil
	}

	f := &s.Flow
	switch f.State() {
	case session.ChoosingBase:
		c := catalog.Choose(opts.Base, answer)
		if c == "" {
			return reprompt("base", answer, opts.Base), nil
		}
		f.Base = c
		f.To(session.ChoosingMilk)
		return lines("Excellent. Now, choose the type of milk:").add(choices(opts.Milk)...), nil

	case session.ChoosingMilk:
		c := catalog.Choose(opts.Milk, answer)
		if c == "" {
			return reprompt("milk", answer, opts.Milk), nil
		}
		f.Milk = c
		f.To(session.ChoosingExtras)
		return lines(`Perfect. Do you want any extras? (you can choose multiple, separated by comma, or "none"):`).
			add(choices(opts.Extras)...), nil

	case session.ChoosingExtras:
		extras, err := opts.ParseExtras(answer)
		if err != nil {
			res := lines(fmt.Sprintf("Error: %v. Choose extras separated by comma, or \"none\":", err))
			return res.add(choices(opts.Extras)...), nil
		}
		f.Extras = extras
		f.To(session.ChoosingSize)
		return lines("Almost done. Lastly, choose the size:").add(choices(opts.Size)...), nil

	case session.ChoosingSize:
		size := catalog.Choose(opts.Size, answer)
		if size == "" {
			return reprompt("size", answer, opts.Size), nil
		}
		drink := catalog.Drink{Base: f.Base, Milk: f.Milk, Extras: f.Extras, Size: size}
		item, ok := d.customItem()
		if !ok {
			s.Flow.Reset()
			return Result{}, usagef("Custom coffee is not on the menu")
		}
		price := opts.Price(item.Price, drink)
		f.To(session.Idle)
		if _, err := s.Cart.Add(menuLine(item, price, 1, drink.Summary())); err != nil {
			return Result{}, cartError(err)
		}
		return lines(fmt.Sprintf("Your custom coffee (%s) has been added to the cart for %s", drink.Summary(), price)), nil
	}
	return Result{}, fmt.Errorf("customize: unexpected state %s", f.State())
}

func (d *Dispatcher) customItem() (catalog.MenuItem, bool) {
	for _, m := range d.opts.Catalog.Menu() {
		if m.Custom {
			return m, true
		}
	}
	return catalog.MenuItem{}, false
}

func reprompt(step, answer string, options []string) Result {
	res := lines(fmt.Sprintf("Error: %q is not a valid %s. Choose one of:", answer, step))
	return res.add(choices(options)...)
}
