package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/clicafe/clicafe/internal/session"
	"github.com/clicafe/clicafe/pkg/protocol"
)

type lsCommand struct {
	what string // "", products, coffee, accessories, categories or a path
	form string
}

func parseLs(a Args) (lsCommand, error) {
	if len(a.Positional) > 1 {
		return lsCommand{}, usagef("ls: too many arguments")
	}
	if err := a.Only("form"); err != nil {
		return lsCommand{}, err
	}
	return lsCommand{what: a.Arg(0), form: a.Value("form")}, nil
}

func (d *Dispatcher) runLs(ctx context.Context, s *session.Session, a Args) (Result, error) {
	cmd, err := parseLs(a)
	if err != nil {
		return Result{}, err
	}
	switch strings.ToLower(cmd.what) {
	case "products":
		return d.listProducts(ctx, "List of products:", protocol.ProductFilter{Form: cmd.form})
	case "coffee":
		title := "List of coffee:"
		if cmd.form != "" {
			title = fmt.Sprintf("List of %s coffee:", strings.ToLower(cmd.form))
		}
		return d.listProducts(ctx, title, protocol.ProductFilter{Type: protocol.TypeCoffee, Form: cmd.form})
	case "accessories":
		return d.listProducts(ctx, "List of accessories:", protocol.ProductFilter{Type: protocol.TypeAccessory, Form: cmd.form})
	case "categories":
		return d.listCategories(ctx)
	}
	if cmd.form != "" {
		return Result{}, usagef("--form only applies to ls products, coffee or accessories")
	}
	return d.listDir(s, cmd.what)
}

func (d *Dispatcher) listProducts(ctx context.Context, title string, f protocol.ProductFilter) (Result, error) {
	products, err := d.products.Products(ctx, f)
	if err != nil {
		return Result{}, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return lines("No products found"), nil
	}
	res := lines(title)
	for _, p := range products {
		res = res.add(productLine(p))
	}
	return res, nil
}

func (d *Dispatcher) listCategories(ctx context.Context) (Result, error) {
	cats, err := d.products.Categories(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list categories: %w", err)
	}
	if len(cats) == 0 {
		return lines("No categories found"), nil
	}
	res := lines("Categories:")
	for _, c := range cats {
		if c.Description != "" {
			res = res.add(fmt.Sprintf("- %s: %s", c.Name, c.Description))
		} else {
			res = res.add("- " + c.Name)
		}
	}
	return res, nil
}

func productLine(p protocol.Product) string {
	return fmt.Sprintf("%s. %s - %s", p.ID, p.Name, p.Price)
}

type findCommand struct {
	kind   string
	filter protocol.ProductFilter
}

func parseFind(a Args) (findCommand, error) {
	var cmd findCommand
	switch strings.ToLower(a.Arg(0)) {
	case "coffee":
		cmd.kind = "coffee"
		cmd.filter.Type = protocol.TypeCoffee
	case "accessories", "accessory":
		cmd.kind = "accessories"
		cmd.filter.Type = protocol.TypeAccessory
	default:
		return cmd, usagef("Usage: find coffee|accessories [--form= --origin= --roast= --name=]")
	}
	if err := a.Only("form", "type", "origin", "roast", "name"); err != nil {
		return cmd, err
	}
	cmd.filter.Form = a.Value("form")
	if cmd.filter.Form == "" {
		cmd.filter.Form = a.Value("type")
	}
	cmd.filter.Origin = a.Value("origin")
	cmd.filter.Roast = a.Value("roast")
	cmd.filter.Search = a.Value("name")
	return cmd, nil
}

func (d *Dispatcher) runFind(ctx context.Context, s *session.Session, a Args) (Result, error) {
	cmd, err := parseFind(a)
	if err != nil {
		return Result{}, err
	}
	products, err := d.products.Products(ctx, cmd.filter)
	if err != nil {
		return Result{}, fmt.Errorf("find %s: %w", cmd.kind, err)
	}
	if len(products) == 0 {
		return lines(fmt.Sprintf("No %s matches those filters", cmd.kind)), nil
	}
	res := lines(fmt.Sprintf("Found %s:", cmd.kind))
	for _, p := range products {
		res = res.add(productLine(p))
	}
	return res, nil
}

type catCommand struct {
	what string // product, cart, order or file
	ref  string
}

func parseCat(a Args) (catCommand, error) {
	if err := a.Only(); err != nil {
		return catCommand{}, err
	}
	switch first := a.Arg(0); strings.ToLower(first) {
	case "":
		return catCommand{}, usagef("Usage: cat product <id> | cat cart | cat order <id> | cat <file>")
	case "cart":
		return catCommand{what: "cart"}, nil
	case "product", "order":
		if a.Arg(1) == "" {
			return catCommand{}, usagef("Usage: cat %s <id>", strings.ToLower(first))
		}
		return catCommand{what: strings.ToLower(first), ref: a.Arg(1)}, nil
	default:
		return catCommand{what: "file", ref: strings.Join(a.Positional, " ")}, nil
	}
}

func (d *Dispatcher) runCat(ctx context.Context, s *session.Session, a Args) (Result, error) {
	cmd, err := parseCat(a)
	if err != nil {
		return Result{}, err
	}
	switch cmd.what {
	case "cart":
		return d.showCart(ctx, s)
	case "order":
		return d.showOrder(s, cmd.ref)
	case "product":
		p, err := d.products.Product(ctx, cmd.ref)
		if isNotFound(err) {
			return Result{}, usagef("Product %s not found", cmd.ref)
		}
		if err != nil {
			return Result{}, fmt.Errorf("get product %s: %w", cmd.ref, err)
		}
		return productResult(p), nil
	default:
		return d.catFile(s, cmd.ref)
	}
}

// productResult renders a product as detail lines plus a popup card.
func productResult(p *protocol.Product) Result {
	res := lines(
		fmt.Sprintf("%s (%s)", p.Name, p.ID),
		"Price: "+p.Price.String(),
	)
	for _, f := range []struct{ label, value string }{
		{"Form", p.Form},
		{"Origin", p.Origin},
		{"Roast", p.Roast},
		{"Weight", p.Weight},
	} {
		if f.value != "" {
			res = res.add(f.label + ": " + f.value)
		}
	}
	if p.Description != "" {
		res = res.add(p.Description)
	}
	res.Popup = &Popup{
		Title:       p.Name,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
	return res
}
