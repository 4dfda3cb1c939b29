// Package catalog holds the embedded product catalog, the product tree and
// the drinks menu.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clicafe/clicafe/pkg/protocol"
	"github.com/clicafe/clicafe/pkg/vfs"
)

//go:embed catalog.yaml
var embedded []byte

// ErrNotFound is returned for unknown product ids.
var ErrNotFound = errors.New("product not found")

// Catalog is the static catalog. It serves the same queries as the remote
// gateway so the shell can run without a server.
type Catalog struct {
	categories []protocol.Category
	products   []protocol.Product
	byID       map[string]int
	tree       *vfs.Tree
	menu       []MenuItem
	options    Customization
}

// MenuItem is a drink on the menu.
type MenuItem struct {
	ID     int            `yaml:"id"`
	Name   string         `yaml:"name"`
	Price  protocol.Price `yaml:"price"`
	Custom bool           `yaml:"custom"`
}

type document struct {
	Categories    []protocol.Category `yaml:"categories"`
	Products      []productDoc        `yaml:"products"`
	Tree          []nodeDoc           `yaml:"tree"`
	Menu          []MenuItem          `yaml:"menu"`
	Customization Customization       `yaml:"customization"`
}

type productDoc struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Price       protocol.Price `yaml:"price"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Form        string         `yaml:"form"`
	Origin      string         `yaml:"origin"`
	Roast       string         `yaml:"roast"`
	Weight      string         `yaml:"weight"`
	ImageURL    string         `yaml:"image_url"`
}

type nodeDoc struct {
	Name     string    `yaml:"name"`
	Product  string    `yaml:"product"`
	Children []nodeDoc `yaml:"children"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// MustLoad is Load for program start-up and tests.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from a YAML document. Tree files must reference
// known product ids.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		categories: doc.Categories,
		byID:       make(map[string]int, len(doc.Products)),
		menu:       doc.Menu,
		options:    doc.Customization,
	}
	for _, p := range doc.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog: product %q has no id", p.Name)
		}
		key := strings.ToUpper(p.ID)
		if _, dup := c.byID[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %s", p.ID)
		}
		if p.Type != protocol.TypeCoffee && p.Type != protocol.TypeAccessory {
			return nil, fmt.Errorf("catalog: product %s has unknown type %q", p.ID, p.Type)
		}
		category := p.Category
		if category == "" {
			category = p.Type
		}
		c.byID[key] = len(c.products)
		c.products = append(c.products, protocol.Product{
			ID:          protocol.ID(p.ID),
			Name:        p.Name,
			Type:        p.Type,
			Price:       p.Price,
			Description: p.Description,
			Category:    category,
			Form:        p.Form,
			Origin:      p.Origin,
			Roast:       p.Roast,
			Weight:      p.Weight,
			ImageURL:    p.ImageURL,
		})
	}

	root := &vfs.Node{}
	for _, n := range doc.Tree {
		child, err := c.buildNode(n)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}
	c.tree = vfs.New(root)

	sort.SliceStable(c.menu, func(i, j int) bool { return c.menu[i].ID < c.menu[j].ID })
	if err := c.options.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) buildNode(n nodeDoc) (*vfs.Node, error) {
	if n.Name == "" {
		return nil, errors.New("catalog: tree node without a name")
	}
	if n.Product != "" {
		if len(n.Children) > 0 {
			return nil, fmt.Errorf("catalog: file %s cannot have children", n.Name)
		}
		p, ok := c.lookup(n.Product)
		if !ok {
			return nil, fmt.Errorf("catalog: %s references unknown product %s", n.Name, n.Product)
		}
		return &vfs.Node{Name: n.Name, Product: p}, nil
	}

	dir := &vfs.Node{Name: n.Name, IsDir: true}
	for _, cn := range n.Children {
		child, err := c.buildNode(cn)
		if err != nil {
			return nil, err
		}
		dir.Children = append(dir.Children, child)
	}
	return dir, nil
}

func (c *Catalog) lookup(id string) (*protocol.Product, bool) {
	i, ok := c.byID[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return nil, false
	}
	return &c.products[i], true
}

// Tree returns the product tree.
func (c *Catalog) Tree() *vfs.Tree {
	return c.tree
}

// Menu returns the drinks menu ordered by id.
func (c *Catalog) Menu() []MenuItem {
	return c.menu
}

// MenuItem returns the drink with the given id.
func (c *Catalog) MenuItem(id int) (MenuItem, bool) {
	for _, m := range c.menu {
		if m.ID == id {
			return m, true
		}
	}
	return MenuItem{}, false
}

// Options returns the custom coffee choices.
func (c *Catalog) Options() Customization {
	return c.options
}

// Categories lists product categories.
func (c *Catalog) Categories(ctx context.Context) ([]protocol.Category, error) {
	return append([]protocol.Category(nil), c.categories...), nil
}

// Products lists products matching f. Text fields match case-insensitively;
// Search matches a substring of the name or description.
func (c *Catalog) Products(ctx context.Context, f protocol.ProductFilter) ([]protocol.Product, error) {
	var out []protocol.Product
	for _, p := range c.products {
		if Matches(p, f) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Product returns a product by id (case-insensitive).
func (c *Catalog) Product(ctx context.Context, id string) (*protocol.Product, error) {
	p, ok := c.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

// Matches reports whether p satisfies f.
func Matches(p protocol.Product, f protocol.ProductFilter) bool {
	eq := func(want, got string) bool {
		return want == "" || strings.EqualFold(want, got)
	}
	if !eq(f.Type, p.Type) || !eq(f.Form, p.Form) || !eq(f.Origin, p.Origin) || !eq(f.Roast, p.Roast) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q)
	}
	return true
}
