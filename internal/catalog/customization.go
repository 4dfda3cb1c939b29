package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clicafe/clicafe/pkg/protocol"
)

// Customization lists the custom coffee choices and how they are priced.
type Customization struct {
	Base             []string                  `yaml:"base"`
	Milk             []string                  `yaml:"milk"`
	PremiumMilk      []string                  `yaml:"premium_milk"`
	PremiumMilkPrice protocol.Price            `yaml:"premium_milk_price"`
	Extras           []string                  `yaml:"extras"`
	ExtraPrice       protocol.Price            `yaml:"extra_price"`
	Size             []string                  `yaml:"size"`
	SizePrices       map[string]protocol.Price `yaml:"size_prices"`
}

// NoExtras is the answer for a coffee without extras.
const NoExtras = "none"

// Drink is a finished custom coffee.
type Drink struct {
	Base   string
	Milk   string
	Extras []string
	Size   string
}

// Summary renders the choices the way cart lines show them.
func (d Drink) Summary() string {
	extras := NoExtras
	if len(d.Extras) > 0 {
		extras = strings.Join(d.Extras, "+")
	}
	return fmt.Sprintf("%s, %s, %s, %s", d.Base, d.Milk, extras, d.Size)
}

func (o Customization) validate() error {
	if len(o.Base) == 0 || len(o.Milk) == 0 || len(o.Size) == 0 {
		return errors.New("catalog: customization needs base, milk and size choices")
	}
	for _, s := range o.Size {
		if _, ok := o.SizePrices[s]; !ok {
			return fmt.Errorf("catalog: size %q has no price", s)
		}
	}
	for _, m := range o.PremiumMilk {
		if Choose(o.Milk, m) == "" {
			return fmt.Errorf("catalog: premium milk %q is not a milk choice", m)
		}
	}
	return nil
}

// Choose returns the canonical spelling of input if it is one of choices,
// or "" if it is not.
func Choose(choices []string, input string) string {
	input = strings.Join(strings.Fields(input), " ")
	for _, c := range choices {
		if strings.EqualFold(c, input) {
			return c
		}
	}
	return ""
}

// ParseExtras parses a comma-separated list of extras. "none" or an empty
// answer means no extras.
func (o Customization) ParseExtras(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, NoExtras) {
		return nil, nil
	}
	var out []string
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c := Choose(o.Extras, part)
		if c == "" {
			return nil, fmt.Errorf("unknown extra %q", part)
		}
		out = append(out, c)
	}
	return out, nil
}

// Price returns the price of d on top of base.
func (o Customization) Price(base protocol.Price, d Drink) protocol.Price {
	price := base
	if Choose(o.PremiumMilk, d.Milk) != "" {
		price += o.PremiumMilkPrice
	}
	price += o.ExtraPrice.Mul(len(d.Extras))
	price += o.SizePrices[d.Size]
	return price
}
