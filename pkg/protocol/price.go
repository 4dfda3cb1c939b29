package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Price is an amount of money in cents.
type Price int64

// Cents builds a Price from a whole number of cents.
func Cents(c int64) Price { return Price(c) }

// Units builds a Price from whole currency units.
func Units(u int64) Price { return Price(u * 100) }

// ParsePrice parses a decimal amount such as "15.99", "$250" or "30.5".
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("price %q has more than two decimals", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	p := Price(w*100 + f)
	if neg {
		p = -p
	}
	return p, nil
}

// Mul returns the price of qty units.
func (p Price) Mul(qty int) Price { return p * Price(qty) }

// String formats the price as "$15.99", dropping ".00" for whole amounts.
func (p Price) String() string {
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	if p%100 == 0 {
		return fmt.Sprintf("%s$%d", sign, p/100)
	}
	return fmt.Sprintf("%s$%d.%02d", sign, p/100, p%100)
}

// MarshalJSON encodes the price as a decimal string, the way the backend does.
func (p Price) MarshalJSON() ([]byte, error) {
	sign := ""
	v := p
	if v < 0 {
		sign = "-"
		v = -v
	}
	return json.Marshal(fmt.Sprintf("%s%d.%02d", sign, v/100, v%100))
}

// UnmarshalJSON accepts a JSON number or a decimal string.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse price %q: %w", s, err)
		}
		s = strconv.FormatFloat(f, 'f', 2, 64)
	}
	v, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// UnmarshalYAML lets catalog files write prices as plain numbers.
func (p *Price) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: price must be a scalar", value.Line)
	}
	v, err := ParsePrice(value.Value)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
