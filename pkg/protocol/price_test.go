package protocol

import (
	"encoding/json"
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    Price
		wantErr bool
	}{
		{"15.99", 1599, false},
		{"$250", 25000, false},
		{"30.5", 3050, false},
		{".75", 75, false},
		{"-2.10", -210, false},
		{"1.999", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePrice(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePrice(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPriceString(t *testing.T) {
	tests := []struct {
		p    Price
		want string
	}{
		{Units(40), "$40"},
		{1599, "$15.99"},
		{1505, "$15.05"},
		{-250, "-$2.50"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Price(%d).String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestPriceJSON(t *testing.T) {
	var item CartItem
	if err := json.Unmarshal([]byte(`{"id":"7","unit_price":"17.99","quantity":2}`), &item); err != nil {
		t.Fatalf("decode string price: %v", err)
	}
	if item.UnitPrice != 1799 {
		t.Errorf("string price = %d, want 1799", item.UnitPrice)
	}

	var p Product
	if err := json.Unmarshal([]byte(`{"id":"COL001","price":15.9}`), &p); err != nil {
		t.Fatalf("decode number price: %v", err)
	}
	if p.Price != 1590 {
		t.Errorf("number price = %d, want 1590", p.Price)
	}

	out, err := json.Marshal(Units(3))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"3.00"` {
		t.Errorf("marshal = %s, want \"3.00\"", out)
	}
}

func TestPriceMulSumsExactly(t *testing.T) {
	// 3 x 0.10 must be exactly 0.30, unlike float arithmetic.
	if got := Cents(10).Mul(3); got != 30 {
		t.Errorf("Mul = %d, want 30", got)
	}
}
