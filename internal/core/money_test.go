package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"150000", 150000, true},
		{"150.000", 150000, true},
		{"1,250,000", 1250000, true},
		{"1 250 000", 1250000, true},
		{"1_000", 1000, true},
		{"50.000 ₫", 50000, true},
		{"50000 VND", 50000, true},
		{"", 0, false},
		{"0", 0, false},
		{"-1000", 0, false},
		{"+1000", 0, false},
		{"12.5", 0, false},
		{"1..000", 0, false},
		{"1.000.", 0, false},
		{"1234.567", 0, false},
		{"abc", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Units != tc.want {
				t.Fatalf("ParseAmount(%q) = %d, %v; want %d", tc.in, got.Units, err, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q) expected ErrInvalidAmount, got %d, %v", tc.in, got.Units, err)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	if got := (Money{Units: 1234}).Format("USD"); got != "$12.34" {
		t.Fatalf("USD format = %q", got)
	}
	if got := (Money{Units: 1500000}).Format("XXX-unknown"); got != "1,500,000 XXX-unknown" {
		t.Fatalf("unknown currency format = %q", got)
	}
	if got := (Money{Units: 150000}).Format(""); !strings.Contains(got, "150") {
		t.Fatalf("default currency format = %q", got)
	}
}

func TestIsKnownCurrency(t *testing.T) {
	if !IsKnownCurrency("VND") || !IsKnownCurrency("EUR") {
		t.Fatal("expected VND and EUR to be known")
	}
	if IsKnownCurrency("NOPE") {
		t.Fatal("expected NOPE to be unknown")
	}
}
