// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing amounts entered by users or read
// from the spreadsheet, and for formatting them in the configured currency.
package core

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	gomoney "github.com/Rhymond/go-money"
)

// DefaultCurrency is the ISO 4217 code used when none is configured.
const DefaultCurrency = "VND"

// currency markers tolerated around a typed amount
var currencyMarkers = []string{"vnđ", "vnd", "₫", "đ"}

// ParseAmount converts a whole-unit amount string to Money.
//
// It accepts plain digits (150000) and digits grouped by thousands with dot,
// comma, space or underscore separators (150.000, 150,000, 150 000). A trailing
// or leading currency marker is ignored. Signs, fractional parts, malformed
// groups and zero are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("150000")   -> 150000, nil
//	ParseAmount("1.250.000") -> 1250000, nil
//	ParseAmount("12.5")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, marker := range currencyMarkers {
		s = strings.TrimSpace(strings.TrimSuffix(s, marker))
		s = strings.TrimSpace(strings.TrimPrefix(s, marker))
	}
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	groups := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == ',' || r == ' ' || r == '_' || r == '\u00a0'
	})
	if len(groups) == 0 {
		return Money{}, ErrInvalidAmount
	}
	// Separators must sit between digits.
	if first, last := rune(s[0]), rune(s[len(s)-1]); !unicode.IsDigit(first) || !unicode.IsDigit(last) {
		return Money{}, ErrInvalidAmount
	}
	var digits strings.Builder
	for i, g := range groups {
		for _, r := range g {
			if r < '0' || r > '9' {
				return Money{}, ErrInvalidAmount
			}
		}
		if len(groups) > 1 {
			if i == 0 && len(g) > 3 {
				return Money{}, ErrInvalidAmount
			}
			if i > 0 && len(g) != 3 {
				return Money{}, ErrInvalidAmount
			}
		}
		digits.WriteString(g)
	}
	// Doubled separators collapse in FieldsFunc; count them back.
	if len(groups) > 1 && utf8.RuneCountInString(s) != digits.Len()+len(groups)-1 {
		return Money{}, ErrInvalidAmount
	}
	v, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil || v <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Units: v}, nil
}

// Format renders the amount in the given ISO 4217 currency, e.g. "150.000 ₫".
// Unknown currency codes fall back to grouped digits followed by the code.
func (m Money) Format(currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	if gomoney.GetCurrency(currency) == nil {
		return groupThousands(m.Units) + " " + currency
	}
	return gomoney.New(m.Units, currency).Display()
}

// IsKnownCurrency reports whether code is a currency go-money can format.
func IsKnownCurrency(code string) bool {
	return gomoney.GetCurrency(code) != nil
}

func groupThousands(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
