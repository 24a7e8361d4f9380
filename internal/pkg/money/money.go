// Package money converts between minor currency units (paise) as stored in
// the database and the decimal major units shown to people.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CurrencyINR = "INR"

	minorExponent = 2
)

// FromMajor parses a major unit amount such as "299" or "299.50" into minor
// units. Amounts with more than two decimal places are rejected.
func FromMajor(value string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q must not be negative", value)
	}
	minor := d.Shift(minorExponent)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", value, minorExponent)
	}
	return minor.IntPart(), nil
}

// ToMajor returns minor units as a decimal in major units.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorExponent)
}

// Format renders an amount for display, e.g. 29900 INR -> "₹299.00".
func Format(minor int64, currency string) string {
	major := ToMajor(minor).StringFixed(minorExponent)
	if currency == "" || strings.EqualFold(currency, CurrencyINR) {
		return "₹" + major
	}
	return major + " " + strings.ToUpper(currency)
}
