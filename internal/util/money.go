package util

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatDollars renders a decimal as a display amount with thousands
// separators and two decimal places, e.g. 1234567.8 -> "1,234,567.80".
func FormatDollars(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	groups := []string{}
	for len(whole) > 3 {
		groups = append([]string{whole[len(whole)-3:]}, groups...)
		whole = whole[:len(whole)-3]
	}
	groups = append([]string{whole}, groups...)

	out := strings.Join(groups, ",") + "." + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

// FormatShares renders a share quantity magnitude: two decimal places when
// fractional shares are in play, otherwise a whole number with thousands
// separators.
func FormatShares(d decimal.Decimal, fractional bool) string {
	if fractional {
		return FormatDollars(d)
	}
	out, _, _ := strings.Cut(FormatDollars(d), ".")
	return out
}
