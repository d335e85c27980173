package domain

import (
	"fmt"

	"github.com/Rhymond/go-money"
)

// ValidCurrencyCode reports whether code is a 3-letter uppercase ASCII
// ISO-4217 code known to the currency table.
func ValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return money.GetCurrency(code) != nil
}

// FormatMinor renders an integer minor-unit amount in the given currency for
// display (e.g. 3550 CNY → "¥35.50"). Internal arithmetic never touches this;
// it exists for the presentation boundary only.
func FormatMinor(code string, minor int64) string {
	if money.GetCurrency(code) == nil {
		return fmt.Sprintf("%d %s", minor, code)
	}
	return money.New(minor, code).Display()
}

// MinorUnitFraction returns the number of minor-unit digits for a currency
// (2 for most, 0 for JPY-like currencies). Unknown codes default to 2.
func MinorUnitFraction(code string) int {
	if c := money.GetCurrency(code); c != nil {
		return c.Fraction
	}
	return 2
}
