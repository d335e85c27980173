package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripweaver/backend/internal/domain"
)

func TestValidCurrencyCode(t *testing.T) {
	assert.True(t, domain.ValidCurrencyCode("EUR"))
	assert.True(t, domain.ValidCurrencyCode("JPY"))
	assert.True(t, domain.ValidCurrencyCode("CNY"))

	assert.False(t, domain.ValidCurrencyCode(""))
	assert.False(t, domain.ValidCurrencyCode("eur"))
	assert.False(t, domain.ValidCurrencyCode("EURO"))
	assert.False(t, domain.ValidCurrencyCode("ZZZ"))
}

func TestFormatMinor(t *testing.T) {
	// go-money applies per-currency formatting rules: EUR uses a comma
	// decimal separator, JPY has no minor units at all.
	assert.Equal(t, "$35.50", domain.FormatMinor("USD", 3550))
	assert.Equal(t, "€35,50", domain.FormatMinor("EUR", 3550))
	assert.Equal(t, "¥1,000", domain.FormatMinor("JPY", 1000))
}

func TestFormatMinor_UnknownCurrencyFallback(t *testing.T) {
	assert.Equal(t, "3550 ZZZ", domain.FormatMinor("ZZZ", 3550))
}

func TestMinorUnitFraction(t *testing.T) {
	assert.Equal(t, 2, domain.MinorUnitFraction("EUR"))
	assert.Equal(t, 0, domain.MinorUnitFraction("JPY"))
	assert.Equal(t, 2, domain.MinorUnitFraction("ZZZ"), "unknown codes default to 2")
}
