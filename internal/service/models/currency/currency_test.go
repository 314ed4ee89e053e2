package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("INR")
	require.NoError(t, err)
	assert.Equal(t, CurrencyINR, c)

	_, err = ParseCurrency("RUB")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		amount, rate, want string
	}{
		{"90", "10", "9"},
		{"1000", "20", "200"},
		{"33.33", "12.5", "4.17"},
		{"0.05", "10", "0.01"},
	}
	for _, tt := range tests {
		got := Percent(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.rate))
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s%% of %s = %s", tt.rate, tt.amount, got)
	}
}
