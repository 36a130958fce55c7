package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	got := Percent(decimal.NewFromInt(100), decimal.NewFromInt(10))
	require.True(t, got.Equal(decimal.NewFromInt(10)), "expected 10, got %s", got)
}

func TestApplyPercentOffRounds(t *testing.T) {
	// 33.33 - 10% = 29.997 -> 30.00 at the boundary
	got := ApplyPercentOff(decimal.RequireFromString("33.33"), decimal.NewFromInt(10))
	require.Equal(t, "30", got.String())
}

func TestBackOutTax(t *testing.T) {
	base, tax := BackOutTax(decimal.NewFromInt(110), decimal.NewFromInt(10))
	require.Equal(t, "100", base.String())
	require.Equal(t, "10", tax.String())
}

func TestMinAndClamp(t *testing.T) {
	a := decimal.NewFromInt(3)
	b := decimal.NewFromInt(5)
	require.True(t, Min(a, b).Equal(a))
	require.True(t, ClampNonNegative(decimal.NewFromInt(-1)).IsZero())
	require.True(t, ClampNonNegative(b).Equal(b))
}
