package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-api/internal/catalog"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestRegularPriceWithoutSale(t *testing.T) {
	p := catalog.Product{RegularPrice: dec("50")}
	got := ResolveUnitPrice(p, nil, 2, now)
	require.Equal(t, "50", got.String())
}

func TestSalePriceInsideWindow(t *testing.T) {
	p := catalog.Product{
		RegularPrice:     dec("50"),
		SalePrice:        decPtr("40"),
		SalePriceStartAt: timePtr(now.Add(-24 * time.Hour)),
		SalePriceEndAt:   timePtr(now.Add(24 * time.Hour)),
	}
	require.Equal(t, "40", ResolveUnitPrice(p, nil, 1, now).String())
}

func TestSalePriceOutsideWindow(t *testing.T) {
	p := catalog.Product{
		RegularPrice:   dec("50"),
		SalePrice:      decPtr("40"),
		SalePriceEndAt: timePtr(now.Add(-time.Hour)),
	}
	require.Equal(t, "50", ResolveUnitPrice(p, nil, 1, now).String())
}

func TestSalePriceOpenEndedWindow(t *testing.T) {
	p := catalog.Product{RegularPrice: dec("50"), SalePrice: decPtr("45")}
	require.Equal(t, "45", ResolveUnitPrice(p, nil, 1, now).String())
}

func TestVariationOverridesProductSale(t *testing.T) {
	p := catalog.Product{RegularPrice: dec("50"), SalePrice: decPtr("10")}
	v := &catalog.Variation{RegularPrice: dec("60")}
	// variation selected: its regular price wins even though the product sale is live
	require.Equal(t, "60", ResolveUnitPrice(p, v, 1, now).String())
}

func TestFixedTierMatch(t *testing.T) {
	p := catalog.Product{
		RegularPrice: dec("50"),
		TierPricing: &catalog.TierPricing{
			Type: catalog.TierPricingFixed,
			Tiers: []catalog.PriceTier{
				{MinQuantity: intPtr(5), MaxQuantity: intPtr(10), FixedPrice: decPtr("42")},
			},
		},
	}
	require.Equal(t, "42", ResolveUnitPrice(p, nil, 7, now).String())
	// outside the bracket the step-2 price stands
	require.Equal(t, "50", ResolveUnitPrice(p, nil, 2, now).String())
}

func TestPercentageTierAppliesToSalePrice(t *testing.T) {
	p := catalog.Product{
		RegularPrice: dec("50"),
		SalePrice:    decPtr("40"),
		TierPricing: &catalog.TierPricing{
			Type: catalog.TierPricingPercentage,
			Tiers: []catalog.PriceTier{
				{MinQuantity: intPtr(2), MaxQuantity: intPtr(4), PercentageDiscount: decPtr("10")},
			},
		},
	}
	require.Equal(t, "36", ResolveUnitPrice(p, nil, 3, now).String())
}

func TestPercentageTierNeverExceedsRegularPrice(t *testing.T) {
	p := catalog.Product{
		RegularPrice: dec("50"),
		TierPricing: &catalog.TierPricing{
			Type: catalog.TierPricingPercentage,
			Tiers: []catalog.PriceTier{
				{MinQuantity: intPtr(1), MaxQuantity: intPtr(100), PercentageDiscount: decPtr("25")},
			},
		},
	}
	got := ResolveUnitPrice(p, nil, 10, now)
	require.True(t, got.LessThanOrEqual(p.RegularPrice), "discounted price %s above regular", got)
}

func TestTierWithMissingBoundNeverMatches(t *testing.T) {
	p := catalog.Product{
		RegularPrice: dec("50"),
		TierPricing: &catalog.TierPricing{
			Type: catalog.TierPricingFixed,
			Tiers: []catalog.PriceTier{
				{MinQuantity: intPtr(1), FixedPrice: decPtr("1")},
			},
		},
	}
	require.Equal(t, "50", ResolveUnitPrice(p, nil, 5, now).String())
}

func TestOverlappingTiersFirstWins(t *testing.T) {
	p := catalog.Product{
		RegularPrice: dec("50"),
		TierPricing: &catalog.TierPricing{
			Type: catalog.TierPricingFixed,
			Tiers: []catalog.PriceTier{
				{MinQuantity: intPtr(1), MaxQuantity: intPtr(10), FixedPrice: decPtr("48")},
				{MinQuantity: intPtr(5), MaxQuantity: intPtr(10), FixedPrice: decPtr("30")},
			},
		},
	}
	require.Equal(t, "48", ResolveUnitPrice(p, nil, 6, now).String())
}

func TestResolveIsIdempotent(t *testing.T) {
	p := catalog.Product{
		RegularPrice: dec("19.99"),
		TierPricing: &catalog.TierPricing{
			Type: catalog.TierPricingPercentage,
			Tiers: []catalog.PriceTier{
				{MinQuantity: intPtr(3), MaxQuantity: intPtr(6), PercentageDiscount: decPtr("15")},
			},
		},
	}
	first := ResolveUnitPrice(p, nil, 4, now)
	second := ResolveUnitPrice(p, nil, 4, now)
	require.True(t, first.Equal(second))
}
