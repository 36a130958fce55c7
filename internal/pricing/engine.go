// Package pricing resolves the effective unit price of a cart line considering
// sale-price windows and quantity-tiered pricing rules.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-api/internal/catalog"
	"github.com/storelinehq/storeline-api/internal/money"
)

// ResolveUnitPrice returns the effective unit price for a line of qty units of
// the product, or of the variation when one is selected.
//
// The variation's own sale price and tier rules take precedence over the
// product's whenever a variation is selected, independently of whether the
// product-level sale is active. Overlapping tier brackets resolve to the first
// tier in stored order; that ordering is part of the documented contract.
func ResolveUnitPrice(p catalog.Product, v *catalog.Variation, qty int, asOf time.Time) decimal.Decimal {
	var price decimal.Decimal
	var tiers *catalog.TierPricing

	if v != nil {
		price = v.RegularPrice
		if saleActive(v.SalePrice, v.SalePriceStartAt, v.SalePriceEndAt, asOf) {
			price = *v.SalePrice
		}
		tiers = v.TierPricing
	} else {
		price = p.RegularPrice
		if saleActive(p.SalePrice, p.SalePriceStartAt, p.SalePriceEndAt, asOf) {
			price = *p.SalePrice
		}
		tiers = p.TierPricing
	}

	if tiers == nil {
		return money.Round2(price)
	}
	tier, ok := matchTier(tiers.Tiers, qty)
	if !ok {
		return money.Round2(price)
	}
	switch tiers.Type {
	case catalog.TierPricingFixed:
		if tier.FixedPrice != nil {
			price = *tier.FixedPrice
		}
	case catalog.TierPricingPercentage:
		if tier.PercentageDiscount != nil {
			price = money.ApplyPercentOff(price, *tier.PercentageDiscount)
		}
	}
	return money.Round2(price)
}

func saleActive(sale *decimal.Decimal, start, end *time.Time, asOf time.Time) bool {
	if sale == nil {
		return false
	}
	if start != nil && start.After(asOf) {
		return false
	}
	if end != nil && end.Before(asOf) {
		return false
	}
	return true
}

// matchTier returns the first tier whose bounds bracket qty. Tiers with either
// bound missing never match.
func matchTier(tiers []catalog.PriceTier, qty int) (catalog.PriceTier, bool) {
	for _, t := range tiers {
		if t.MinQuantity == nil || t.MaxQuantity == nil {
			continue
		}
		if qty >= *t.MinQuantity && qty <= *t.MaxQuantity {
			return t, true
		}
	}
	return catalog.PriceTier{}, false
}
