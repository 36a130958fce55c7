// Package tax matches tax rates to addresses and computes item and shipping
// tax honouring tax-inclusive price entry.
package tax

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-api/internal/money"
)

// FindRate returns the rate applicable to the address, or nil when none
// matches. Matching is a case-insensitive exact comparison on every populated
// rate field; a rate whose populated field the address omits does not match.
// Among matches the lowest priority wins; ties resolve to stored order.
func FindRate(rates []Rate, addr Address) *Rate {
	var best *Rate
	for i := range rates {
		r := &rates[i]
		if r.DeletedAt != nil {
			continue
		}
		if !fieldMatches(r.Country, addr.Country) {
			continue
		}
		if !optionalFieldMatches(r.State, addr.State) {
			continue
		}
		if !optionalFieldMatches(r.City, addr.City) {
			continue
		}
		if !optionalFieldMatches(r.Postcode, addr.Postcode) {
			continue
		}
		if best == nil || r.Priority < best.Priority {
			best = r
		}
	}
	return best
}

func fieldMatches(rateValue, addrValue string) bool {
	return strings.EqualFold(strings.TrimSpace(rateValue), strings.TrimSpace(addrValue))
}

// optionalFieldMatches treats a nil rate field as a wildcard. A populated rate
// field requires the address to provide an equal value.
func optionalFieldMatches(rateValue *string, addrValue string) bool {
	if rateValue == nil {
		return true
	}
	if strings.TrimSpace(addrValue) == "" {
		return false
	}
	return fieldMatches(*rateValue, addrValue)
}

// ItemTax computes tax for one cart line. The taxable amount is the line total
// net of the discount share already allocated to the line. A nil rate yields
// zero tax.
func ItemTax(unitPrice decimal.Decimal, qty int, discountShare decimal.Decimal, rate *Rate, pricesEnteredWithTax bool) decimal.Decimal {
	if rate == nil || qty <= 0 {
		return decimal.Zero
	}
	lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	taxable := money.ClampNonNegative(money.Round2(lineTotal.Sub(discountShare)))
	return AmountTax(taxable, rate, pricesEnteredWithTax)
}

// AmountTax computes the tax portion of an amount. When prices are entered
// with tax the amount is treated as tax-inclusive and the base is backed out.
func AmountTax(amount decimal.Decimal, rate *Rate, pricesEnteredWithTax bool) decimal.Decimal {
	if rate == nil || !amount.IsPositive() {
		return decimal.Zero
	}
	if pricesEnteredWithTax {
		_, t := money.BackOutTax(amount, rate.Rate)
		return t
	}
	return money.Percent(amount, rate.Rate)
}
