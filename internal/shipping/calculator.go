// Package shipping matches shipping zones to addresses and computes shipping
// cost and tax for a cart.
package shipping

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-api/internal/money"
	"github.com/storelinehq/storeline-api/internal/tax"
)

// MatchZone finds the zone covering the address. Explicit zip-code membership
// is checked across all zones before region matching. Within each pass the
// first zone in stored order wins; overlapping zones resolve by that order and
// the ordering is part of the documented contract.
func MatchZone(zones []Zone, addr tax.Address) *Zone {
	for i := range zones {
		if zones[i].DeletedAt != nil {
			continue
		}
		if zipMatches(zones[i].ZipCodes, addr.Postcode) {
			return &zones[i]
		}
	}
	for i := range zones {
		if zones[i].DeletedAt != nil {
			continue
		}
		if regionMatches(zones[i].Regions, addr) {
			return &zones[i]
		}
	}
	return nil
}

func zipMatches(zips []string, postcode string) bool {
	trimmed := strings.TrimSpace(postcode)
	if trimmed == "" {
		return false
	}
	for _, z := range zips {
		if strings.EqualFold(strings.TrimSpace(z), trimmed) {
			return true
		}
	}
	return false
}

// regionMatches requires the country; state and city are compared only when
// both the region and the address specify them.
func regionMatches(regions []Region, addr tax.Address) bool {
	for _, region := range regions {
		if !strings.EqualFold(strings.TrimSpace(region.Country), strings.TrimSpace(addr.Country)) {
			continue
		}
		if region.State != nil && strings.TrimSpace(addr.State) != "" &&
			!strings.EqualFold(strings.TrimSpace(*region.State), strings.TrimSpace(addr.State)) {
			continue
		}
		if region.City != nil && strings.TrimSpace(addr.City) != "" &&
			!strings.EqualFold(strings.TrimSpace(*region.City), strings.TrimSpace(addr.City)) {
			continue
		}
		return true
	}
	return false
}

// ComputeInput bundles everything the shipping computation needs.
type ComputeInput struct {
	Zone                 *Zone
	Items                []Item
	TaxAddress           tax.Address
	ShippingTaxRates     []tax.Rate
	PricesEnteredWithTax bool
	AdjustedCartTotal    decimal.Decimal
	HasFreeShippingCoupon bool
	TaxExempt            bool
}

// Compute selects the zone's primary active method and prices it. An
// ineligible free-shipping method falls back to the next active method; only
// one level of fallback is applied. A nil zone or a zone without active
// methods yields a zero quote.
func Compute(in ComputeInput) Quote {
	quote := Quote{Cost: decimal.Zero, Tax: decimal.Zero, TotalWithTax: decimal.Zero}
	if in.Zone == nil {
		return quote
	}
	active := activeMethods(in.Zone.Methods)
	if len(active) == 0 {
		return quote
	}

	method := active[0]
	if method.Kind == KindFreeShipping {
		if freeEligible(method, in.AdjustedCartTotal, in.HasFreeShippingCoupon) {
			quote.MethodID = &method.ID
			return quote
		}
		if len(active) < 2 {
			return quote
		}
		method = active[1]
		if method.Kind == KindFreeShipping {
			// a second free-shipping method is treated as free; no further fallback
			quote.MethodID = &method.ID
			return quote
		}
	}

	cost := methodCost(method, in.Items)
	quote.MethodID = &method.ID
	quote.Cost = cost
	if method.Taxable && !in.TaxExempt {
		rate := shippingRate(in.ShippingTaxRates, in.TaxAddress)
		quote.Tax = tax.AmountTax(cost, rate, in.PricesEnteredWithTax)
	}
	if in.PricesEnteredWithTax {
		quote.TotalWithTax = quote.Cost
	} else {
		quote.TotalWithTax = money.Round2(quote.Cost.Add(quote.Tax))
	}
	return quote
}

func activeMethods(methods []Method) []Method {
	out := make([]Method, 0, len(methods))
	for _, m := range methods {
		if m.Status == StatusActive && m.DeletedAt == nil {
			out = append(out, m)
		}
	}
	return out
}

func freeEligible(m Method, adjustedTotal decimal.Decimal, hasCoupon bool) bool {
	minMet := m.MinimumOrderAmount != nil && adjustedTotal.GreaterThanOrEqual(*m.MinimumOrderAmount)
	switch m.FreeCondition {
	case CondNA, "":
		return true
	case CondCoupon:
		return hasCoupon
	case CondMinAmount:
		return minMet
	case CondMinAmountOrCoupon:
		return minMet || hasCoupon
	case CondMinAmountAndCoupon:
		return minMet && hasCoupon
	default:
		return false
	}
}

// methodCost prices a method against the cart items. Flat-rate sums the
// per-class override or default cost per unit; pickup and carrier methods
// charge their configured flat cost.
func methodCost(m Method, items []Item) decimal.Decimal {
	switch m.Kind {
	case KindFlatRate:
		total := decimal.Zero
		for _, it := range items {
			if it.Quantity <= 0 {
				continue
			}
			unit := m.Cost
			if it.ShippingClassID != nil {
				for _, cc := range m.ClassCosts {
					if cc.ShippingClassID == *it.ShippingClassID {
						unit = cc.Cost
						break
					}
				}
			}
			total = total.Add(unit.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		return money.Round2(total)
	case KindLocalPickup, KindUPS:
		return money.Round2(m.Cost)
	default:
		return decimal.Zero
	}
}

func shippingRate(rates []tax.Rate, addr tax.Address) *tax.Rate {
	applicable := make([]tax.Rate, 0, len(rates))
	for _, r := range rates {
		if r.AppliesToShipping {
			applicable = append(applicable, r)
		}
	}
	return tax.FindRate(applicable, addr)
}
