// Package cart holds the cart model and the totals pipeline shared by the
// cart fetch and coupon apply paths.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-api/internal/catalog"
	"github.com/storelinehq/storeline-api/internal/common"
	"github.com/storelinehq/storeline-api/internal/coupon"
	"github.com/storelinehq/storeline-api/internal/money"
	"github.com/storelinehq/storeline-api/internal/obs"
	"github.com/storelinehq/storeline-api/internal/pricing"
	"github.com/storelinehq/storeline-api/internal/remote"
	"github.com/storelinehq/storeline-api/internal/shipping"
	"github.com/storelinehq/storeline-api/internal/tax"
)

// CatalogSource resolves the products and variations referenced by cart lines.
type CatalogSource interface {
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error)
	GetVariations(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Variation, error)
}

// CouponSource resolves the coupons attached to a cart, in applied order.
type CouponSource interface {
	GetMany(ctx context.Context, ids []uuid.UUID) ([]coupon.Coupon, error)
}

// TaxSource provides the tax configuration and per-class rate listings.
type TaxSource interface {
	Options(ctx context.Context) (tax.Options, error)
	ClassRates(ctx context.Context, classID *uuid.UUID) ([]tax.Rate, error)
	ShippingRates(ctx context.Context, o tax.Options) ([]tax.Rate, error)
}

// ZoneSource lists shipping zones with their methods in stored order.
type ZoneSource interface {
	Zones(ctx context.Context) ([]shipping.Zone, error)
}

// RemoteSource reaches the user-service and site-settings subgraphs.
type RemoteSource interface {
	TaxExemptionByUserID(ctx context.Context, userID uuid.UUID) (*remote.TaxExemption, error)
	AddressByID(ctx context.Context, id, userID uuid.UUID) (*remote.Address, error)
	DefaultTaxAddress(ctx context.Context) (*remote.Address, error)
}

// Params carries the caller-supplied address references for one request.
type Params struct {
	ShippingAddressID *uuid.UUID
	BillingAddressID  *uuid.UUID
}

// Aggregator computes a cart's priced view. Both the cart fetch and the coupon
// apply paths run through Aggregate so the two can never diverge.
type Aggregator struct {
	Catalog  CatalogSource
	Coupons  CouponSource
	Tax      TaxSource
	Shipping ZoneSource
	Remote   RemoteSource
	Currency string
	Now      func() time.Time
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

type pricedLine struct {
	item      Item
	product   *catalog.Product
	unitPrice decimal.Decimal
	lineTotal decimal.Decimal
}

// priceLines resolves products and effective unit prices for every cart line.
// The returned subtotal is the rounded sum of rounded line totals.
func (a *Aggregator) priceLines(ctx context.Context, items []Item, asOf time.Time) ([]pricedLine, decimal.Decimal, error) {
	productIDs := make([]uuid.UUID, 0, len(items))
	var variationIDs []uuid.UUID
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
		if it.VariationID != nil {
			variationIDs = append(variationIDs, *it.VariationID)
		}
	}

	products, err := a.Catalog.GetMany(ctx, productIDs)
	if err != nil {
		return nil, decimal.Zero, err
	}
	variations := map[uuid.UUID]*catalog.Variation{}
	if len(variationIDs) > 0 {
		variations, err = a.Catalog.GetVariations(ctx, variationIDs)
		if err != nil {
			return nil, decimal.Zero, err
		}
	}

	lines := make([]pricedLine, 0, len(items))
	subtotal := decimal.Zero
	for _, it := range items {
		p := products[it.ProductID]
		if p == nil {
			return nil, decimal.Zero, common.NotFoundError(fmt.Sprintf("product %s no longer exists", it.ProductID))
		}
		var v *catalog.Variation
		if it.VariationID != nil {
			v = variations[*it.VariationID]
			if v == nil {
				return nil, decimal.Zero, common.NotFoundError(fmt.Sprintf("variation %s no longer exists", *it.VariationID))
			}
		}
		unit := pricing.ResolveUnitPrice(*p, v, it.Quantity, asOf)
		lineTotal := money.Round2(unit.Mul(decimal.NewFromInt(int64(it.Quantity))))
		lines = append(lines, pricedLine{item: it, product: p, unitPrice: unit, lineTotal: lineTotal})
		subtotal = subtotal.Add(lineTotal)
	}
	return lines, money.Round2(subtotal), nil
}

func couponLines(lines []pricedLine) []coupon.Line {
	out := make([]coupon.Line, len(lines))
	for i, l := range lines {
		out[i] = coupon.Line{
			ProductID:   l.item.ProductID,
			CategoryIDs: l.product.CategoryIDs,
			UnitPrice:   l.unitPrice,
			Quantity:    l.item.Quantity,
		}
	}
	return out
}

// CheckCoupon prices the cart and runs the coupon's full validity gate. A
// failing gate surfaces as a business error naming the coupon code; the apply
// path aborts on it before touching any state.
func (a *Aggregator) CheckCoupon(ctx context.Context, c *Cart, cpn coupon.Coupon, userEmail string) error {
	if len(c.Items) == 0 {
		return common.BusinessError("coupon %s: cart is empty", cpn.Code)
	}
	now := a.now()
	lines, subtotal, err := a.priceLines(ctx, c.Items, now)
	if err != nil {
		return err
	}
	if _, err := coupon.Evaluate(cpn, couponLines(lines), subtotal, userEmail, now); err != nil {
		return common.BusinessError("coupon %s: %s", cpn.Code, err)
	}
	return nil
}

// Aggregate computes the full priced view of a cart. Coupons that fail their
// validity gate at view time contribute nothing and are dropped from the
// applied list rather than failing the whole read.
func (a *Aggregator) Aggregate(ctx context.Context, c *Cart, userEmail string, p Params) (*View, error) {
	start := time.Now()
	defer func() {
		if obs.CartTotalsDuration != nil {
			obs.CartTotalsDuration.Observe(obs.DurationMillis(time.Since(start)))
		}
	}()

	view := &View{ID: c.ID, CreatedBy: c.CreatedBy, Currency: a.Currency, Items: []ItemView{}, AppliedCoupons: []string{}}
	view.Totals = zeroTotals()
	if len(c.Items) == 0 {
		return view, nil
	}
	now := a.now()

	lines, subtotal, err := a.priceLines(ctx, c.Items, now)
	if err != nil {
		return nil, err
	}
	view.Subtotal = subtotal

	exemption, err := a.Remote.TaxExemptionByUserID(ctx, c.CreatedBy)
	if err != nil {
		return nil, err
	}
	exempt := exemption.ActiveAt(now)

	opts, err := a.Tax.Options(ctx)
	if err != nil {
		return nil, err
	}
	addr, hasAddr, err := a.resolveAddress(ctx, opts, c.CreatedBy, p)
	if err != nil {
		return nil, err
	}

	// Coupons stack additively in applied order; each failing coupon simply
	// drops out of the view.
	itemDiscounts := make([]decimal.Decimal, len(lines))
	discountTotal := decimal.Zero
	freeShipping := false
	if len(c.CouponIDs) > 0 {
		coupons, err := a.Coupons.GetMany(ctx, c.CouponIDs)
		if err != nil {
			return nil, err
		}
		evalLines := couponLines(lines)
		for _, cpn := range coupons {
			res, err := coupon.Evaluate(cpn, evalLines, subtotal, userEmail, now)
			if err != nil {
				continue
			}
			for i, d := range res.ItemDiscounts {
				itemDiscounts[i] = itemDiscounts[i].Add(d)
			}
			discountTotal = discountTotal.Add(res.Discount)
			freeShipping = freeShipping || res.FreeShipping
			view.AppliedCoupons = append(view.AppliedCoupons, cpn.Code)
		}
	}
	discountTotal = money.Round2(money.Min(discountTotal, subtotal))
	view.DiscountTotal = discountTotal

	productTax := decimal.Zero
	for i, l := range lines {
		share := money.Min(itemDiscounts[i], l.lineTotal)
		itemDiscounts[i] = share
		var lineTax decimal.Decimal
		if !exempt && hasAddr && l.product.TaxStatus == catalog.TaxStatusTaxable {
			rates, err := a.Tax.ClassRates(ctx, l.product.TaxClassID)
			if err != nil {
				return nil, err
			}
			rate := tax.FindRate(rates, addr)
			lineTax = tax.ItemTax(l.unitPrice, l.item.Quantity, share, rate, opts.PricesEnteredWithTax)
		}
		productTax = productTax.Add(lineTax)
		view.Items = append(view.Items, ItemView{
			Item:        l.item,
			ProductName: l.product.Name,
			UnitPrice:   l.unitPrice,
			LineTotal:   l.lineTotal,
			Discount:    share,
			Tax:         lineTax,
		})
	}
	view.ProductTax = money.Round2(productTax)

	adjusted := money.Round2(subtotal.Sub(discountTotal))
	quote := shipping.Quote{Cost: decimal.Zero, Tax: decimal.Zero, TotalWithTax: decimal.Zero}
	if hasAddr {
		zones, err := a.Shipping.Zones(ctx)
		if err != nil {
			return nil, err
		}
		zone := shipping.MatchZone(zones, addr)
		if zone != nil {
			shipRates, err := a.Tax.ShippingRates(ctx, opts)
			if err != nil {
				return nil, err
			}
			shipItems := make([]shipping.Item, len(lines))
			for i, l := range lines {
				shipItems[i] = shipping.Item{Quantity: l.item.Quantity, ShippingClassID: l.product.ShippingClassID}
			}
			quote = shipping.Compute(shipping.ComputeInput{
				Zone:                  zone,
				Items:                 shipItems,
				TaxAddress:            addr,
				ShippingTaxRates:      shipRates,
				PricesEnteredWithTax:  opts.PricesEnteredWithTax,
				AdjustedCartTotal:     adjusted,
				HasFreeShippingCoupon: freeShipping,
				TaxExempt:             exempt,
			})
		}
	}
	view.ShippingCost = quote.Cost
	view.ShippingTax = quote.Tax
	view.ShippingTotalWithTax = quote.TotalWithTax

	view.ProductTotalWithoutTax = adjusted
	view.ProductTotalCostWithTax = money.Round2(adjusted.Add(view.ProductTax))
	view.InTotal = money.Round2(view.ProductTotalCostWithTax.Add(view.ShippingTotalWithTax))
	return view, nil
}

// resolveAddress picks the rate-matching address per the configured policy. A
// missing store default degrades to taxless; a missing caller-supplied address
// for the other policies is a hard error.
func (a *Aggregator) resolveAddress(ctx context.Context, opts tax.Options, userID uuid.UUID, p Params) (tax.Address, bool, error) {
	switch opts.CalculateTaxBasedOn {
	case tax.BasisStoreAddress:
		shop, err := a.Remote.DefaultTaxAddress(ctx)
		if err != nil {
			return tax.Address{}, false, err
		}
		if shop == nil {
			return tax.Address{}, false, nil
		}
		return shop.TaxAddress(), true, nil
	case tax.BasisBillingAddress:
		return a.lookupAddress(ctx, p.BillingAddressID, userID, "billing")
	default:
		return a.lookupAddress(ctx, p.ShippingAddressID, userID, "shipping")
	}
}

func (a *Aggregator) lookupAddress(ctx context.Context, id *uuid.UUID, userID uuid.UUID, kind string) (tax.Address, bool, error) {
	if id == nil {
		return tax.Address{}, false, common.BusinessError("%s address is required for tax calculation", kind)
	}
	entry, err := a.Remote.AddressByID(ctx, *id, userID)
	if err != nil {
		return tax.Address{}, false, err
	}
	if entry == nil {
		return tax.Address{}, false, common.NotFoundError(kind + " address not found")
	}
	return entry.TaxAddress(), true, nil
}

func zeroTotals() Totals {
	return Totals{
		Subtotal:                decimal.Zero,
		DiscountTotal:           decimal.Zero,
		ProductTax:              decimal.Zero,
		ShippingCost:            decimal.Zero,
		ShippingTax:             decimal.Zero,
		ShippingTotalWithTax:    decimal.Zero,
		ProductTotalWithoutTax:  decimal.Zero,
		ProductTotalCostWithTax: decimal.Zero,
		InTotal:                 decimal.Zero,
	}
}
