package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-api/internal/catalog"
	"github.com/storelinehq/storeline-api/internal/common"
	"github.com/storelinehq/storeline-api/internal/coupon"
	"github.com/storelinehq/storeline-api/internal/remote"
	"github.com/storelinehq/storeline-api/internal/shipping"
	"github.com/storelinehq/storeline-api/internal/tax"
)

type fakeCatalog struct {
	products   map[uuid.UUID]*catalog.Product
	variations map[uuid.UUID]*catalog.Variation
}

func (f *fakeCatalog) GetMany(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) GetVariations(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]*catalog.Variation, error) {
	return f.variations, nil
}

type fakeCoupons struct {
	byID map[uuid.UUID]coupon.Coupon
}

func (f *fakeCoupons) GetMany(_ context.Context, ids []uuid.UUID) ([]coupon.Coupon, error) {
	var out []coupon.Coupon
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeTax struct {
	opts          tax.Options
	ratesByClass  map[uuid.UUID][]tax.Rate
	shippingRates []tax.Rate
}

func (f *fakeTax) Options(_ context.Context) (tax.Options, error) { return f.opts, nil }

func (f *fakeTax) ClassRates(_ context.Context, classID *uuid.UUID) ([]tax.Rate, error) {
	if classID == nil {
		return nil, nil
	}
	return f.ratesByClass[*classID], nil
}

func (f *fakeTax) ShippingRates(_ context.Context, _ tax.Options) ([]tax.Rate, error) {
	return f.shippingRates, nil
}

type fakeZones struct {
	zones []shipping.Zone
}

func (f *fakeZones) Zones(_ context.Context) ([]shipping.Zone, error) { return f.zones, nil }

type fakeRemote struct {
	exemption *remote.TaxExemption
	addresses map[uuid.UUID]*remote.Address
	shop      *remote.Address
}

func (f *fakeRemote) TaxExemptionByUserID(_ context.Context, _ uuid.UUID) (*remote.TaxExemption, error) {
	return f.exemption, nil
}

func (f *fakeRemote) AddressByID(_ context.Context, id, _ uuid.UUID) (*remote.Address, error) {
	return f.addresses[id], nil
}

func (f *fakeRemote) DefaultTaxAddress(_ context.Context) (*remote.Address, error) {
	return f.shop, nil
}

type fixture struct {
	agg       *Aggregator
	catalog   *fakeCatalog
	coupons   *fakeCoupons
	tax       *fakeTax
	zones     *fakeZones
	remote    *fakeRemote
	cart      *Cart
	userID    uuid.UUID
	addressID uuid.UUID
	params    Params
}

// newFixture builds a cart of one product, qty 2, regular price 50, shipping
// address in US/CA, no coupons, no tax rates and no zones.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	userID := uuid.New()
	productID := uuid.New()
	addressID := uuid.New()

	f := &fixture{
		catalog: &fakeCatalog{
			products: map[uuid.UUID]*catalog.Product{
				productID: {
					ID:           productID,
					Name:         "Desk Lamp",
					RegularPrice: decimal.RequireFromString("50"),
					TaxStatus:    catalog.TaxStatusTaxable,
				},
			},
			variations: map[uuid.UUID]*catalog.Variation{},
		},
		coupons: &fakeCoupons{byID: map[uuid.UUID]coupon.Coupon{}},
		tax:     &fakeTax{opts: tax.Options{CalculateTaxBasedOn: tax.BasisShippingAddress}, ratesByClass: map[uuid.UUID][]tax.Rate{}},
		zones:   &fakeZones{},
		remote: &fakeRemote{
			addresses: map[uuid.UUID]*remote.Address{
				addressID: {ID: addressID, UserID: userID, Country: "US", State: "CA", City: "Oakland", Postcode: "94601"},
			},
		},
		userID:    userID,
		addressID: addressID,
	}
	f.agg = &Aggregator{
		Catalog:  f.catalog,
		Coupons:  f.coupons,
		Tax:      f.tax,
		Shipping: f.zones,
		Remote:   f.remote,
		Now:      func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	f.cart = &Cart{
		ID:        uuid.New(),
		CreatedBy: userID,
		Items:     []Item{{ID: uuid.New(), ProductID: productID, Quantity: 2}},
	}
	f.params = Params{ShippingAddressID: &addressID}
	return f
}

func (f *fixture) addCoupon(c coupon.Coupon) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.coupons.byID[c.ID] = c
	f.cart.CouponIDs = append(f.cart.CouponIDs, c.ID)
}

func eq(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(expected).Equal(actual),
		"expected %s, got %s", expected, actual)
}

func TestAggregatePlainCart(t *testing.T) {
	f := newFixture(t)

	view, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", f.params)
	require.NoError(t, err)
	eq(t, "100", view.Subtotal)
	eq(t, "0", view.DiscountTotal)
	eq(t, "0", view.ProductTax)
	eq(t, "100", view.ProductTotalWithoutTax)
	eq(t, "100", view.InTotal)
	require.Len(t, view.Items, 1)
	eq(t, "50", view.Items[0].UnitPrice)
	eq(t, "100", view.Items[0].LineTotal)
	require.Empty(t, view.AppliedCoupons)
}

func TestAggregatePercentageCoupon(t *testing.T) {
	f := newFixture(t)
	f.addCoupon(coupon.Coupon{
		Code:          "save10",
		DiscountType:  coupon.PercentageDiscount,
		DiscountValue: decimal.RequireFromString("10"),
	})

	view, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", f.params)
	require.NoError(t, err)
	eq(t, "10.00", view.DiscountTotal)
	eq(t, "90.00", view.ProductTotalWithoutTax)
	eq(t, "90.00", view.InTotal)
	require.Equal(t, []string{"save10"}, view.AppliedCoupons)
	eq(t, "10.00", view.Items[0].Discount)
}

func TestAggregateTaxRatePriority(t *testing.T) {
	f := newFixture(t)
	classID := uuid.New()
	for _, p := range f.catalog.products {
		p.TaxClassID = &classID
	}
	ca := "CA"
	f.tax.ratesByClass[classID] = []tax.Rate{
		{Country: "US", Priority: 2, Rate: decimal.RequireFromString("20")},
		{Country: "US", State: &ca, Priority: 1, Rate: decimal.RequireFromString("10")},
	}

	view, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", f.params)
	require.NoError(t, err)
	eq(t, "10.00", view.ProductTax)
	eq(t, "110.00", view.ProductTotalCostWithTax)
	eq(t, "110.00", view.InTotal)
}

func TestAggregateExemptBuyerPaysNoTax(t *testing.T) {
	f := newFixture(t)
	classID := uuid.New()
	for _, p := range f.catalog.products {
		p.TaxClassID = &classID
	}
	f.tax.ratesByClass[classID] = []tax.Rate{{Country: "US", Priority: 1, Rate: decimal.RequireFromString("10")}}
	f.remote.exemption = &remote.TaxExemption{UserID: f.userID, Status: remote.ExemptionApproved}

	view, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", f.params)
	require.NoError(t, err)
	eq(t, "0", view.ProductTax)
	eq(t, "100", view.InTotal)
}

func TestAggregateFreeShippingFallback(t *testing.T) {
	f := newFixture(t)
	for _, p := range f.catalog.products {
		p.RegularPrice = decimal.RequireFromString("99.99")
	}
	f.cart.Items[0].Quantity = 1
	min := decimal.RequireFromString("100")
	zoneID := uuid.New()
	f.zones.zones = []shipping.Zone{{
		ID:      zoneID,
		Name:    "US",
		Regions: []shipping.Region{{Country: "US"}},
		Methods: []shipping.Method{
			{ID: uuid.New(), ZoneID: zoneID, Kind: shipping.KindFreeShipping, Status: shipping.StatusActive,
				FreeCondition: shipping.CondMinAmount, MinimumOrderAmount: &min},
			{ID: uuid.New(), ZoneID: zoneID, Kind: shipping.KindFlatRate, Status: shipping.StatusActive,
				Cost: decimal.RequireFromString("5")},
		},
	}}

	view, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", f.params)
	require.NoError(t, err)
	eq(t, "5.00", view.ShippingCost)
	eq(t, "104.99", view.InTotal)
}

func TestAggregateFreeShippingCouponUnlocksMethod(t *testing.T) {
	f := newFixture(t)
	zoneID := uuid.New()
	f.zones.zones = []shipping.Zone{{
		ID:      zoneID,
		Name:    "US",
		Regions: []shipping.Region{{Country: "US"}},
		Methods: []shipping.Method{
			{ID: uuid.New(), ZoneID: zoneID, Kind: shipping.KindFreeShipping, Status: shipping.StatusActive,
				FreeCondition: shipping.CondCoupon},
			{ID: uuid.New(), ZoneID: zoneID, Kind: shipping.KindFlatRate, Status: shipping.StatusActive,
				Cost: decimal.RequireFromString("7")},
		},
	}}

	// Two units at a 7 flat rate before any free-shipping coupon.
	view, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", f.params)
	require.NoError(t, err)
	eq(t, "14.00", view.ShippingCost)

	f.addCoupon(coupon.Coupon{
		Code:          "shipfree",
		DiscountType:  coupon.PercentageDiscount,
		DiscountValue: decimal.RequireFromString("5"),
		FreeShipping:  true,
	})
	view, err = f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", f.params)
	require.NoError(t, err)
	eq(t, "0", view.ShippingCost)
}

func TestAggregateCapsDiscountAtSubtotal(t *testing.T) {
	f := newFixture(t)
	f.addCoupon(coupon.Coupon{
		Code:          "big1",
		DiscountType:  coupon.FixedCartDiscount,
		DiscountValue: decimal.RequireFromString("80"),
	})
	f.addCoupon(coupon.Coupon{
		Code:          "big2",
		DiscountType:  coupon.FixedCartDiscount,
		DiscountValue: decimal.RequireFromString("80"),
	})

	view, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", f.params)
	require.NoError(t, err)
	eq(t, "100", view.DiscountTotal)
	eq(t, "0.00", view.ProductTotalWithoutTax)
	eq(t, "0.00", view.InTotal)
}

func TestAggregateSkipsInvalidCouponOnRead(t *testing.T) {
	f := newFixture(t)
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	f.addCoupon(coupon.Coupon{
		Code:          "stale",
		DiscountType:  coupon.PercentageDiscount,
		DiscountValue: decimal.RequireFromString("10"),
		ExpiryDate:    &past,
	})

	view, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", f.params)
	require.NoError(t, err)
	eq(t, "0", view.DiscountTotal)
	require.Empty(t, view.AppliedCoupons)
}

func TestCheckCouponExpired(t *testing.T) {
	f := newFixture(t)
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	c := coupon.Coupon{
		ID:            uuid.New(),
		Code:          "stale",
		DiscountType:  coupon.PercentageDiscount,
		DiscountValue: decimal.RequireFromString("10"),
		ExpiryDate:    &past,
	}

	err := f.agg.CheckCoupon(context.Background(), f.cart, c, "buyer@example.com")
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, 400, app.HTTPStatus)
	require.Contains(t, app.Message, "stale")
	require.Contains(t, app.Message, "expired")
}

func TestCheckCouponKeepsLiteralPercentInCode(t *testing.T) {
	f := newFixture(t)
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	c := coupon.Coupon{
		ID:            uuid.New(),
		Code:          "10%off",
		DiscountType:  coupon.PercentageDiscount,
		DiscountValue: decimal.RequireFromString("10"),
		ExpiryDate:    &past,
	}

	err := f.agg.CheckCoupon(context.Background(), f.cart, c, "buyer@example.com")
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Contains(t, app.Message, "10%off")
	require.NotContains(t, app.Message, "%!")
}

func TestAggregateMissingShippingAddressIsHardError(t *testing.T) {
	f := newFixture(t)
	_, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", Params{})
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, 400, app.HTTPStatus)
	require.Contains(t, app.Message, "shipping address is required")
}

func TestAggregateStoreAddressFallsBackToNoTax(t *testing.T) {
	f := newFixture(t)
	f.tax.opts.CalculateTaxBasedOn = tax.BasisStoreAddress
	classID := uuid.New()
	for _, p := range f.catalog.products {
		p.TaxClassID = &classID
	}
	f.tax.ratesByClass[classID] = []tax.Rate{{Country: "US", Priority: 1, Rate: decimal.RequireFromString("10")}}

	view, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", Params{})
	require.NoError(t, err)
	eq(t, "0", view.ProductTax)
	eq(t, "100", view.InTotal)
}

func TestAggregateEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.cart.Items = nil
	view, err := f.agg.Aggregate(context.Background(), f.cart, "buyer@example.com", Params{})
	require.NoError(t, err)
	require.Empty(t, view.Items)
	eq(t, "0", view.InTotal)
}
