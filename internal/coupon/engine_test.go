package coupon

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func line(price string, qty int) Line {
	return Line{ProductID: uuid.New(), UnitPrice: dec(price), Quantity: qty}
}

func TestPercentageDiscountUnscoped(t *testing.T) {
	c := Coupon{Code: "save10", DiscountType: PercentageDiscount, DiscountValue: dec("10")}
	items := []Line{line("50", 2)}
	res, err := Evaluate(c, items, dec("100"), "", now)
	require.NoError(t, err)
	require.Equal(t, "10", res.Discount.String())
	require.Equal(t, "10", res.ItemDiscounts[0].String())
}

func TestFixedProductDiscountPerUnit(t *testing.T) {
	c := Coupon{DiscountType: FixedProductDiscount, DiscountValue: dec("3")}
	items := []Line{line("50", 2), line("20", 1)}
	res, err := Evaluate(c, items, dec("120"), "", now)
	require.NoError(t, err)
	require.Equal(t, "9", res.Discount.String())
	require.Equal(t, "6", res.ItemDiscounts[0].String())
	require.Equal(t, "3", res.ItemDiscounts[1].String())
}

func TestFixedProductDiscountCappedAtLineSubtotal(t *testing.T) {
	c := Coupon{DiscountType: FixedProductDiscount, DiscountValue: dec("30")}
	items := []Line{line("20", 1)}
	res, err := Evaluate(c, items, dec("20"), "", now)
	require.NoError(t, err)
	require.Equal(t, "20", res.Discount.String())
}

func TestFixedCartDiscountCappedAtSubtotal(t *testing.T) {
	c := Coupon{DiscountType: FixedCartDiscount, DiscountValue: dec("150")}
	items := []Line{line("50", 2)}
	res, err := Evaluate(c, items, dec("100"), "", now)
	require.NoError(t, err)
	require.Equal(t, "100", res.Discount.String())
}

func TestExpiredCoupon(t *testing.T) {
	c := Coupon{DiscountType: PercentageDiscount, DiscountValue: dec("10"), ExpiryDate: timePtr(now.Add(-time.Hour))}
	_, err := Evaluate(c, []Line{line("50", 1)}, dec("50"), "", now)
	require.ErrorIs(t, err, ErrExpired)
}

func TestUsageCapReached(t *testing.T) {
	c := Coupon{DiscountType: PercentageDiscount, DiscountValue: dec("10"), MaxUsage: intPtr(5), UsageCount: 5}
	_, err := Evaluate(c, []Line{line("50", 1)}, dec("50"), "", now)
	require.ErrorIs(t, err, ErrUsageLimitReached)
}

func TestEmailAllowlist(t *testing.T) {
	c := Coupon{
		DiscountType:  PercentageDiscount,
		DiscountValue: dec("10"),
		AllowedEmails: []string{"vip@example.com"},
	}
	_, err := Evaluate(c, []Line{line("50", 1)}, dec("50"), "someone@example.com", now)
	require.ErrorIs(t, err, ErrEmailNotAllowed)

	res, err := Evaluate(c, []Line{line("50", 1)}, dec("50"), "VIP@Example.com", now)
	require.NoError(t, err)
	require.Equal(t, "5", res.Discount.String())
}

func TestApplicableProductsNoIntersection(t *testing.T) {
	c := Coupon{
		DiscountType:       PercentageDiscount,
		DiscountValue:      dec("10"),
		ApplicableProducts: []uuid.UUID{uuid.New()},
	}
	_, err := Evaluate(c, []Line{line("50", 1)}, dec("50"), "", now)
	require.ErrorIs(t, err, ErrNotApplicable)
}

func TestExcludedItemSkippedForPerItemDiscount(t *testing.T) {
	excluded := line("50", 1)
	kept := line("30", 1)
	c := Coupon{
		DiscountType:     PercentageDiscount,
		DiscountValue:    dec("10"),
		ExcludedProducts: []uuid.UUID{excluded.ProductID},
	}
	res, err := Evaluate(c, []Line{excluded, kept}, dec("80"), "", now)
	require.NoError(t, err)
	require.Equal(t, "3", res.Discount.String())
	require.True(t, res.ItemDiscounts[0].IsZero())
}

func TestExcludedItemVoidsFixedCartDiscount(t *testing.T) {
	excluded := line("50", 1)
	c := Coupon{
		DiscountType:     FixedCartDiscount,
		DiscountValue:    dec("5"),
		ExcludedProducts: []uuid.UUID{excluded.ProductID},
	}
	_, err := Evaluate(c, []Line{excluded, line("30", 1)}, dec("80"), "", now)
	require.ErrorIs(t, err, ErrNotApplicable)
}

func TestCategoryScoping(t *testing.T) {
	cat := uuid.New()
	inCat := Line{ProductID: uuid.New(), CategoryIDs: []uuid.UUID{cat}, UnitPrice: dec("40"), Quantity: 1}
	outCat := line("60", 1)
	c := Coupon{
		DiscountType:         PercentageDiscount,
		DiscountValue:        dec("50"),
		ApplicableCategories: []uuid.UUID{cat},
	}
	res, err := Evaluate(c, []Line{inCat, outCat}, dec("100"), "", now)
	require.NoError(t, err)
	require.Equal(t, "20", res.Discount.String())
	require.True(t, res.ItemDiscounts[1].IsZero())
}

func TestPercentageValueSanity(t *testing.T) {
	for _, v := range []string{"0", "-5", "101"} {
		c := Coupon{DiscountType: PercentageDiscount, DiscountValue: dec(v)}
		_, err := Evaluate(c, []Line{line("50", 1)}, dec("50"), "", now)
		require.ErrorIs(t, err, ErrInvalidValue, "value %s", v)
	}
}

func TestMinimumSpendCheckedAfterOwnDiscount(t *testing.T) {
	// subtotal 100, 10% discount -> adjusted 90; floor of 95 must fail
	c := Coupon{DiscountType: PercentageDiscount, DiscountValue: dec("10"), MinimumSpend: decPtr("95")}
	_, err := Evaluate(c, []Line{line("50", 2)}, dec("100"), "", now)
	require.ErrorIs(t, err, ErrMinimumSpendNotMet)

	c.MinimumSpend = decPtr("90")
	_, err = Evaluate(c, []Line{line("50", 2)}, dec("100"), "", now)
	require.NoError(t, err)
}

func TestMaximumSpendCheckedAfterOwnDiscount(t *testing.T) {
	c := Coupon{DiscountType: PercentageDiscount, DiscountValue: dec("10"), MaximumSpend: decPtr("89")}
	_, err := Evaluate(c, []Line{line("50", 2)}, dec("100"), "", now)
	require.ErrorIs(t, err, ErrMaximumSpendExceeded)
}

func TestDiscountNeverExceedsSubtotal(t *testing.T) {
	c := Coupon{DiscountType: FixedProductDiscount, DiscountValue: dec("1000")}
	items := []Line{line("10", 3), line("5", 2)}
	res, err := Evaluate(c, items, dec("40"), "", now)
	require.NoError(t, err)
	require.True(t, res.Discount.LessThanOrEqual(dec("40")))
}
