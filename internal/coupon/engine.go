// Package coupon evaluates coupon applicability and discount contribution
// against the current cart state.
package coupon

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-api/internal/money"
)

var (
	// ErrExpired is returned when the coupon's expiry date has passed.
	ErrExpired = errors.New("coupon expired")
	// ErrUsageLimitReached indicates the coupon exhausted its usage quota.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrEmailNotAllowed indicates the buyer is not on the coupon's allowlist.
	ErrEmailNotAllowed = errors.New("coupon not available for this account")
	// ErrNotApplicable indicates no cart item passes the coupon's scoping lists.
	ErrNotApplicable = errors.New("coupon not applicable to cart contents")
	// ErrInvalidValue indicates the stored discount value is out of range.
	ErrInvalidValue = errors.New("coupon discount value invalid")
	// ErrMinimumSpendNotMet indicates the discounted cart total is below the floor.
	ErrMinimumSpendNotMet = errors.New("minimum spend not met")
	// ErrMaximumSpendExceeded indicates the discounted cart total is above the cap.
	ErrMaximumSpendExceeded = errors.New("maximum spend exceeded")
)

// Line is a cart line presented to the evaluator.
type Line struct {
	ProductID   uuid.UUID
	CategoryIDs []uuid.UUID
	UnitPrice   decimal.Decimal
	Quantity    int
}

func (l Line) subtotal() decimal.Decimal {
	return money.Round2(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

// Result reports the discount contributed by one coupon. ItemDiscounts aligns
// with the evaluated lines; cart-level discounts are not allocated to items.
type Result struct {
	Discount      decimal.Decimal
	ItemDiscounts []decimal.Decimal
	FreeShipping  bool
}

// Evaluate runs the full validity gate and computes the coupon's discount.
// The subtotal argument is the cart subtotal before this coupon. Minimum and
// maximum spend are validated against the total after this coupon's own
// discount is subtracted.
func Evaluate(c Coupon, items []Line, subtotal decimal.Decimal, userEmail string, now time.Time) (Result, error) {
	if c.ExpiryDate != nil && !c.ExpiryDate.After(now) {
		return Result{}, ErrExpired
	}
	if c.MaxUsage != nil && c.UsageCount >= *c.MaxUsage {
		return Result{}, ErrUsageLimitReached
	}
	if !c.EmailAllowed(userEmail) {
		return Result{}, ErrEmailNotAllowed
	}
	if err := validateValue(c); err != nil {
		return Result{}, err
	}

	// A cart-wide discount is voided entirely by any excluded item; per-item
	// types only drop the excluded item's contribution.
	if c.DiscountType == FixedCartDiscount {
		for _, it := range items {
			if c.itemExcluded(it) {
				return Result{}, ErrNotApplicable
			}
		}
	}

	eligible := make([]bool, len(items))
	anyEligible := false
	for i, it := range items {
		if c.itemEligible(it) {
			eligible[i] = true
			anyEligible = true
		}
	}
	if !anyEligible {
		return Result{}, ErrNotApplicable
	}

	result := Result{
		ItemDiscounts: make([]decimal.Decimal, len(items)),
		FreeShipping:  c.FreeShipping,
	}
	switch c.DiscountType {
	case PercentageDiscount:
		for i, it := range items {
			if !eligible[i] {
				result.ItemDiscounts[i] = decimal.Zero
				continue
			}
			d := money.Percent(it.subtotal(), c.DiscountValue)
			result.ItemDiscounts[i] = d
			result.Discount = result.Discount.Add(d)
		}
	case FixedProductDiscount:
		for i, it := range items {
			if !eligible[i] {
				result.ItemDiscounts[i] = decimal.Zero
				continue
			}
			d := money.Round2(c.DiscountValue.Mul(decimal.NewFromInt(int64(it.Quantity))))
			d = money.Min(d, it.subtotal())
			result.ItemDiscounts[i] = d
			result.Discount = result.Discount.Add(d)
		}
	case FixedCartDiscount:
		result.Discount = money.Min(c.DiscountValue, subtotal)
	}
	result.Discount = money.Round2(result.Discount)

	adjusted := subtotal.Sub(result.Discount)
	if c.MinimumSpend != nil && adjusted.LessThan(*c.MinimumSpend) {
		return Result{}, ErrMinimumSpendNotMet
	}
	if c.MaximumSpend != nil && adjusted.GreaterThan(*c.MaximumSpend) {
		return Result{}, ErrMaximumSpendExceeded
	}
	return result, nil
}

func validateValue(c Coupon) error {
	switch c.DiscountType {
	case PercentageDiscount:
		if !c.DiscountValue.IsPositive() || c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return ErrInvalidValue
		}
	case FixedCartDiscount, FixedProductDiscount:
		if !c.DiscountValue.IsPositive() {
			return ErrInvalidValue
		}
	default:
		return ErrInvalidValue
	}
	return nil
}

// itemEligible applies the applicable and excluded scoping lists to one line.
// Empty applicable lists admit every line.
func (c Coupon) itemEligible(it Line) bool {
	if c.itemExcluded(it) {
		return false
	}
	if len(c.ApplicableProducts) == 0 && len(c.ApplicableCategories) == 0 {
		return true
	}
	if containsUUID(c.ApplicableProducts, it.ProductID) {
		return true
	}
	for _, cat := range it.CategoryIDs {
		if containsUUID(c.ApplicableCategories, cat) {
			return true
		}
	}
	return false
}

func (c Coupon) itemExcluded(it Line) bool {
	if containsUUID(c.ExcludedProducts, it.ProductID) {
		return true
	}
	for _, cat := range it.CategoryIDs {
		if containsUUID(c.ExcludedCategories, cat) {
			return true
		}
	}
	return false
}

func containsUUID(list []uuid.UUID, id uuid.UUID) bool {
	for _, el := range list {
		if el == id {
			return true
		}
	}
	return false
}
