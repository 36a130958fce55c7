package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is one line in a cart. A line references a product and optionally one
// of its variations.
type Item struct {
	ID          uuid.UUID  `json:"id"`
	CartID      uuid.UUID  `json:"cartId"`
	ProductID   uuid.UUID  `json:"productId"`
	VariationID *uuid.UUID `json:"variationId,omitempty"`
	Quantity    int        `json:"quantity"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Cart is a user's cart. Version guards concurrent mutations: every write goes
// through a compare-and-swap on it.
type Cart struct {
	ID        uuid.UUID   `json:"id"`
	CreatedBy uuid.UUID   `json:"createdBy"`
	Version   int64       `json:"-"`
	Items     []Item      `json:"items"`
	CouponIDs []uuid.UUID `json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	DeletedAt *time.Time  `json:"-"`
}

// ItemView is a cart line enriched with the computed price, discount and tax.
type ItemView struct {
	Item
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
}

// Totals is the aggregated money view of a cart.
type Totals struct {
	Subtotal                decimal.Decimal `json:"subtotal"`
	DiscountTotal           decimal.Decimal `json:"discountTotal"`
	ProductTax              decimal.Decimal `json:"productTax"`
	ShippingCost            decimal.Decimal `json:"shippingCost"`
	ShippingTax             decimal.Decimal `json:"shippingTax"`
	ShippingTotalWithTax    decimal.Decimal `json:"shippingTotalCostWithTax"`
	ProductTotalWithoutTax  decimal.Decimal `json:"productTotalWithoutTax"`
	ProductTotalCostWithTax decimal.Decimal `json:"productTotalCostWithTax"`
	InTotal                 decimal.Decimal `json:"inTotal"`
}

// View is the cart response payload: items with per-line money detail, the
// applied coupon codes and the aggregated totals.
type View struct {
	ID             uuid.UUID  `json:"id"`
	CreatedBy      uuid.UUID  `json:"createdBy"`
	Currency       string     `json:"currency,omitempty"`
	Items          []ItemView `json:"items"`
	AppliedCoupons []string   `json:"appliedCoupons"`
	Totals
}
