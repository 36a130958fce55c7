package coupon

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon's value translates into a discount.
type DiscountType string

const (
	// PercentageDiscount discounts each eligible line by a percentage.
	PercentageDiscount DiscountType = "PERCENTAGE_DISCOUNT"
	// FixedCartDiscount subtracts a flat amount from the cart once.
	FixedCartDiscount DiscountType = "FIXED_CART_DISCOUNT"
	// FixedProductDiscount subtracts a flat amount per eligible unit.
	FixedProductDiscount DiscountType = "FIXED_PRODUCT_DISCOUNT"
)

// Coupon is a redeemable discount code. Codes are unique case-insensitively.
type Coupon struct {
	ID                   uuid.UUID        `json:"id"`
	Code                 string           `json:"code"`
	Description          string           `json:"description,omitempty"`
	DiscountType         DiscountType     `json:"discountType"`
	DiscountValue        decimal.Decimal  `json:"discountValue"`
	ExpiryDate           *time.Time       `json:"expiryDate,omitempty"`
	MaxUsage             *int             `json:"maxUsage,omitempty"`
	UsageCount           int              `json:"usageCount"`
	MinimumSpend         *decimal.Decimal `json:"minimumSpend,omitempty"`
	MaximumSpend         *decimal.Decimal `json:"maximumSpend,omitempty"`
	AllowedEmails        []string         `json:"allowedEmails,omitempty"`
	FreeShipping         bool             `json:"freeShipping"`
	ApplicableProducts   []uuid.UUID      `json:"applicableProducts,omitempty"`
	ExcludedProducts     []uuid.UUID      `json:"excludedProducts,omitempty"`
	ApplicableCategories []uuid.UUID      `json:"applicableCategories,omitempty"`
	ExcludedCategories   []uuid.UUID      `json:"excludedCategories,omitempty"`
	CreatedBy            uuid.UUID        `json:"createdBy"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
	DeletedAt            *time.Time       `json:"-"`
}

// NormalizeCode canonicalises a coupon code for lookup and comparison.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// EmailAllowed reports whether the allowlist admits the given email. An empty
// allowlist admits everyone.
func (c Coupon) EmailAllowed(email string) bool {
	if len(c.AllowedEmails) == 0 {
		return true
	}
	for _, allowed := range c.AllowedEmails {
		if strings.EqualFold(strings.TrimSpace(allowed), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}
