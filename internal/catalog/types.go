package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxStatus describes how a product participates in tax calculation.
type TaxStatus string

const (
	// TaxStatusTaxable marks the product's price as subject to product tax.
	TaxStatusTaxable TaxStatus = "taxable"
	// TaxStatusShipping marks the product as taxed on shipping only.
	TaxStatusShipping TaxStatus = "shipping"
	// TaxStatusNone excludes the product from tax entirely.
	TaxStatusNone TaxStatus = "none"
)

// TierPricingType selects how a matched quantity tier prices the line.
type TierPricingType string

const (
	// TierPricingFixed replaces the unit price with the tier's fixed price.
	TierPricingFixed TierPricingType = "fixed"
	// TierPricingPercentage discounts the unit price by the tier's percentage.
	TierPricingPercentage TierPricingType = "percentage"
)

// PriceTier is a quantity bracket overriding the base unit price. Both bounds
// must be present for the tier to match.
type PriceTier struct {
	MinQuantity        *int             `json:"minQuantity"`
	MaxQuantity        *int             `json:"maxQuantity"`
	FixedPrice         *decimal.Decimal `json:"fixedPrice,omitempty"`
	PercentageDiscount *decimal.Decimal `json:"percentageDiscount,omitempty"`
}

// TierPricing groups the pricing type with its ordered tiers. Tier order is the
// stored order; when brackets overlap the first matching tier wins.
type TierPricing struct {
	Type  TierPricingType `json:"type"`
	Tiers []PriceTier     `json:"tiers"`
}

// Product is a catalog product.
type Product struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description,omitempty"`
	RegularPrice     decimal.Decimal  `json:"regularPrice"`
	SalePrice        *decimal.Decimal `json:"salePrice,omitempty"`
	SalePriceStartAt *time.Time       `json:"salePriceStartAt,omitempty"`
	SalePriceEndAt   *time.Time       `json:"salePriceEndAt,omitempty"`
	TierPricing      *TierPricing     `json:"tierPricingInfo,omitempty"`
	TaxStatus        TaxStatus        `json:"taxStatus"`
	TaxClassID       *uuid.UUID       `json:"taxClassId,omitempty"`
	ShippingClassID  *uuid.UUID       `json:"shippingClassId,omitempty"`
	BrandID          *uuid.UUID       `json:"brandId,omitempty"`
	CategoryIDs      []uuid.UUID      `json:"categoryIds,omitempty"`
	TagIDs           []uuid.UUID      `json:"tagIds,omitempty"`
	CreatedBy        uuid.UUID        `json:"createdBy"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	DeletedAt        *time.Time       `json:"-"`
}

// Variation is a purchasable variant of a product. Its prices and tier rules
// override the parent product's when the variation is selected.
type Variation struct {
	ID               uuid.UUID         `json:"id"`
	ProductID        uuid.UUID         `json:"productId"`
	Attributes       map[string]string `json:"attributes,omitempty"`
	RegularPrice     decimal.Decimal   `json:"regularPrice"`
	SalePrice        *decimal.Decimal  `json:"salePrice,omitempty"`
	SalePriceStartAt *time.Time        `json:"salePriceStartAt,omitempty"`
	SalePriceEndAt   *time.Time        `json:"salePriceEndAt,omitempty"`
	TierPricing      *TierPricing      `json:"tierPricingInfo,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	DeletedAt        *time.Time        `json:"-"`
}

// Category groups products for navigation and coupon scoping.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// Brand is a product manufacturer label.
type Brand struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// Tag is a free-form product label.
type Tag struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// InCategory reports whether the product belongs to the given category.
func (p Product) InCategory(id uuid.UUID) bool {
	for _, c := range p.CategoryIDs {
		if c == id {
			return true
		}
	}
	return false
}
