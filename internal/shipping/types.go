package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MethodKind identifies the cost model of a shipping method.
type MethodKind string

const (
	// KindFlatRate charges a per-item cost with optional per-class overrides.
	KindFlatRate MethodKind = "FLAT_RATE"
	// KindFreeShipping waives the cost when its conditions are met.
	KindFreeShipping MethodKind = "FREE_SHIPPING"
	// KindLocalPickup charges a flat handling cost.
	KindLocalPickup MethodKind = "LOCAL_PICKUP"
	// KindUPS is a carrier method configured with a flat fallback cost.
	KindUPS MethodKind = "UPS"
)

// FreeCondition is a free-shipping eligibility rule.
type FreeCondition string

const (
	// CondNA waives shipping unconditionally.
	CondNA FreeCondition = "NA"
	// CondCoupon requires a valid free-shipping coupon on the cart.
	CondCoupon FreeCondition = "COUPON"
	// CondMinAmount requires the discounted cart total to reach the threshold.
	CondMinAmount FreeCondition = "MINIMUM_ORDER_AMOUNT"
	// CondMinAmountOrCoupon requires either rule to hold.
	CondMinAmountOrCoupon FreeCondition = "MINIMUM_ORDER_AMOUNT_OR_COUPON"
	// CondMinAmountAndCoupon requires both rules to hold.
	CondMinAmountAndCoupon FreeCondition = "MINIMUM_ORDER_AMOUNT_AND_COUPON"
)

// MethodStatus marks a method as selectable or not.
type MethodStatus string

const (
	// StatusActive makes the method eligible for selection.
	StatusActive MethodStatus = "active"
	// StatusInactive parks the method without deleting it.
	StatusInactive MethodStatus = "inactive"
)

// Region is a country/state/city matcher within a zone.
type Region struct {
	Country string  `json:"country"`
	State   *string `json:"state,omitempty"`
	City    *string `json:"city,omitempty"`
}

// Class is a shipping class products reference for per-class cost overrides.
type Class struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"`
}

// ClassCost overrides a flat-rate method's default cost for one shipping class.
type ClassCost struct {
	ShippingClassID uuid.UUID       `json:"shippingClassId"`
	Cost            decimal.Decimal `json:"cost"`
}

// Method is one shipping option within a zone. Methods are ordered; the first
// active method is the zone's primary.
type Method struct {
	ID                 uuid.UUID        `json:"id"`
	ZoneID             uuid.UUID        `json:"zoneId"`
	Kind               MethodKind       `json:"kind"`
	Title              string           `json:"title"`
	Status             MethodStatus     `json:"status"`
	Position           int              `json:"position"`
	Taxable            bool             `json:"taxable"`
	Cost               decimal.Decimal  `json:"cost"`
	ClassCosts         []ClassCost      `json:"costs,omitempty"`
	FreeCondition      FreeCondition    `json:"conditions,omitempty"`
	MinimumOrderAmount *decimal.Decimal `json:"minimumOrderAmount,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
	DeletedAt          *time.Time       `json:"-"`
}

// Zone maps addresses to an ordered list of shipping methods, either by
// explicit zip codes or by region matchers.
type Zone struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Regions   []Region   `json:"regions,omitempty"`
	ZipCodes  []string   `json:"zipCodes,omitempty"`
	Methods   []Method   `json:"shippingMethods,omitempty"`
	CreatedBy uuid.UUID  `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// Item is a cart line presented to the shipping calculator.
type Item struct {
	Quantity        int
	ShippingClassID *uuid.UUID
}

// Quote is the computed shipping charge for a cart.
type Quote struct {
	MethodID     *uuid.UUID      `json:"methodId,omitempty"`
	Cost         decimal.Decimal `json:"cost"`
	Tax          decimal.Decimal `json:"tax"`
	TotalWithTax decimal.Decimal `json:"totalWithTax"`
}
