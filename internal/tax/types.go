package tax

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalcBasis selects which address determines the applicable tax rate.
type CalcBasis string

const (
	// BasisShippingAddress uses the buyer's shipping address.
	BasisShippingAddress CalcBasis = "SHIPPING_ADDRESS"
	// BasisBillingAddress uses the buyer's billing address.
	BasisBillingAddress CalcBasis = "BILLING_ADDRESS"
	// BasisStoreAddress uses the store's default tax address.
	BasisStoreAddress CalcBasis = "STORE_ADDRESS"
)

// Address is the location a tax rate is matched against. Empty fields are
// treated as not provided.
type Address struct {
	Country  string `json:"country"`
	State    string `json:"state,omitempty"`
	City     string `json:"city,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

// Rate is a single tax rate within a class. Country is required; the optional
// location fields act as wildcards only when they are literally null.
type Rate struct {
	ID                uuid.UUID       `json:"id"`
	TaxClassID        uuid.UUID       `json:"taxClassId"`
	Country           string          `json:"country"`
	State             *string         `json:"state,omitempty"`
	City              *string         `json:"city,omitempty"`
	Postcode          *string         `json:"postcode,omitempty"`
	Rate              decimal.Decimal `json:"rate"`
	Priority          int             `json:"priority"`
	IsCompound        bool            `json:"isCompound"`
	AppliesToShipping bool            `json:"appliesToShipping"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	DeletedAt         *time.Time      `json:"-"`
}

// Class groups tax rates referenced by products.
type Class struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Rates     []Rate     `json:"rates,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// Options is the singleton store-level tax configuration.
type Options struct {
	ID                   uuid.UUID  `json:"id"`
	PricesEnteredWithTax bool       `json:"pricesEnteredWithTax"`
	CalculateTaxBasedOn  CalcBasis  `json:"calculateTaxBasedOn"`
	ShippingTaxClassID   *uuid.UUID `json:"shippingTaxClass,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}
