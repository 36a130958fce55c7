// Package remote calls the user-service and site-settings subgraphs over
// GraphQL HTTP. Responses are discriminated unions carrying a statusCode; a
// 404 union member maps to a nil entity, not an error.
package remote

import (
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-api/internal/tax"
)

// ExemptionStatus is the review state of a tax exemption entry.
type ExemptionStatus string

const (
	ExemptionApproved ExemptionStatus = "approved"
	ExemptionPending  ExemptionStatus = "pending"
	ExemptionRejected ExemptionStatus = "rejected"
)

// TaxExemption is a buyer's tax exemption entry held by the user service.
type TaxExemption struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Status     ExemptionStatus `json:"status"`
	ExpiryDate *time.Time      `json:"expiryDate,omitempty"`
}

// ActiveAt reports whether the exemption waives tax at the given instant. Only
// an approved, unexpired entry does.
func (e *TaxExemption) ActiveAt(now time.Time) bool {
	if e == nil || e.Status != ExemptionApproved {
		return false
	}
	if e.ExpiryDate != nil && !e.ExpiryDate.After(now) {
		return false
	}
	return true
}

// Address is an address-book entry held by the user service, or the shop's
// default tax address from site settings.
type Address struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"userId"`
	Country           string    `json:"country"`
	State             string    `json:"state,omitempty"`
	City              string    `json:"city,omitempty"`
	Postcode          string    `json:"zipCode,omitempty"`
	DefaultTaxAddress bool      `json:"defaultTaxAddress,omitempty"`
}

// TaxAddress projects the entry onto the fields tax-rate matching uses.
func (a *Address) TaxAddress() tax.Address {
	if a == nil {
		return tax.Address{}
	}
	return tax.Address{Country: a.Country, State: a.State, City: a.City, Postcode: a.Postcode}
}
