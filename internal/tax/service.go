package tax

import (
	"context"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-api/internal/cache"
	"github.com/storelinehq/storeline-api/internal/common"
)

// Store is the tax persistence surface.
type Store interface {
	GetClass(ctx context.Context, id uuid.UUID) (*Class, error)
	ListClasses(ctx context.Context) ([]Class, error)
	ListRates(ctx context.Context, classID uuid.UUID) ([]Rate, error)
	CreateClass(ctx context.Context, c *Class) error
	UpdateClass(ctx context.Context, c *Class) error
	SoftDeleteClass(ctx context.Context, id uuid.UUID) (bool, error)
	CreateRate(ctx context.Context, r *Rate) error
	UpdateRate(ctx context.Context, r *Rate) error
	SoftDeleteRate(ctx context.Context, id uuid.UUID) (bool, error)
	GetOptions(ctx context.Context) (*Options, error)
	UpsertOptions(ctx context.Context, o *Options) error
}

// Service manages tax configuration and serves cached rate lookups to the
// cart pipeline.
type Service struct {
	Tax   Store
	Cache *cache.Cache
}

// Options returns the store-level tax configuration. When none was configured
// yet the defaults apply: tax-exclusive prices matched on the shipping
// address.
func (s *Service) Options(ctx context.Context) (Options, error) {
	var cached Options
	if hit, err := s.Cache.GetJSON(ctx, "tax_options", cache.KeyTaxOptions, &cached); err == nil && hit {
		return cached, nil
	}
	o, err := s.Tax.GetOptions(ctx)
	if err != nil {
		return Options{}, err
	}
	if o == nil {
		return Options{CalculateTaxBasedOn: BasisShippingAddress}, nil
	}
	s.Cache.SetJSON(ctx, cache.KeyTaxOptions, o)
	return *o, nil
}

// UpdateOptions writes the singleton configuration.
func (s *Service) UpdateOptions(ctx context.Context, o *Options) error {
	switch o.CalculateTaxBasedOn {
	case BasisShippingAddress, BasisBillingAddress, BasisStoreAddress:
	default:
		return common.ValidationError("unknown calculate-tax-based-on policy")
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if current, err := s.Tax.GetOptions(ctx); err != nil {
		return err
	} else if current != nil {
		o.ID = current.ID
	}
	if err := s.Tax.UpsertOptions(ctx, o); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyTaxOptions)
	return nil
}

// ClassRates returns a class's rates in stored order, cache-aside. A nil class
// id yields no rates.
func (s *Service) ClassRates(ctx context.Context, classID *uuid.UUID) ([]Rate, error) {
	if classID == nil {
		return nil, nil
	}
	key := cache.KeyTaxClass(classID.String())
	var cached []Rate
	if hit, err := s.Cache.GetJSON(ctx, "tax_class", key, &cached); err == nil && hit {
		return cached, nil
	}
	rates, err := s.Tax.ListRates(ctx, *classID)
	if err != nil {
		return nil, err
	}
	s.Cache.SetJSON(ctx, key, rates)
	return rates, nil
}

// ShippingRates returns the rates of the configured shipping tax class.
func (s *Service) ShippingRates(ctx context.Context, o Options) ([]Rate, error) {
	return s.ClassRates(ctx, o.ShippingTaxClassID)
}

// ListClasses returns all classes with rates for the admin surface.
func (s *Service) ListClasses(ctx context.Context) ([]Class, error) {
	return s.Tax.ListClasses(ctx)
}

// GetClass fetches one class with rates.
func (s *Service) GetClass(ctx context.Context, id uuid.UUID) (*Class, error) {
	c, err := s.Tax.GetClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, common.NotFoundError("tax class not found")
	}
	return c, nil
}

// CreateClass persists a class.
func (s *Service) CreateClass(ctx context.Context, c *Class) error {
	if c.Name == "" {
		return common.ValidationError("tax class name is required")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return s.Tax.CreateClass(ctx, c)
}

// UpdateClass renames a class.
func (s *Service) UpdateClass(ctx context.Context, c *Class) error {
	if c.Name == "" {
		return common.ValidationError("tax class name is required")
	}
	if err := s.Tax.UpdateClass(ctx, c); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyTaxClass(c.ID.String()))
	return nil
}

// DeleteClass soft-deletes a class and its rates.
func (s *Service) DeleteClass(ctx context.Context, id uuid.UUID) error {
	ok, err := s.Tax.SoftDeleteClass(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundError("tax class not found")
	}
	s.Cache.Invalidate(ctx, cache.KeyTaxClass(id.String()))
	return nil
}

// CreateRate validates and persists a rate under its class.
func (s *Service) CreateRate(ctx context.Context, r *Rate) error {
	if err := validateRate(r); err != nil {
		return err
	}
	class, err := s.Tax.GetClass(ctx, r.TaxClassID)
	if err != nil {
		return err
	}
	if class == nil {
		return common.NotFoundError("tax class not found")
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if err := s.Tax.CreateRate(ctx, r); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyTaxClass(r.TaxClassID.String()))
	return nil
}

// UpdateRate rewrites a rate.
func (s *Service) UpdateRate(ctx context.Context, r *Rate) error {
	if err := validateRate(r); err != nil {
		return err
	}
	if err := s.Tax.UpdateRate(ctx, r); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyTaxClass(r.TaxClassID.String()))
	return nil
}

// DeleteRate soft-deletes a rate.
func (s *Service) DeleteRate(ctx context.Context, classID, id uuid.UUID) error {
	ok, err := s.Tax.SoftDeleteRate(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundError("tax rate not found")
	}
	s.Cache.Invalidate(ctx, cache.KeyTaxClass(classID.String()))
	return nil
}

func validateRate(r *Rate) error {
	if r.Country == "" {
		return common.ValidationError("tax rate country is required", common.FieldError{Field: "country", Message: "required"})
	}
	if r.Rate.IsNegative() {
		return common.ValidationError("tax rate cannot be negative", common.FieldError{Field: "rate", Message: "negative"})
	}
	if r.Priority <= 0 {
		r.Priority = 1
	}
	return nil
}
