package shipping

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-api/internal/cache"
	"github.com/storelinehq/storeline-api/internal/common"
)

// Store is the shipping persistence surface.
type Store interface {
	ListZones(ctx context.Context) ([]Zone, error)
	GetZone(ctx context.Context, id uuid.UUID) (*Zone, error)
	CreateZone(ctx context.Context, z *Zone) error
	UpdateZone(ctx context.Context, z *Zone) error
	SoftDeleteZone(ctx context.Context, id uuid.UUID) (bool, error)
	CreateMethod(ctx context.Context, m *Method) error
	UpdateMethod(ctx context.Context, m *Method) error
	SoftDeleteMethod(ctx context.Context, id uuid.UUID) (bool, error)
	ListClasses(ctx context.Context) ([]Class, error)
	CreateClass(ctx context.Context, c *Class) error
	SoftDeleteClass(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service manages shipping configuration and serves the cached zone listing
// to the cart pipeline. Zone order matters: the cart matches zones in stored
// order.
type Service struct {
	Shipping Store
	Cache    *cache.Cache
}

// Zones returns all zones with methods, cache-aside.
func (s *Service) Zones(ctx context.Context) ([]Zone, error) {
	var cached []Zone
	if hit, err := s.Cache.GetJSON(ctx, "shipping_zone", cache.KeyShippingZones, &cached); err == nil && hit {
		return cached, nil
	}
	zones, err := s.Shipping.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	s.Cache.SetJSON(ctx, cache.KeyShippingZones, zones)
	return zones, nil
}

// GetZone fetches one zone for the admin surface.
func (s *Service) GetZone(ctx context.Context, id uuid.UUID) (*Zone, error) {
	z, err := s.Shipping.GetZone(ctx, id)
	if err != nil {
		return nil, err
	}
	if z == nil {
		return nil, common.NotFoundError("shipping zone not found")
	}
	return z, nil
}

// CreateZone validates and persists a zone.
func (s *Service) CreateZone(ctx context.Context, z *Zone) error {
	if err := validateZone(z); err != nil {
		return err
	}
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	if err := s.Shipping.CreateZone(ctx, z); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyShippingZones)
	return nil
}

// UpdateZone rewrites a zone's matchers.
func (s *Service) UpdateZone(ctx context.Context, z *Zone) error {
	if err := validateZone(z); err != nil {
		return err
	}
	if err := s.Shipping.UpdateZone(ctx, z); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyShippingZones)
	return nil
}

// DeleteZone soft-deletes a zone and its methods.
func (s *Service) DeleteZone(ctx context.Context, id uuid.UUID) error {
	ok, err := s.Shipping.SoftDeleteZone(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundError("shipping zone not found")
	}
	s.Cache.Invalidate(ctx, cache.KeyShippingZones)
	return nil
}

// CreateMethod validates and persists a method under its zone.
func (s *Service) CreateMethod(ctx context.Context, m *Method) error {
	if err := validateMethod(m); err != nil {
		return err
	}
	zone, err := s.Shipping.GetZone(ctx, m.ZoneID)
	if err != nil {
		return err
	}
	if zone == nil {
		return common.NotFoundError("shipping zone not found")
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if err := s.Shipping.CreateMethod(ctx, m); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyShippingZones)
	return nil
}

// UpdateMethod rewrites a method.
func (s *Service) UpdateMethod(ctx context.Context, m *Method) error {
	if err := validateMethod(m); err != nil {
		return err
	}
	if err := s.Shipping.UpdateMethod(ctx, m); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyShippingZones)
	return nil
}

// DeleteMethod soft-deletes a method.
func (s *Service) DeleteMethod(ctx context.Context, id uuid.UUID) error {
	ok, err := s.Shipping.SoftDeleteMethod(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundError("shipping method not found")
	}
	s.Cache.Invalidate(ctx, cache.KeyShippingZones)
	return nil
}

// ListClasses returns all shipping classes.
func (s *Service) ListClasses(ctx context.Context) ([]Class, error) {
	return s.Shipping.ListClasses(ctx)
}

// CreateClass persists a shipping class.
func (s *Service) CreateClass(ctx context.Context, c *Class) error {
	if strings.TrimSpace(c.Name) == "" {
		return common.ValidationError("shipping class name is required")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = strings.ToLower(strings.Join(strings.Fields(c.Name), "-"))
	}
	return s.Shipping.CreateClass(ctx, c)
}

// DeleteClass soft-deletes a shipping class.
func (s *Service) DeleteClass(ctx context.Context, id uuid.UUID) error {
	ok, err := s.Shipping.SoftDeleteClass(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundError("shipping class not found")
	}
	return nil
}

func validateZone(z *Zone) error {
	if strings.TrimSpace(z.Name) == "" {
		return common.ValidationError("zone name is required", common.FieldError{Field: "name", Message: "required"})
	}
	if len(z.Regions) == 0 && len(z.ZipCodes) == 0 {
		return common.ValidationError("zone needs regions or zip codes")
	}
	for _, region := range z.Regions {
		if strings.TrimSpace(region.Country) == "" {
			return common.ValidationError("zone region country is required")
		}
	}
	return nil
}

func validateMethod(m *Method) error {
	switch m.Kind {
	case KindFlatRate, KindFreeShipping, KindLocalPickup, KindUPS:
	default:
		return common.ValidationError("unknown shipping method kind")
	}
	switch m.Status {
	case StatusActive, StatusInactive, "":
		if m.Status == "" {
			m.Status = StatusActive
		}
	default:
		return common.ValidationError("unknown shipping method status")
	}
	if m.Cost.IsNegative() {
		return common.ValidationError("shipping cost cannot be negative")
	}
	if m.Kind == KindFreeShipping {
		switch m.FreeCondition {
		case CondNA, CondCoupon, CondMinAmount, CondMinAmountOrCoupon, CondMinAmountAndCoupon, "":
			if m.FreeCondition == "" {
				m.FreeCondition = CondNA
			}
		default:
			return common.ValidationError("unknown free-shipping condition")
		}
		needsAmount := m.FreeCondition == CondMinAmount ||
			m.FreeCondition == CondMinAmountOrCoupon ||
			m.FreeCondition == CondMinAmountAndCoupon
		if needsAmount && m.MinimumOrderAmount == nil {
			return common.ValidationError("free-shipping condition requires a minimum order amount")
		}
	}
	return nil
}
