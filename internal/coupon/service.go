package coupon

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-api/internal/cache"
	"github.com/storelinehq/storeline-api/internal/common"
)

// Store is the coupon persistence surface.
type Store interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Get(ctx context.Context, id uuid.UUID) (*Coupon, error)
	List(ctx context.Context, limit, offset int) ([]Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service provides coupon lookup and admin management.
type Service struct {
	Coupons Store
	Cache   *cache.Cache
}

// FindByCode resolves a coupon by its case-insensitive code, cache-aside.
func (s *Service) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, common.ValidationError("coupon code is required")
	}
	key := cache.KeyCoupon(normalized)
	var cached Coupon
	if hit, err := s.Cache.GetJSON(ctx, "coupon", key, &cached); err == nil && hit {
		return &cached, nil
	}
	c, err := s.Coupons.GetByCode(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, common.NotFoundError("coupon " + normalized + " not found")
	}
	s.Cache.SetJSON(ctx, key, c)
	return c, nil
}

// Get fetches a coupon by id for the admin surface.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Coupon, error) {
	c, err := s.Coupons.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, common.NotFoundError("coupon not found")
	}
	return c, nil
}

// List pages coupons for the admin surface.
func (s *Service) List(ctx context.Context, page, limit int) ([]Coupon, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.Coupons.List(ctx, limit, (page-1)*limit)
}

// Create validates and persists a coupon.
func (s *Service) Create(ctx context.Context, c *Coupon) error {
	if err := validateCoupon(c); err != nil {
		return err
	}
	if existing, err := s.Coupons.GetByCode(ctx, NormalizeCode(c.Code)); err != nil {
		return err
	} else if existing != nil {
		return common.ConflictError("coupon code already exists")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return s.Coupons.Create(ctx, c)
}

// Update validates and rewrites a coupon, dropping its cache entry.
func (s *Service) Update(ctx context.Context, c *Coupon) error {
	if err := validateCoupon(c); err != nil {
		return err
	}
	current, err := s.Coupons.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return common.NotFoundError("coupon not found")
	}
	if err := s.Coupons.Update(ctx, c); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyCoupon(NormalizeCode(current.Code)), cache.KeyCoupon(NormalizeCode(c.Code)))
	return nil
}

// Delete soft-deletes a coupon and drops its cache entry.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	current, err := s.Coupons.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return common.NotFoundError("coupon not found")
	}
	if _, err := s.Coupons.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyCoupon(NormalizeCode(current.Code)))
	return nil
}

func validateCoupon(c *Coupon) error {
	if strings.TrimSpace(c.Code) == "" {
		return common.ValidationError("coupon code is required", common.FieldError{Field: "code", Message: "required"})
	}
	switch c.DiscountType {
	case PercentageDiscount, FixedCartDiscount, FixedProductDiscount:
	default:
		return common.ValidationError("unknown discount type", common.FieldError{Field: "discountType", Message: "unknown"})
	}
	if !c.DiscountValue.IsPositive() {
		return common.ValidationError("discount value must be positive", common.FieldError{Field: "discountValue", Message: "must be positive"})
	}
	if c.DiscountType == PercentageDiscount && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return common.ValidationError("percentage discount cannot exceed 100", common.FieldError{Field: "discountValue", Message: "exceeds 100"})
	}
	if c.MinimumSpend != nil && c.MaximumSpend != nil && c.MaximumSpend.LessThan(*c.MinimumSpend) {
		return common.ValidationError("maximum spend below minimum spend")
	}
	return nil
}
