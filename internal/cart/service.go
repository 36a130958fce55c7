package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storelinehq/storeline-api/internal/common"
	"github.com/storelinehq/storeline-api/internal/coupon"
	"github.com/storelinehq/storeline-api/internal/events"
	"github.com/storelinehq/storeline-api/internal/obs"
)

// Store reads and creates carts.
type Store interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Create(ctx context.Context, userID uuid.UUID) (*Cart, error)
}

// Mutation is the cart write surface inside one transaction. Every mutation
// ends with a version compare-and-swap; a false return means another writer
// got there first.
type Mutation interface {
	CASVersion(ctx context.Context, cartID uuid.UUID, expected int64) (bool, error)
	InsertItem(ctx context.Context, it *Item) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error)
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	AttachCoupon(ctx context.Context, cartID, couponID uuid.UUID) error
	DetachCoupon(ctx context.Context, cartID, couponID uuid.UUID) (bool, error)
	IncrementCouponUsage(ctx context.Context, couponID uuid.UUID) (bool, error)
}

// Transactor runs a cart mutation in a single database transaction.
type Transactor interface {
	CartTx(ctx context.Context, fn func(m Mutation) error) error
}

// CouponFinder resolves a coupon by its normalized code.
type CouponFinder interface {
	GetByCode(ctx context.Context, code string) (*coupon.Coupon, error)
}

// Service owns the cart operations. Reads and coupon applications both end in
// Aggregator.Aggregate so every caller sees the same totals.
type Service struct {
	Carts   Store
	Tx      Transactor
	Coupons CouponFinder
	Agg     *Aggregator
	Events  *events.Bus
}

func recordApply(result string) {
	if obs.CouponApplyTotal != nil {
		obs.CouponApplyTotal.WithLabelValues(result).Inc()
	}
}

// emit records a domain event; failures are logged, never surfaced.
func (s *Service) emit(ctx context.Context, topic string, cartID uuid.UUID, payload any) {
	if err := s.Events.Emit(ctx, topic, cartID, payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("emit cart event")
	}
}

func errVersionConflict() error {
	return common.ConflictError("cart was modified concurrently, retry")
}

func (s *Service) getOrCreate(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	c, err := s.Carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	return s.Carts.Create(ctx, userID)
}

// View returns the user's priced cart, creating an empty cart on first touch.
func (s *Service) View(ctx context.Context, userID uuid.UUID, userEmail string, p Params) (*View, error) {
	c, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Agg.Aggregate(ctx, c, userEmail, p)
}

// AddItem puts qty units of a product, or one of its variations, into the
// cart. An existing line for the same product and variation absorbs the added
// quantity instead of duplicating.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, userEmail string, productID uuid.UUID, variationID *uuid.UUID, qty int, p Params) (*View, error) {
	if qty <= 0 {
		return nil, common.ValidationError("quantity must be positive", common.FieldError{Field: "quantity", Message: "must be positive"})
	}
	products, err := s.Agg.Catalog.GetMany(ctx, []uuid.UUID{productID})
	if err != nil {
		return nil, err
	}
	product := products[productID]
	if product == nil {
		return nil, common.NotFoundError("product not found")
	}
	if variationID != nil {
		variations, err := s.Agg.Catalog.GetVariations(ctx, []uuid.UUID{*variationID})
		if err != nil {
			return nil, err
		}
		v := variations[*variationID]
		if v == nil || v.ProductID != productID {
			return nil, common.NotFoundError("variation not found")
		}
	}

	c, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing := findLine(c.Items, productID, variationID)

	err = s.Tx.CartTx(ctx, func(m Mutation) error {
		if existing != nil {
			if err := m.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+qty); err != nil {
				return err
			}
		} else {
			it := &Item{ID: uuid.New(), CartID: c.ID, ProductID: productID, VariationID: variationID, Quantity: qty}
			if err := m.InsertItem(ctx, it); err != nil {
				return err
			}
		}
		return s.casOrConflict(ctx, m, c)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TopicCartItemAdded, c.ID, map[string]any{"productId": productID, "quantity": qty})
	return s.reload(ctx, userID, userEmail, p)
}

// UpdateItem sets a line's quantity.
func (s *Service) UpdateItem(ctx context.Context, userID uuid.UUID, userEmail string, itemID uuid.UUID, qty int, p Params) (*View, error) {
	if qty <= 0 {
		return nil, common.ValidationError("quantity must be positive", common.FieldError{Field: "quantity", Message: "must be positive"})
	}
	c, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if findItem(c.Items, itemID) == nil {
		return nil, common.NotFoundError("cart item not found")
	}
	err = s.Tx.CartTx(ctx, func(m Mutation) error {
		if err := m.UpdateItemQuantity(ctx, itemID, qty); err != nil {
			return err
		}
		return s.casOrConflict(ctx, m, c)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TopicCartItemUpdated, c.ID, map[string]any{"itemId": itemID, "quantity": qty})
	return s.reload(ctx, userID, userEmail, p)
}

// RemoveItem deletes a line.
func (s *Service) RemoveItem(ctx context.Context, userID uuid.UUID, userEmail string, itemID uuid.UUID, p Params) (*View, error) {
	c, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if findItem(c.Items, itemID) == nil {
		return nil, common.NotFoundError("cart item not found")
	}
	err = s.Tx.CartTx(ctx, func(m Mutation) error {
		ok, err := m.DeleteItem(ctx, itemID)
		if err != nil {
			return err
		}
		if !ok {
			return common.NotFoundError("cart item not found")
		}
		return s.casOrConflict(ctx, m, c)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TopicCartItemRemoved, c.ID, map[string]any{"itemId": itemID})
	return s.reload(ctx, userID, userEmail, p)
}

// Clear empties the cart and detaches every coupon.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID, userEmail string, p Params) (*View, error) {
	c, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.Tx.CartTx(ctx, func(m Mutation) error {
		if err := m.ClearItems(ctx, c.ID); err != nil {
			return err
		}
		return s.casOrConflict(ctx, m, c)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TopicCartCleared, c.ID, nil)
	return s.reload(ctx, userID, userEmail, p)
}

// ApplyCoupon validates the coupon against the current cart and attaches it.
// The usage increment, the attach and the version bump commit atomically; the
// increment is guarded against the usage cap inside the update itself, so
// concurrent applies cannot race past maxUsage. Re-applying an attached coupon
// is a no-op.
func (s *Service) ApplyCoupon(ctx context.Context, userID uuid.UUID, userEmail, code string, p Params) (*View, error) {
	cpn, err := s.Coupons.GetByCode(ctx, coupon.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	if cpn == nil {
		recordApply("not_found")
		return nil, common.NotFoundError(fmt.Sprintf("coupon %s not found", coupon.NormalizeCode(code)))
	}
	c, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if containsID(c.CouponIDs, cpn.ID) {
		recordApply("noop")
		return s.Agg.Aggregate(ctx, c, userEmail, p)
	}
	if err := s.Agg.CheckCoupon(ctx, c, *cpn, userEmail); err != nil {
		recordApply("invalid")
		return nil, err
	}

	err = s.Tx.CartTx(ctx, func(m Mutation) error {
		ok, err := m.IncrementCouponUsage(ctx, cpn.ID)
		if err != nil {
			return err
		}
		if !ok {
			return common.BusinessError("coupon %s: %s", cpn.Code, coupon.ErrUsageLimitReached)
		}
		if err := m.AttachCoupon(ctx, c.ID, cpn.ID); err != nil {
			return err
		}
		return s.casOrConflict(ctx, m, c)
	})
	if err != nil {
		if common.IsAppError(err) {
			recordApply("rejected")
		} else {
			recordApply("error")
		}
		return nil, err
	}
	recordApply("ok")
	s.emit(ctx, events.TopicCouponApplied, c.ID, map[string]any{"code": cpn.Code})
	return s.reload(ctx, userID, userEmail, p)
}

// RemoveCoupon detaches a coupon from the cart.
func (s *Service) RemoveCoupon(ctx context.Context, userID uuid.UUID, userEmail, code string, p Params) (*View, error) {
	cpn, err := s.Coupons.GetByCode(ctx, coupon.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	if cpn == nil {
		return nil, common.NotFoundError(fmt.Sprintf("coupon %s not found", coupon.NormalizeCode(code)))
	}
	c, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.Tx.CartTx(ctx, func(m Mutation) error {
		ok, err := m.DetachCoupon(ctx, c.ID, cpn.ID)
		if err != nil {
			return err
		}
		if !ok {
			return common.NotFoundError(fmt.Sprintf("coupon %s is not applied to the cart", cpn.Code))
		}
		return s.casOrConflict(ctx, m, c)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TopicCouponRemoved, c.ID, map[string]any{"code": cpn.Code})
	return s.reload(ctx, userID, userEmail, p)
}

func (s *Service) requireCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	c, err := s.Carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, common.NotFoundError("cart not found")
	}
	return c, nil
}

func (s *Service) casOrConflict(ctx context.Context, m Mutation, c *Cart) error {
	ok, err := m.CASVersion(ctx, c.ID, c.Version)
	if err != nil {
		return err
	}
	if !ok {
		return errVersionConflict()
	}
	return nil
}

func (s *Service) reload(ctx context.Context, userID uuid.UUID, userEmail string, p Params) (*View, error) {
	c, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Agg.Aggregate(ctx, c, userEmail, p)
}

func findLine(items []Item, productID uuid.UUID, variationID *uuid.UUID) *Item {
	for i := range items {
		it := &items[i]
		if it.ProductID != productID {
			continue
		}
		switch {
		case it.VariationID == nil && variationID == nil:
			return it
		case it.VariationID != nil && variationID != nil && *it.VariationID == *variationID:
			return it
		}
	}
	return nil
}

func findItem(items []Item, id uuid.UUID) *Item {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func containsID(list []uuid.UUID, id uuid.UUID) bool {
	for _, el := range list {
		if el == id {
			return true
		}
	}
	return false
}
