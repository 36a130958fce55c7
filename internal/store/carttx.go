package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storelinehq/storeline-api/internal/cart"
)

// cartMutation binds the cart and coupon repos to one open transaction,
// satisfying the cart service's mutation surface.
type cartMutation struct {
	tx      pgx.Tx
	carts   *CartRepo
	coupons *CouponRepo
}

// CartTx runs fn against a transaction-scoped cart mutation. The transaction
// commits only when fn returns nil.
func (s *Store) CartTx(ctx context.Context, fn func(m cart.Mutation) error) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&cartMutation{tx: tx, carts: s.Carts, coupons: s.Coupons})
	})
}

func (m *cartMutation) CASVersion(ctx context.Context, cartID uuid.UUID, expected int64) (bool, error) {
	return m.carts.CASVersion(ctx, m.tx, cartID, expected)
}

func (m *cartMutation) InsertItem(ctx context.Context, it *cart.Item) error {
	return m.carts.InsertItem(ctx, m.tx, it)
}

func (m *cartMutation) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return m.carts.UpdateItemQuantity(ctx, m.tx, itemID, quantity)
}

func (m *cartMutation) DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	return m.carts.DeleteItem(ctx, m.tx, itemID)
}

func (m *cartMutation) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return m.carts.ClearItems(ctx, m.tx, cartID)
}

func (m *cartMutation) AttachCoupon(ctx context.Context, cartID, couponID uuid.UUID) error {
	return m.carts.AttachCoupon(ctx, m.tx, cartID, couponID)
}

func (m *cartMutation) DetachCoupon(ctx context.Context, cartID, couponID uuid.UUID) (bool, error) {
	return m.carts.DetachCoupon(ctx, m.tx, cartID, couponID)
}

func (m *cartMutation) IncrementCouponUsage(ctx context.Context, couponID uuid.UUID) (bool, error) {
	return m.coupons.IncrementUsage(ctx, m.tx, couponID)
}
