package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storelinehq/storeline-api/internal/cart"
)

// CartRepo persists carts. Every mutation goes through a version
// compare-and-swap so concurrent writers cannot silently lose updates; the
// mutating queries accept a DBTX to join the caller's transaction.
type CartRepo struct {
	db DBTX
}

// GetByUser fetches the user's live cart with items and applied coupon ids in
// stored order; nil when the user has no cart yet.
func (r *CartRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.QueryRow(ctx, `
		SELECT id, created_by, version, created_at, updated_at
		FROM carts WHERE created_by = $1 AND deleted_at IS NULL`, userID).
		Scan(&c.ID, &c.CreatedBy, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, cart_id, product_id, variation_id, quantity, created_at, updated_at
		FROM cart_items WHERE cart_id = $1 ORDER BY created_at, id`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.VariationID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	couponRows, err := r.db.Query(ctx, `
		SELECT coupon_id FROM cart_coupons WHERE cart_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart coupons: %w", err)
	}
	defer couponRows.Close()
	for couponRows.Next() {
		var id uuid.UUID
		if err := couponRows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cart coupon: %w", err)
		}
		c.CouponIDs = append(c.CouponIDs, id)
	}
	if err := couponRows.Err(); err != nil {
		return nil, fmt.Errorf("list cart coupons: %w", err)
	}
	return &c, nil
}

// Create makes an empty cart for the user.
func (r *CartRepo) Create(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.QueryRow(ctx, `
		INSERT INTO carts (id, created_by) VALUES ($1, $2)
		RETURNING id, created_by, version, created_at, updated_at`,
		uuid.New(), userID).
		Scan(&c.ID, &c.CreatedBy, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return &c, nil
}

// CASVersion bumps the cart version only when the caller still holds the
// current one. Returns false on a lost race; the caller should reload and
// retry or surface a conflict.
func (r *CartRepo) CASVersion(ctx context.Context, db DBTX, cartID uuid.UUID, expected int64) (bool, error) {
	if db == nil {
		db = r.db
	}
	tag, err := db.Exec(ctx, `
		UPDATE carts SET version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL`,
		cartID, expected)
	if err != nil {
		return false, fmt.Errorf("cas cart version: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertItem adds a line to the cart.
func (r *CartRepo) InsertItem(ctx context.Context, db DBTX, it *cart.Item) error {
	if db == nil {
		db = r.db
	}
	_, err := db.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, variation_id, quantity)
		VALUES ($1, $2, $3, $4, $5)`,
		it.ID, it.CartID, it.ProductID, it.VariationID, it.Quantity)
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

// UpdateItemQuantity sets a line's quantity.
func (r *CartRepo) UpdateItemQuantity(ctx context.Context, db DBTX, itemID uuid.UUID, quantity int) error {
	if db == nil {
		db = r.db
	}
	tag, err := db.Exec(ctx,
		`UPDATE cart_items SET quantity = $2, updated_at = now() WHERE id = $1`, itemID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteItem removes a line.
func (r *CartRepo) DeleteItem(ctx context.Context, db DBTX, itemID uuid.UUID) (bool, error) {
	if db == nil {
		db = r.db
	}
	tag, err := db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClearItems removes every line and detaches all coupons.
func (r *CartRepo) ClearItems(ctx context.Context, db DBTX, cartID uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	if _, err := db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	if _, err := db.Exec(ctx, `DELETE FROM cart_coupons WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart coupons: %w", err)
	}
	return nil
}

// AttachCoupon appends the coupon to the cart's applied list. Re-attaching is
// a no-op.
func (r *CartRepo) AttachCoupon(ctx context.Context, db DBTX, cartID, couponID uuid.UUID) error {
	if db == nil {
		db = r.db
	}
	_, err := db.Exec(ctx, `
		INSERT INTO cart_coupons (cart_id, coupon_id, position)
		SELECT $1, $2, COALESCE(MAX(position), -1) + 1 FROM cart_coupons WHERE cart_id = $1
		ON CONFLICT (cart_id, coupon_id) DO NOTHING`,
		cartID, couponID)
	if err != nil {
		return fmt.Errorf("attach coupon: %w", err)
	}
	return nil
}

// DetachCoupon removes the coupon from the cart's applied list.
func (r *CartRepo) DetachCoupon(ctx context.Context, db DBTX, cartID, couponID uuid.UUID) (bool, error) {
	if db == nil {
		db = r.db
	}
	tag, err := db.Exec(ctx,
		`DELETE FROM cart_coupons WHERE cart_id = $1 AND coupon_id = $2`, cartID, couponID)
	if err != nil {
		return false, fmt.Errorf("detach coupon: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
