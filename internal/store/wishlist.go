package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WishlistEntry is one saved product for a user.
type WishlistEntry struct {
	UserID    uuid.UUID `json:"userId"`
	ProductID uuid.UUID `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

// WishlistRepo persists per-user saved products.
type WishlistRepo struct {
	db DBTX
}

// List returns the user's saved product ids, most recent first.
func (r *WishlistRepo) List(ctx context.Context, userID uuid.UUID) ([]WishlistEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, product_id, created_at
		FROM wishlist_items WHERE user_id = $1
		ORDER BY created_at DESC, product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()
	var out []WishlistEntry
	for rows.Next() {
		var e WishlistEntry
		if err := rows.Scan(&e.UserID, &e.ProductID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Add saves a product for the user. Saving twice is a no-op.
func (r *WishlistRepo) Add(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING`, userID, productID)
	if err != nil {
		return fmt.Errorf("add wishlist entry: %w", err)
	}
	return nil
}

// Remove drops a saved product. Reports whether an entry existed.
func (r *WishlistRepo) Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("remove wishlist entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Contains reports whether the user saved the product.
func (r *WishlistRepo) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2)`,
		userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check wishlist entry: %w", err)
	}
	return exists, nil
}
