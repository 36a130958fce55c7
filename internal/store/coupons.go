package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storelinehq/storeline-api/internal/coupon"
)

// CouponRepo persists coupons. Codes are stored normalized (lowercase) and the
// usage counter only moves through the guarded increment below.
type CouponRepo struct {
	db DBTX
}

const couponColumns = `
	id, code, description, discount_type, discount_value, expiry_date,
	max_usage, usage_count, minimum_spend, maximum_spend, allowed_emails,
	free_shipping, applicable_products, excluded_products,
	applicable_categories, excluded_categories, created_by,
	created_at, updated_at`

func scanCoupon(row pgx.Row) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue, &c.ExpiryDate,
		&c.MaxUsage, &c.UsageCount, &c.MinimumSpend, &c.MaximumSpend, &c.AllowedEmails,
		&c.FreeShipping, &c.ApplicableProducts, &c.ExcludedProducts,
		&c.ApplicableCategories, &c.ExcludedCategories, &c.CreatedBy,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetByCode fetches a live coupon by its normalized code; nil when absent.
func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 AND deleted_at IS NULL`
	c, err := scanCoupon(r.db.QueryRow(ctx, query, coupon.NormalizeCode(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code: %w", err)
	}
	return &c, nil
}

// Get fetches a live coupon by id; nil when absent.
func (r *CouponRepo) Get(ctx context.Context, id uuid.UUID) (*coupon.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1 AND deleted_at IS NULL`
	c, err := scanCoupon(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return &c, nil
}

// GetMany fetches live coupons for the given ids, in the order of ids, keeping
// only those found.
func (r *CouponRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]coupon.Coupon, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = ANY($1) AND deleted_at IS NULL`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get coupons: %w", err)
	}
	defer rows.Close()
	byID := make(map[uuid.UUID]coupon.Coupon, len(ids))
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get coupons: %w", err)
	}
	out := make([]coupon.Coupon, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// List pages live coupons in stored order.
func (r *CouponRepo) List(ctx context.Context, limit, offset int) ([]coupon.Coupon, error) {
	query := `SELECT ` + couponColumns + `
		FROM coupons WHERE deleted_at IS NULL
		ORDER BY created_at, id LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()
	var out []coupon.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a coupon. The code is normalized before storage.
func (r *CouponRepo) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO coupons (
			id, code, description, discount_type, discount_value, expiry_date,
			max_usage, minimum_spend, maximum_spend, allowed_emails,
			free_shipping, applicable_products, excluded_products,
			applicable_categories, excluded_categories, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		c.ID, coupon.NormalizeCode(c.Code), c.Description, c.DiscountType, c.DiscountValue, c.ExpiryDate,
		c.MaxUsage, c.MinimumSpend, c.MaximumSpend, c.AllowedEmails,
		c.FreeShipping, c.ApplicableProducts, c.ExcludedProducts,
		c.ApplicableCategories, c.ExcludedCategories, c.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

// Update rewrites the coupon's mutable fields. Usage count is excluded on
// purpose; it only moves through IncrementUsage.
func (r *CouponRepo) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE coupons SET
			code = $2, description = $3, discount_type = $4, discount_value = $5,
			expiry_date = $6, max_usage = $7, minimum_spend = $8, maximum_spend = $9,
			allowed_emails = $10, free_shipping = $11, applicable_products = $12,
			excluded_products = $13, applicable_categories = $14,
			excluded_categories = $15, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		c.ID, coupon.NormalizeCode(c.Code), c.Description, c.DiscountType, c.DiscountValue,
		c.ExpiryDate, c.MaxUsage, c.MinimumSpend, c.MaximumSpend,
		c.AllowedEmails, c.FreeShipping, c.ApplicableProducts,
		c.ExcludedProducts, c.ApplicableCategories, c.ExcludedCategories,
	)
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SoftDelete marks the coupon deleted.
func (r *CouponRepo) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE coupons SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete coupon: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementUsage bumps the usage counter only while it is below max_usage.
// The guard lives in the UPDATE itself so concurrent applies cannot race past
// the cap. Returns false when the cap is already reached.
func (r *CouponRepo) IncrementUsage(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	if db == nil {
		db = r.db
	}
	tag, err := db.Exec(ctx, `
		UPDATE coupons SET usage_count = usage_count + 1, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		  AND (max_usage IS NULL OR usage_count < max_usage)`, id)
	if err != nil {
		return false, fmt.Errorf("increment coupon usage: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
