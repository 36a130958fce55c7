package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storelinehq/storeline-api/internal/catalog"
)

// TaxonomyRepo persists categories, brands and tags.
type TaxonomyRepo struct {
	db DBTX
}

// ListCategories returns all live categories in stored order.
func (r *TaxonomyRepo) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, slug, parent_id, created_at, updated_at
		FROM categories
		WHERE deleted_at IS NULL
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory fetches one category; nil when absent.
func (r *TaxonomyRepo) GetCategory(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var c catalog.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, name, slug, parent_id, created_at, updated_at
		FROM categories WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// CreateCategory inserts a category.
func (r *TaxonomyRepo) CreateCategory(ctx context.Context, c *catalog.Category) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO categories (id, name, slug, parent_id) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Slug, c.ParentID)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// UpdateCategory rewrites a category row.
func (r *TaxonomyRepo) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE categories SET name = $2, slug = $3, parent_id = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		c.ID, c.Name, c.Slug, c.ParentID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SoftDeleteCategory marks the category deleted.
func (r *TaxonomyRepo) SoftDeleteCategory(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE categories SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListBrands returns all live brands.
func (r *TaxonomyRepo) ListBrands(ctx context.Context) ([]catalog.Brand, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, slug, created_at, updated_at
		FROM brands WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()
	var out []catalog.Brand
	for rows.Next() {
		var b catalog.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBrand inserts a brand.
func (r *TaxonomyRepo) CreateBrand(ctx context.Context, b *catalog.Brand) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO brands (id, name, slug) VALUES ($1, $2, $3)`, b.ID, b.Name, b.Slug)
	if err != nil {
		return fmt.Errorf("create brand: %w", err)
	}
	return nil
}

// SoftDeleteBrand marks the brand deleted.
func (r *TaxonomyRepo) SoftDeleteBrand(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE brands SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete brand: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListTags returns all live tags.
func (r *TaxonomyRepo) ListTags(ctx context.Context) ([]catalog.Tag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, slug, created_at, updated_at
		FROM tags WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	var out []catalog.Tag
	for rows.Next() {
		var t catalog.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTag inserts a tag.
func (r *TaxonomyRepo) CreateTag(ctx context.Context, t *catalog.Tag) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tags (id, name, slug) VALUES ($1, $2, $3)`, t.ID, t.Name, t.Slug)
	if err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// SoftDeleteTag marks the tag deleted.
func (r *TaxonomyRepo) SoftDeleteTag(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE tags SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete tag: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
