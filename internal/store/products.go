package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storelinehq/storeline-api/internal/catalog"
)

// ProductRepo persists products and their variations.
type ProductRepo struct {
	db DBTX
}

const productColumns = `
	p.id, p.name, p.slug, p.description, p.regular_price, p.sale_price,
	p.sale_price_start_at, p.sale_price_end_at, p.tier_pricing, p.tax_status,
	p.tax_class_id, p.shipping_class_id, p.brand_id, p.created_by,
	p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	var tierJSON []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.RegularPrice, &p.SalePrice,
		&p.SalePriceStartAt, &p.SalePriceEndAt, &tierJSON, &p.TaxStatus,
		&p.TaxClassID, &p.ShippingClassID, &p.BrandID, &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return catalog.Product{}, err
	}
	if len(tierJSON) > 0 {
		var tp catalog.TierPricing
		if err := json.Unmarshal(tierJSON, &tp); err != nil {
			return catalog.Product{}, fmt.Errorf("decode tier pricing for %s: %w", p.ID, err)
		}
		p.TierPricing = &tp
	}
	return p, nil
}

// Get fetches a product with its category and tag memberships. Missing or
// soft-deleted products return nil.
func (r *ProductRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1 AND p.deleted_at IS NULL`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if err := r.loadMemberships(ctx, map[uuid.UUID]*catalog.Product{p.ID: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetBySlug fetches a product by slug, memberships included.
func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.slug = $1 AND p.deleted_at IS NULL`
	p, err := scanProduct(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	if err := r.loadMemberships(ctx, map[uuid.UUID]*catalog.Product{p.ID: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetMany fetches the given products keyed by id. Absent ids are simply
// missing from the result.
func (r *ProductRepo) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	out := make(map[uuid.UUID]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1) AND p.deleted_at IS NULL`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	if err := r.loadMemberships(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// List pages products in stored order.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]catalog.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.deleted_at IS NULL
		ORDER BY p.created_at, p.id
		LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	byID := map[uuid.UUID]*catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	if err := r.loadMemberships(ctx, byID); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepo) loadMemberships(ctx context.Context, products map[uuid.UUID]*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}

	rows, err := r.db.Query(ctx,
		`SELECT product_id, category_id FROM product_categories WHERE product_id = ANY($1) ORDER BY position, category_id`, ids)
	if err != nil {
		return fmt.Errorf("load product categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID, categoryID uuid.UUID
		if err := rows.Scan(&productID, &categoryID); err != nil {
			return fmt.Errorf("scan product category: %w", err)
		}
		if p := products[productID]; p != nil {
			p.CategoryIDs = append(p.CategoryIDs, categoryID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load product categories: %w", err)
	}

	tagRows, err := r.db.Query(ctx,
		`SELECT product_id, tag_id FROM product_tags WHERE product_id = ANY($1) ORDER BY tag_id`, ids)
	if err != nil {
		return fmt.Errorf("load product tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var productID, tagID uuid.UUID
		if err := tagRows.Scan(&productID, &tagID); err != nil {
			return fmt.Errorf("scan product tag: %w", err)
		}
		if p := products[productID]; p != nil {
			p.TagIDs = append(p.TagIDs, tagID)
		}
	}
	return tagRows.Err()
}

// Create inserts the product and its memberships.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	tierJSON, err := marshalTierPricing(p.TierPricing)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO products (
			id, name, slug, description, regular_price, sale_price,
			sale_price_start_at, sale_price_end_at, tier_pricing, tax_status,
			tax_class_id, shipping_class_id, brand_id, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		p.ID, p.Name, p.Slug, p.Description, p.RegularPrice, p.SalePrice,
		p.SalePriceStartAt, p.SalePriceEndAt, tierJSON, p.TaxStatus,
		p.TaxClassID, p.ShippingClassID, p.BrandID, p.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return r.replaceMemberships(ctx, p.ID, p.CategoryIDs, p.TagIDs)
}

// Update rewrites the product row and its memberships.
func (r *ProductRepo) Update(ctx context.Context, p *catalog.Product) error {
	tierJSON, err := marshalTierPricing(p.TierPricing)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE products SET
			name = $2, slug = $3, description = $4, regular_price = $5,
			sale_price = $6, sale_price_start_at = $7, sale_price_end_at = $8,
			tier_pricing = $9, tax_status = $10, tax_class_id = $11,
			shipping_class_id = $12, brand_id = $13, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Slug, p.Description, p.RegularPrice,
		p.SalePrice, p.SalePriceStartAt, p.SalePriceEndAt,
		tierJSON, p.TaxStatus, p.TaxClassID,
		p.ShippingClassID, p.BrandID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return r.replaceMemberships(ctx, p.ID, p.CategoryIDs, p.TagIDs)
}

// SoftDelete marks the product deleted. Reports whether a row was affected.
func (r *ProductRepo) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ProductRepo) replaceMemberships(ctx context.Context, productID uuid.UUID, categoryIDs, tagIDs []uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear product categories: %w", err)
	}
	for i, categoryID := range categoryIDs {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO product_categories (product_id, category_id, position) VALUES ($1, $2, $3)`,
			productID, categoryID, i); err != nil {
			return fmt.Errorf("attach category: %w", err)
		}
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM product_tags WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear product tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2)`, productID, tagID); err != nil {
			return fmt.Errorf("attach tag: %w", err)
		}
	}
	return nil
}

const variationColumns = `
	v.id, v.product_id, v.attributes, v.regular_price, v.sale_price,
	v.sale_price_start_at, v.sale_price_end_at, v.tier_pricing,
	v.created_at, v.updated_at`

func scanVariation(row pgx.Row) (catalog.Variation, error) {
	var v catalog.Variation
	var attrJSON, tierJSON []byte
	err := row.Scan(
		&v.ID, &v.ProductID, &attrJSON, &v.RegularPrice, &v.SalePrice,
		&v.SalePriceStartAt, &v.SalePriceEndAt, &tierJSON,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return catalog.Variation{}, err
	}
	if len(attrJSON) > 0 {
		if err := json.Unmarshal(attrJSON, &v.Attributes); err != nil {
			return catalog.Variation{}, fmt.Errorf("decode variation attributes for %s: %w", v.ID, err)
		}
	}
	if len(tierJSON) > 0 {
		var tp catalog.TierPricing
		if err := json.Unmarshal(tierJSON, &tp); err != nil {
			return catalog.Variation{}, fmt.Errorf("decode tier pricing for %s: %w", v.ID, err)
		}
		v.TierPricing = &tp
	}
	return v, nil
}

// GetVariation fetches one variation; nil when absent.
func (r *ProductRepo) GetVariation(ctx context.Context, id uuid.UUID) (*catalog.Variation, error) {
	query := `SELECT ` + variationColumns + ` FROM product_variations v WHERE v.id = $1 AND v.deleted_at IS NULL`
	v, err := scanVariation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variation: %w", err)
	}
	return &v, nil
}

// GetVariations fetches the given variations keyed by id.
func (r *ProductRepo) GetVariations(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Variation, error) {
	out := make(map[uuid.UUID]*catalog.Variation, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + variationColumns + ` FROM product_variations v WHERE v.id = ANY($1) AND v.deleted_at IS NULL`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get variations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		out[v.ID] = &v
	}
	return out, rows.Err()
}

// ListVariations returns a product's variations in stored order.
func (r *ProductRepo) ListVariations(ctx context.Context, productID uuid.UUID) ([]catalog.Variation, error) {
	query := `SELECT ` + variationColumns + `
		FROM product_variations v
		WHERE v.product_id = $1 AND v.deleted_at IS NULL
		ORDER BY v.created_at, v.id`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	defer rows.Close()
	var out []catalog.Variation
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateVariation inserts a variation.
func (r *ProductRepo) CreateVariation(ctx context.Context, v *catalog.Variation) error {
	attrJSON, err := json.Marshal(v.Attributes)
	if err != nil {
		return fmt.Errorf("encode variation attributes: %w", err)
	}
	tierJSON, err := marshalTierPricing(v.TierPricing)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO product_variations (
			id, product_id, attributes, regular_price, sale_price,
			sale_price_start_at, sale_price_end_at, tier_pricing
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.ProductID, attrJSON, v.RegularPrice, v.SalePrice,
		v.SalePriceStartAt, v.SalePriceEndAt, tierJSON,
	)
	if err != nil {
		return fmt.Errorf("create variation: %w", err)
	}
	return nil
}

func marshalTierPricing(tp *catalog.TierPricing) ([]byte, error) {
	if tp == nil {
		return nil, nil
	}
	data, err := json.Marshal(tp)
	if err != nil {
		return nil, fmt.Errorf("encode tier pricing: %w", err)
	}
	return data, nil
}
