package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storelinehq/storeline-api/internal/shipping"
)

// ShippingRepo persists shipping zones, methods and classes. Zone regions and
// per-class cost overrides live in jsonb columns; method order within a zone
// is the position column, which is the selection contract.
type ShippingRepo struct {
	db DBTX
}

// ListZones returns all live zones with their methods, zones in stored order.
func (r *ShippingRepo) ListZones(ctx context.Context) ([]shipping.Zone, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, regions, zip_codes, created_by, created_at, updated_at
		FROM shipping_zones
		WHERE deleted_at IS NULL
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list shipping zones: %w", err)
	}
	defer rows.Close()
	var zones []shipping.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shipping zones: %w", err)
	}
	for i := range zones {
		methods, err := r.ListMethods(ctx, zones[i].ID)
		if err != nil {
			return nil, err
		}
		zones[i].Methods = methods
	}
	return zones, nil
}

// GetZone fetches one zone with its methods; nil when absent.
func (r *ShippingRepo) GetZone(ctx context.Context, id uuid.UUID) (*shipping.Zone, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, regions, zip_codes, created_by, created_at, updated_at
		FROM shipping_zones WHERE id = $1 AND deleted_at IS NULL`, id)
	z, err := scanZone(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	methods, err := r.ListMethods(ctx, z.ID)
	if err != nil {
		return nil, err
	}
	z.Methods = methods
	return &z, nil
}

func scanZone(row pgx.Row) (shipping.Zone, error) {
	var z shipping.Zone
	var regionsJSON []byte
	err := row.Scan(&z.ID, &z.Name, &regionsJSON, &z.ZipCodes, &z.CreatedBy, &z.CreatedAt, &z.UpdatedAt)
	if err != nil {
		return shipping.Zone{}, fmt.Errorf("scan shipping zone: %w", err)
	}
	if len(regionsJSON) > 0 {
		if err := json.Unmarshal(regionsJSON, &z.Regions); err != nil {
			return shipping.Zone{}, fmt.Errorf("decode zone regions for %s: %w", z.ID, err)
		}
	}
	return z, nil
}

// CreateZone inserts a zone.
func (r *ShippingRepo) CreateZone(ctx context.Context, z *shipping.Zone) error {
	regionsJSON, err := json.Marshal(z.Regions)
	if err != nil {
		return fmt.Errorf("encode zone regions: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO shipping_zones (id, name, regions, zip_codes, created_by)
		VALUES ($1, $2, $3, $4, $5)`,
		z.ID, z.Name, regionsJSON, z.ZipCodes, z.CreatedBy)
	if err != nil {
		return fmt.Errorf("create shipping zone: %w", err)
	}
	return nil
}

// UpdateZone rewrites a zone's matchers and name.
func (r *ShippingRepo) UpdateZone(ctx context.Context, z *shipping.Zone) error {
	regionsJSON, err := json.Marshal(z.Regions)
	if err != nil {
		return fmt.Errorf("encode zone regions: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE shipping_zones SET name = $2, regions = $3, zip_codes = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		z.ID, z.Name, regionsJSON, z.ZipCodes)
	if err != nil {
		return fmt.Errorf("update shipping zone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SoftDeleteZone marks the zone and its methods deleted.
func (r *ShippingRepo) SoftDeleteZone(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE shipping_zones SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete shipping zone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := r.db.Exec(ctx,
		`UPDATE shipping_methods SET deleted_at = now(), updated_at = now() WHERE zone_id = $1 AND deleted_at IS NULL`, id); err != nil {
		return false, fmt.Errorf("delete zone methods: %w", err)
	}
	return true, nil
}

// ListMethods returns a zone's live methods ordered by position.
func (r *ShippingRepo) ListMethods(ctx context.Context, zoneID uuid.UUID) ([]shipping.Method, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, zone_id, kind, title, status, position, taxable, cost,
		       class_costs, free_condition, minimum_order_amount, created_at, updated_at
		FROM shipping_methods
		WHERE zone_id = $1 AND deleted_at IS NULL
		ORDER BY position, created_at, id`, zoneID)
	if err != nil {
		return nil, fmt.Errorf("list shipping methods: %w", err)
	}
	defer rows.Close()
	var out []shipping.Method
	for rows.Next() {
		var m shipping.Method
		var classCostsJSON []byte
		err := rows.Scan(
			&m.ID, &m.ZoneID, &m.Kind, &m.Title, &m.Status, &m.Position, &m.Taxable, &m.Cost,
			&classCostsJSON, &m.FreeCondition, &m.MinimumOrderAmount, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan shipping method: %w", err)
		}
		if len(classCostsJSON) > 0 {
			if err := json.Unmarshal(classCostsJSON, &m.ClassCosts); err != nil {
				return nil, fmt.Errorf("decode class costs for %s: %w", m.ID, err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateMethod inserts a method into a zone.
func (r *ShippingRepo) CreateMethod(ctx context.Context, m *shipping.Method) error {
	classCostsJSON, err := json.Marshal(m.ClassCosts)
	if err != nil {
		return fmt.Errorf("encode class costs: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO shipping_methods (
			id, zone_id, kind, title, status, position, taxable, cost,
			class_costs, free_condition, minimum_order_amount
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		m.ID, m.ZoneID, m.Kind, m.Title, m.Status, m.Position, m.Taxable, m.Cost,
		classCostsJSON, m.FreeCondition, m.MinimumOrderAmount,
	)
	if err != nil {
		return fmt.Errorf("create shipping method: %w", err)
	}
	return nil
}

// UpdateMethod rewrites a method row.
func (r *ShippingRepo) UpdateMethod(ctx context.Context, m *shipping.Method) error {
	classCostsJSON, err := json.Marshal(m.ClassCosts)
	if err != nil {
		return fmt.Errorf("encode class costs: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE shipping_methods SET
			kind = $2, title = $3, status = $4, position = $5, taxable = $6,
			cost = $7, class_costs = $8, free_condition = $9,
			minimum_order_amount = $10, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		m.ID, m.Kind, m.Title, m.Status, m.Position, m.Taxable,
		m.Cost, classCostsJSON, m.FreeCondition, m.MinimumOrderAmount,
	)
	if err != nil {
		return fmt.Errorf("update shipping method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SoftDeleteMethod marks a method deleted.
func (r *ShippingRepo) SoftDeleteMethod(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE shipping_methods SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete shipping method: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListClasses returns all live shipping classes.
func (r *ShippingRepo) ListClasses(ctx context.Context) ([]shipping.Class, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, slug, description, created_at, updated_at
		FROM shipping_classes WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list shipping classes: %w", err)
	}
	defer rows.Close()
	var out []shipping.Class
	for rows.Next() {
		var c shipping.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan shipping class: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateClass inserts a shipping class.
func (r *ShippingRepo) CreateClass(ctx context.Context, c *shipping.Class) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO shipping_classes (id, name, slug, description) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Slug, c.Description)
	if err != nil {
		return fmt.Errorf("create shipping class: %w", err)
	}
	return nil
}

// SoftDeleteClass marks a shipping class deleted.
func (r *ShippingRepo) SoftDeleteClass(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE shipping_classes SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete shipping class: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
