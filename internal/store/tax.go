package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storelinehq/storeline-api/internal/tax"
)

// TaxRepo persists tax classes, their rates and the singleton options row.
type TaxRepo struct {
	db DBTX
}

const rateColumns = `
	id, tax_class_id, country, state, city, postcode, rate, priority,
	is_compound, applies_to_shipping, created_at, updated_at`

func scanRate(row pgx.Row) (tax.Rate, error) {
	var rt tax.Rate
	err := row.Scan(
		&rt.ID, &rt.TaxClassID, &rt.Country, &rt.State, &rt.City, &rt.Postcode,
		&rt.Rate, &rt.Priority, &rt.IsCompound, &rt.AppliesToShipping,
		&rt.CreatedAt, &rt.UpdatedAt,
	)
	return rt, err
}

// GetClass fetches a tax class with its rates in stored order; nil when absent.
func (r *TaxRepo) GetClass(ctx context.Context, id uuid.UUID) (*tax.Class, error) {
	var c tax.Class
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM tax_classes WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tax class: %w", err)
	}
	rates, err := r.ListRates(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Rates = rates
	return &c, nil
}

// ListClasses returns all live tax classes with their rates.
func (r *TaxRepo) ListClasses(ctx context.Context) ([]tax.Class, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM tax_classes WHERE deleted_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list tax classes: %w", err)
	}
	defer rows.Close()
	var classes []tax.Class
	for rows.Next() {
		var c tax.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tax class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tax classes: %w", err)
	}
	for i := range classes {
		rates, err := r.ListRates(ctx, classes[i].ID)
		if err != nil {
			return nil, err
		}
		classes[i].Rates = rates
	}
	return classes, nil
}

// ListRates returns a class's live rates in stored order. Stored order is the
// tie-break for equal priorities, so ordering here is part of the contract.
func (r *TaxRepo) ListRates(ctx context.Context, classID uuid.UUID) ([]tax.Rate, error) {
	query := `SELECT ` + rateColumns + `
		FROM tax_rates
		WHERE tax_class_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("list tax rates: %w", err)
	}
	defer rows.Close()
	var out []tax.Rate
	for rows.Next() {
		rt, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tax rate: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// CreateClass inserts a tax class.
func (r *TaxRepo) CreateClass(ctx context.Context, c *tax.Class) error {
	_, err := r.db.Exec(ctx, `INSERT INTO tax_classes (id, name) VALUES ($1, $2)`, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("create tax class: %w", err)
	}
	return nil
}

// UpdateClass renames a tax class.
func (r *TaxRepo) UpdateClass(ctx context.Context, c *tax.Class) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tax_classes SET name = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("update tax class: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SoftDeleteClass marks the class and its rates deleted.
func (r *TaxRepo) SoftDeleteClass(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE tax_classes SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete tax class: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := r.db.Exec(ctx,
		`UPDATE tax_rates SET deleted_at = now(), updated_at = now() WHERE tax_class_id = $1 AND deleted_at IS NULL`, id); err != nil {
		return false, fmt.Errorf("delete tax rates: %w", err)
	}
	return true, nil
}

// CreateRate inserts a rate into a class.
func (r *TaxRepo) CreateRate(ctx context.Context, rt *tax.Rate) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tax_rates (
			id, tax_class_id, country, state, city, postcode, rate, priority,
			is_compound, applies_to_shipping
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rt.ID, rt.TaxClassID, rt.Country, rt.State, rt.City, rt.Postcode,
		rt.Rate, rt.Priority, rt.IsCompound, rt.AppliesToShipping,
	)
	if err != nil {
		return fmt.Errorf("create tax rate: %w", err)
	}
	return nil
}

// UpdateRate rewrites a rate row.
func (r *TaxRepo) UpdateRate(ctx context.Context, rt *tax.Rate) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE tax_rates SET
			country = $2, state = $3, city = $4, postcode = $5, rate = $6,
			priority = $7, is_compound = $8, applies_to_shipping = $9, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		rt.ID, rt.Country, rt.State, rt.City, rt.Postcode, rt.Rate,
		rt.Priority, rt.IsCompound, rt.AppliesToShipping,
	)
	if err != nil {
		return fmt.Errorf("update tax rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SoftDeleteRate marks a rate deleted.
func (r *TaxRepo) SoftDeleteRate(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE tax_rates SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete tax rate: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetOptions fetches the singleton tax options row; nil when not configured.
func (r *TaxRepo) GetOptions(ctx context.Context) (*tax.Options, error) {
	var o tax.Options
	err := r.db.QueryRow(ctx, `
		SELECT id, prices_entered_with_tax, calculate_tax_based_on, shipping_tax_class_id, created_at, updated_at
		FROM tax_options LIMIT 1`).
		Scan(&o.ID, &o.PricesEnteredWithTax, &o.CalculateTaxBasedOn, &o.ShippingTaxClassID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tax options: %w", err)
	}
	return &o, nil
}

// UpsertOptions writes the singleton tax options row. A fixed surrogate key
// keeps the table at one row.
func (r *TaxRepo) UpsertOptions(ctx context.Context, o *tax.Options) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tax_options (id, prices_entered_with_tax, calculate_tax_based_on, shipping_tax_class_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			prices_entered_with_tax = EXCLUDED.prices_entered_with_tax,
			calculate_tax_based_on = EXCLUDED.calculate_tax_based_on,
			shipping_tax_class_id = EXCLUDED.shipping_tax_class_id,
			updated_at = now()`,
		o.ID, o.PricesEnteredWithTax, o.CalculateTaxBasedOn, o.ShippingTaxClassID,
	)
	if err != nil {
		return fmt.Errorf("upsert tax options: %w", err)
	}
	return nil
}
