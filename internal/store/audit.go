package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-api/internal/audit"
)

// AuditRepo persists the admin action trail.
type AuditRepo struct {
	db DBTX
}

// Insert records one admin action.
func (r *AuditRepo) Insert(ctx context.Context, e *audit.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO audit_log (id, actor_id, actor_role, method, path, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		e.ID, e.ActorID, e.ActorRole, e.Method, e.Path, e.Status).
		Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns the trail newest first.
func (r *AuditRepo) List(ctx context.Context, limit, offset int) ([]audit.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, actor_id, actor_role, method, path, status, created_at
		FROM audit_log
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.Method, &e.Path, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
