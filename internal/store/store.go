// Package store is the hand-written pgx data access layer. Every read filters
// soft-deleted rows; writes that participate in the apply-coupon transaction
// accept an explicit DBTX so they run against the caller's tx.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories over one pool.
type Store struct {
	Pool      *pgxpool.Pool
	Products  *ProductRepo
	Taxonomy  *TaxonomyRepo
	Coupons   *CouponRepo
	Tax       *TaxRepo
	Shipping  *ShippingRepo
	Carts     *CartRepo
	Wishlists *WishlistRepo
	Events    *EventRepo
	Audit     *AuditRepo
}

// New wires the repositories over the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Pool:      pool,
		Products:  &ProductRepo{db: pool},
		Taxonomy:  &TaxonomyRepo{db: pool},
		Coupons:   &CouponRepo{db: pool},
		Tax:       &TaxRepo{db: pool},
		Shipping:  &ShippingRepo{db: pool},
		Carts:     &CartRepo{db: pool},
		Wishlists: &WishlistRepo{db: pool},
		Events:    &EventRepo{db: pool},
		Audit:     &AuditRepo{db: pool},
	}
}

// WithTx runs fn inside a transaction, committing on nil error and rolling
// back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
