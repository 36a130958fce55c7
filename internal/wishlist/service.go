// Package wishlist lets buyers save products for later.
package wishlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-api/internal/catalog"
	"github.com/storelinehq/storeline-api/internal/common"
	"github.com/storelinehq/storeline-api/internal/store"
)

// Store is the wishlist persistence surface.
type Store interface {
	List(ctx context.Context, userID uuid.UUID) ([]store.WishlistEntry, error)
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

// ProductSource resolves saved products for the listing.
type ProductSource interface {
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

// Service owns per-user wishlists.
type Service struct {
	Wishlists Store
	Products  ProductSource
}

// Entry is a saved product with its catalog detail, when the product still
// exists.
type Entry struct {
	ProductID uuid.UUID        `json:"productId"`
	Product   *catalog.Product `json:"product,omitempty"`
}

// List returns the user's saved products, most recent first. Products removed
// from the catalog are kept as bare ids.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	entries, err := s.Wishlists.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []Entry{}, nil
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ProductID
	}
	products, err := s.Products.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{ProductID: e.ProductID, Product: products[e.ProductID]}
	}
	return out, nil
}

// Add saves a product for the user. Saving twice is a no-op.
func (s *Service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return common.NotFoundError("product not found")
	}
	return s.Wishlists.Add(ctx, userID, productID)
}

// Remove drops a saved product.
func (s *Service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	ok, err := s.Wishlists.Remove(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundError("product is not on the wishlist")
	}
	return nil
}

// Contains reports whether the user saved the product.
func (s *Service) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	return s.Wishlists.Contains(ctx, userID, productID)
}
