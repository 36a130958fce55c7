package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storelinehq/storeline-api/internal/cache"
	"github.com/storelinehq/storeline-api/internal/common"
)

// ProductStore is the product persistence surface the service needs.
type ProductStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, limit, offset int) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
	GetVariation(ctx context.Context, id uuid.UUID) (*Variation, error)
	ListVariations(ctx context.Context, productID uuid.UUID) ([]Variation, error)
	CreateVariation(ctx context.Context, v *Variation) error
}

// TaxonomyStore is the category/brand/tag persistence surface.
type TaxonomyStore interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	SoftDeleteCategory(ctx context.Context, id uuid.UUID) (bool, error)
	ListBrands(ctx context.Context) ([]Brand, error)
	CreateBrand(ctx context.Context, b *Brand) error
	SoftDeleteBrand(ctx context.Context, id uuid.UUID) (bool, error)
	ListTags(ctx context.Context) ([]Tag, error)
	CreateTag(ctx context.Context, t *Tag) error
	SoftDeleteTag(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service orchestrates catalog reads through the cache and writes through the
// store, invalidating affected keys.
type Service struct {
	Products     ProductStore
	Taxonomy     TaxonomyStore
	Cache        *cache.Cache
	DefaultLimit int
	MaxLimit     int
}

func (s *Service) limits(limit int) int {
	def := s.DefaultLimit
	if def <= 0 {
		def = 20
	}
	max := s.MaxLimit
	if max <= 0 {
		max = 100
	}
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// ListProducts pages products, cache-aside per page.
func (s *Service) ListProducts(ctx context.Context, page, limit int) ([]Product, error) {
	limit = s.limits(limit)
	if page <= 0 {
		page = 1
	}
	key := cache.KeyProductList(fmt.Sprintf("%d:%d", page, limit))
	var cached []Product
	if hit, err := s.Cache.GetJSON(ctx, "product", key, &cached); err == nil && hit {
		return cached, nil
	}
	products, err := s.Products.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	s.Cache.SetJSON(ctx, key, products)
	return products, nil
}

// GetProduct fetches one product, cache-aside by id.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	key := cache.KeyProduct(id.String())
	var cached Product
	if hit, err := s.Cache.GetJSON(ctx, "product", key, &cached); err == nil && hit {
		return &cached, nil
	}
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, common.NotFoundError("product not found")
	}
	s.Cache.SetJSON(ctx, key, p)
	return p, nil
}

// GetProductBySlug fetches one product by slug, uncached; slugs change.
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	p, err := s.Products.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, common.NotFoundError("product not found")
	}
	return p, nil
}

// CreateProduct validates business rules and persists the product.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.TaxStatus == "" {
		p.TaxStatus = TaxStatusTaxable
	}
	if err := s.Products.Create(ctx, p); err != nil {
		return err
	}
	s.invalidateProductLists(ctx)
	return nil
}

// UpdateProduct persists changes and drops stale cache entries.
func (s *Service) UpdateProduct(ctx context.Context, p *Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.Products.Update(ctx, p); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyProduct(p.ID.String()))
	s.invalidateProductLists(ctx)
	return nil
}

// DeleteProduct soft-deletes the product.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ok, err := s.Products.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundError("product not found")
	}
	s.Cache.Invalidate(ctx, cache.KeyProduct(id.String()))
	s.invalidateProductLists(ctx)
	return nil
}

// ListVariations returns a product's variations.
func (s *Service) ListVariations(ctx context.Context, productID uuid.UUID) ([]Variation, error) {
	return s.Products.ListVariations(ctx, productID)
}

// CreateVariation validates and persists a variation under its product.
func (s *Service) CreateVariation(ctx context.Context, v *Variation) error {
	if !v.RegularPrice.IsPositive() {
		return common.ValidationError("regular price must be positive")
	}
	if err := validateSaleWindow(v.SalePrice != nil, v.SalePriceStartAt, v.SalePriceEndAt); err != nil {
		return err
	}
	parent, err := s.Products.Get(ctx, v.ProductID)
	if err != nil {
		return err
	}
	if parent == nil {
		return common.NotFoundError("product not found")
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if err := s.Products.CreateVariation(ctx, v); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyProduct(v.ProductID.String()))
	return nil
}

// ListCategories returns all categories, cache-aside.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var cached []Category
	if hit, err := s.Cache.GetJSON(ctx, "category", cache.KeyCategoryList, &cached); err == nil && hit {
		return cached, nil
	}
	categories, err := s.Taxonomy.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.Cache.SetJSON(ctx, cache.KeyCategoryList, categories)
	return categories, nil
}

// CreateCategory persists a category.
func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return common.ValidationError("category name is required")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = slugify(c.Name)
	}
	if c.ParentID != nil {
		parent, err := s.Taxonomy.GetCategory(ctx, *c.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return common.NotFoundError("parent category not found")
		}
	}
	if err := s.Taxonomy.CreateCategory(ctx, c); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyCategoryList)
	return nil
}

// UpdateCategory persists category changes.
func (s *Service) UpdateCategory(ctx context.Context, c *Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return common.ValidationError("category name is required")
	}
	if err := s.Taxonomy.UpdateCategory(ctx, c); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyCategoryList)
	return nil
}

// DeleteCategory soft-deletes a category.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	ok, err := s.Taxonomy.SoftDeleteCategory(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundError("category not found")
	}
	s.Cache.Invalidate(ctx, cache.KeyCategoryList)
	return nil
}

// ListBrands returns all brands, cache-aside.
func (s *Service) ListBrands(ctx context.Context) ([]Brand, error) {
	var cached []Brand
	if hit, err := s.Cache.GetJSON(ctx, "brand", cache.KeyBrandList, &cached); err == nil && hit {
		return cached, nil
	}
	brands, err := s.Taxonomy.ListBrands(ctx)
	if err != nil {
		return nil, err
	}
	s.Cache.SetJSON(ctx, cache.KeyBrandList, brands)
	return brands, nil
}

// CreateBrand persists a brand.
func (s *Service) CreateBrand(ctx context.Context, b *Brand) error {
	if strings.TrimSpace(b.Name) == "" {
		return common.ValidationError("brand name is required")
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Slug == "" {
		b.Slug = slugify(b.Name)
	}
	if err := s.Taxonomy.CreateBrand(ctx, b); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyBrandList)
	return nil
}

// DeleteBrand soft-deletes a brand.
func (s *Service) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	ok, err := s.Taxonomy.SoftDeleteBrand(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundError("brand not found")
	}
	s.Cache.Invalidate(ctx, cache.KeyBrandList)
	return nil
}

// ListTags returns all tags, cache-aside.
func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	var cached []Tag
	if hit, err := s.Cache.GetJSON(ctx, "tag", cache.KeyTagList, &cached); err == nil && hit {
		return cached, nil
	}
	tags, err := s.Taxonomy.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	s.Cache.SetJSON(ctx, cache.KeyTagList, tags)
	return tags, nil
}

// CreateTag persists a tag.
func (s *Service) CreateTag(ctx context.Context, t *Tag) error {
	if strings.TrimSpace(t.Name) == "" {
		return common.ValidationError("tag name is required")
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Slug == "" {
		t.Slug = slugify(t.Name)
	}
	if err := s.Taxonomy.CreateTag(ctx, t); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cache.KeyTagList)
	return nil
}

// DeleteTag soft-deletes a tag.
func (s *Service) DeleteTag(ctx context.Context, id uuid.UUID) error {
	ok, err := s.Taxonomy.SoftDeleteTag(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundError("tag not found")
	}
	s.Cache.Invalidate(ctx, cache.KeyTagList)
	return nil
}

func (s *Service) invalidateProductLists(ctx context.Context) {
	// paged list keys are TTL-bound; dropping the first page covers the
	// common read path
	s.Cache.Invalidate(ctx, cache.KeyProductList("1:20"))
}

func validateProduct(p *Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return common.ValidationError("product name is required", common.FieldError{Field: "name", Message: "required"})
	}
	if !p.RegularPrice.IsPositive() {
		return common.ValidationError("regular price must be positive", common.FieldError{Field: "regularPrice", Message: "must be positive"})
	}
	if p.SalePrice != nil && p.SalePrice.GreaterThan(p.RegularPrice) {
		return common.ValidationError("sale price cannot exceed regular price", common.FieldError{Field: "salePrice", Message: "exceeds regular price"})
	}
	if p.Slug == "" {
		p.Slug = slugify(p.Name)
	}
	return validateSaleWindow(p.SalePrice != nil, p.SalePriceStartAt, p.SalePriceEndAt)
}

func validateSaleWindow(hasSale bool, start, end *time.Time) error {
	if !hasSale && (start != nil || end != nil) {
		return common.ValidationError("sale window requires a sale price")
	}
	if start != nil && end != nil && end.Before(*start) {
		return common.ValidationError("sale window end precedes start")
	}
	return nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return -1
	}, slug)
}
