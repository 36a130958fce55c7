package catalog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-api/internal/common"
)

// ViewRecorder counts product detail views. A nil recorder disables counting.
type ViewRecorder interface {
	RecordView(ctx context.Context, productID uuid.UUID)
}

// Handler exposes the catalog endpoints: public reads and admin CRUD.
type Handler struct {
	Service    *Service
	Views      ViewRecorder
	Production bool
}

// Routes mounts the public read surface.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Get("/products/{id}/variations", h.ListVariations)
	r.Get("/categories", h.ListCategories)
	r.Get("/brands", h.ListBrands)
	r.Get("/tags", h.ListTags)
}

// AdminRoutes mounts the write surface; callers wrap it with auth middleware.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/products", h.CreateProduct)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Delete("/products/{id}", h.DeleteProduct)
	r.Post("/products/{id}/variations", h.CreateVariation)
	r.Post("/categories", h.CreateCategory)
	r.Put("/categories/{id}", h.UpdateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)
	r.Post("/brands", h.CreateBrand)
	r.Delete("/brands/{id}", h.DeleteBrand)
	r.Post("/tags", h.CreateTag)
	r.Delete("/tags/{id}", h.DeleteTag)
}

// ListProducts handles GET /products with page/limit query parameters.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.Service.DefaultLimit)
	products, err := h.Service.ListProducts(r.Context(), page, limit)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{
		"products":   products,
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: len(products)},
	})
}

// GetProduct handles GET /products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	p, err := h.Service.GetProduct(r.Context(), id)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if h.Views != nil {
		h.Views.RecordView(r.Context(), p.ID)
	}
	common.OK(w, "", map[string]any{"product": p})
}

// ListVariations handles GET /products/{id}/variations.
func (h *Handler) ListVariations(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	variations, err := h.Service.ListVariations(r.Context(), id)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"variations": variations})
}

type productPayload struct {
	Name             string           `json:"name" validate:"required"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	RegularPrice     decimal.Decimal  `json:"regularPrice" validate:"required"`
	SalePrice        *decimal.Decimal `json:"salePrice"`
	SalePriceStartAt *time.Time       `json:"salePriceStartAt"`
	SalePriceEndAt   *time.Time       `json:"salePriceEndAt"`
	TierPricing      *TierPricing     `json:"tierPricingInfo"`
	TaxStatus        TaxStatus        `json:"taxStatus"`
	TaxClassID       *uuid.UUID       `json:"taxClassId"`
	ShippingClassID  *uuid.UUID       `json:"shippingClassId"`
	BrandID          *uuid.UUID       `json:"brandId"`
	CategoryIDs      []uuid.UUID      `json:"categoryIds"`
	TagIDs           []uuid.UUID      `json:"tagIds"`
}

func (p productPayload) toProduct(createdBy uuid.UUID) *Product {
	return &Product{
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		RegularPrice:     p.RegularPrice,
		SalePrice:        p.SalePrice,
		SalePriceStartAt: p.SalePriceStartAt,
		SalePriceEndAt:   p.SalePriceEndAt,
		TierPricing:      p.TierPricing,
		TaxStatus:        p.TaxStatus,
		TaxClassID:       p.TaxClassID,
		ShippingClassID:  p.ShippingClassID,
		BrandID:          p.BrandID,
		CategoryIDs:      p.CategoryIDs,
		TagIDs:           p.TagIDs,
		CreatedBy:        createdBy,
	}
}

// CreateProduct handles POST /products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	userID, _ := common.UserID(r.Context())
	createdBy, _ := uuid.Parse(userID)
	p := payload.toProduct(createdBy)
	if err := h.Service.CreateProduct(r.Context(), p); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "product created", map[string]any{"product": p})
}

// UpdateProduct handles PUT /products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload productPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	p := payload.toProduct(uuid.Nil)
	p.ID = id
	if err := h.Service.UpdateProduct(r.Context(), p); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "product updated", map[string]any{"product": p})
}

// DeleteProduct handles DELETE /products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if err := h.Service.DeleteProduct(r.Context(), id); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "product deleted", nil)
}

type variationPayload struct {
	Attributes       map[string]string `json:"attributes"`
	RegularPrice     decimal.Decimal   `json:"regularPrice" validate:"required"`
	SalePrice        *decimal.Decimal  `json:"salePrice"`
	SalePriceStartAt *time.Time        `json:"salePriceStartAt"`
	SalePriceEndAt   *time.Time        `json:"salePriceEndAt"`
	TierPricing      *TierPricing      `json:"tierPricingInfo"`
}

// CreateVariation handles POST /products/{id}/variations.
func (h *Handler) CreateVariation(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload variationPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	v := &Variation{
		ProductID:        productID,
		Attributes:       payload.Attributes,
		RegularPrice:     payload.RegularPrice,
		SalePrice:        payload.SalePrice,
		SalePriceStartAt: payload.SalePriceStartAt,
		SalePriceEndAt:   payload.SalePriceEndAt,
		TierPricing:      payload.TierPricing,
	}
	if err := h.Service.CreateVariation(r.Context(), v); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "variation created", map[string]any{"variation": v})
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"categories": categories})
}

type categoryPayload struct {
	Name     string     `json:"name" validate:"required"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parentId"`
}

// CreateCategory handles POST /categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	c := &Category{Name: payload.Name, Slug: payload.Slug, ParentID: payload.ParentID}
	if err := h.Service.CreateCategory(r.Context(), c); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "category created", map[string]any{"category": c})
}

// UpdateCategory handles PUT /categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload categoryPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	c := &Category{ID: id, Name: payload.Name, Slug: payload.Slug, ParentID: payload.ParentID}
	if err := h.Service.UpdateCategory(r.Context(), c); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "category updated", map[string]any{"category": c})
}

// DeleteCategory handles DELETE /categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if err := h.Service.DeleteCategory(r.Context(), id); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "category deleted", nil)
}

// ListBrands handles GET /brands.
func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.Service.ListBrands(r.Context())
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"brands": brands})
}

type labelPayload struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug"`
}

// CreateBrand handles POST /brands.
func (h *Handler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var payload labelPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	b := &Brand{Name: payload.Name, Slug: payload.Slug}
	if err := h.Service.CreateBrand(r.Context(), b); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "brand created", map[string]any{"brand": b})
}

// DeleteBrand handles DELETE /brands/{id}.
func (h *Handler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if err := h.Service.DeleteBrand(r.Context(), id); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "brand deleted", nil)
}

// ListTags handles GET /tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Service.ListTags(r.Context())
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"tags": tags})
}

// CreateTag handles POST /tags.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var payload labelPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	t := &Tag{Name: payload.Name, Slug: payload.Slug}
	if err := h.Service.CreateTag(r.Context(), t); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "tag created", map[string]any{"tag": t})
}

// DeleteTag handles DELETE /tags/{id}.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if err := h.Service.DeleteTag(r.Context(), id); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "tag deleted", nil)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.ValidationError("invalid " + name + " " + strconv.Quote(raw))
	}
	return id, nil
}
