package coupon

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Handler exposes the coupon admin surface.
type Handler struct {
	Service    *Service
	Production bool
}

// Routes mounts the buyer-facing coupon lookup.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/coupons/{code}", h.Show)
}

// AdminRoutes mounts coupon management; callers wrap it with auth middleware.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/coupons", h.List)
	r.Get("/coupons/{id}", h.Get)
	r.Post("/coupons", h.Create)
	r.Put("/coupons/{id}", h.Update)
	r.Delete("/coupons/{id}", h.Delete)
}

type couponPayload struct {
	Code                 string           `json:"code" validate:"required"`
	Description          string           `json:"description"`
	DiscountType         DiscountType     `json:"discountType" validate:"required"`
	DiscountValue        decimal.Decimal  `json:"discountValue" validate:"required"`
	ExpiryDate           *time.Time       `json:"expiryDate"`
	MaxUsage             *int             `json:"maxUsage"`
	MinimumSpend         *decimal.Decimal `json:"minimumSpend"`
	MaximumSpend         *decimal.Decimal `json:"maximumSpend"`
	AllowedEmails        []string         `json:"allowedEmails"`
	FreeShipping         bool             `json:"freeShipping"`
	ApplicableProducts   []uuid.UUID      `json:"applicableProducts"`
	ExcludedProducts     []uuid.UUID      `json:"excludedProducts"`
	ApplicableCategories []uuid.UUID      `json:"applicableCategories"`
	ExcludedCategories   []uuid.UUID      `json:"excludedCategories"`
}

func (p couponPayload) toCoupon(createdBy uuid.UUID) *Coupon {
	return &Coupon{
		Code:                 p.Code,
		Description:          p.Description,
		DiscountType:         p.DiscountType,
		DiscountValue:        p.DiscountValue,
		ExpiryDate:           p.ExpiryDate,
		MaxUsage:             p.MaxUsage,
		MinimumSpend:         p.MinimumSpend,
		MaximumSpend:         p.MaximumSpend,
		AllowedEmails:        p.AllowedEmails,
		FreeShipping:         p.FreeShipping,
		ApplicableProducts:   p.ApplicableProducts,
		ExcludedProducts:     p.ExcludedProducts,
		ApplicableCategories: p.ApplicableCategories,
		ExcludedCategories:   p.ExcludedCategories,
		CreatedBy:            createdBy,
	}
}

// List handles GET /coupons.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, 20)
	coupons, err := h.Service.List(r.Context(), page, limit)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"coupons": coupons})
}

// Get handles GET /coupons/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	c, err := h.Service.Get(r.Context(), id)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"coupon": c})
}

// couponSummary is the buyer-visible slice of a coupon. Usage counters and
// targeting rules stay private.
type couponSummary struct {
	Code          string           `json:"code"`
	Description   string           `json:"description,omitempty"`
	DiscountType  DiscountType     `json:"discountType"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
	ExpiryDate    *time.Time       `json:"expiryDate,omitempty"`
	MinimumSpend  *decimal.Decimal `json:"minimumSpend,omitempty"`
	FreeShipping  bool             `json:"freeShipping"`
}

// Show handles GET /coupons/{code} for buyers checking a code.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"coupon": couponSummary{
		Code:          c.Code,
		Description:   c.Description,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
		ExpiryDate:    c.ExpiryDate,
		MinimumSpend:  c.MinimumSpend,
		FreeShipping:  c.FreeShipping,
	}})
}

// Create handles POST /coupons.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload couponPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	userID, _ := common.UserID(r.Context())
	createdBy, _ := uuid.Parse(userID)
	c := payload.toCoupon(createdBy)
	if err := h.Service.Create(r.Context(), c); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "coupon created", map[string]any{"coupon": c})
}

// Update handles PUT /coupons/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload couponPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	c := payload.toCoupon(uuid.Nil)
	c.ID = id
	if err := h.Service.Update(r.Context(), c); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "coupon updated", map[string]any{"coupon": c})
}

// Delete handles DELETE /coupons/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "coupon deleted", nil)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, common.ValidationError("invalid " + name)
	}
	return id, nil
}
