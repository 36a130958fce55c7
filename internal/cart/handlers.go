package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Handler exposes the authenticated cart surface. The acting user comes from
// the request context, never from the payload.
type Handler struct {
	Service    *Service
	Production bool
}

// Routes mounts the cart endpoints; callers wrap them with auth middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Post("/cart/items", h.AddItem)
	r.Put("/cart/items/{id}", h.UpdateItem)
	r.Delete("/cart/items/{id}", h.RemoveItem)
	r.Delete("/cart/items", h.Clear)
	r.Post("/cart/coupons", h.ApplyCoupon)
	r.Delete("/cart/coupons/{code}", h.RemoveCoupon)
}

func identity(r *http.Request) (uuid.UUID, string, error) {
	id, ok := common.UserID(r.Context())
	if !ok {
		return uuid.Nil, "", common.UnauthorizedError("authentication required")
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, "", common.UnauthorizedError("authentication required")
	}
	email, _ := common.UserEmail(r.Context())
	return userID, email, nil
}

// addressParams reads the optional address references from the query string.
func addressParams(r *http.Request) (Params, error) {
	var p Params
	if raw := r.URL.Query().Get("shippingAddressId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return p, common.ValidationError("invalid shippingAddressId")
		}
		p.ShippingAddressID = &id
	}
	if raw := r.URL.Query().Get("billingAddressId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return p, common.ValidationError("invalid billingAddressId")
		}
		p.BillingAddressID = &id
	}
	return p, nil
}

// Get handles GET /cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, email, err := identity(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	params, err := addressParams(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	view, err := h.Service.View(r.Context(), userID, email, params)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"cart": view})
}

type addItemPayload struct {
	ProductID   uuid.UUID  `json:"productId" validate:"required"`
	VariationID *uuid.UUID `json:"variationId"`
	Quantity    int        `json:"quantity" validate:"required,gt=0"`
}

// AddItem handles POST /cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, email, err := identity(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	params, err := addressParams(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload addItemPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	view, err := h.Service.AddItem(r.Context(), userID, email, payload.ProductID, payload.VariationID, payload.Quantity, params)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "item added", map[string]any{"cart": view})
}

type updateItemPayload struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// UpdateItem handles PUT /cart/items/{id}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, email, err := identity(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.Fail(w, r, common.ValidationError("invalid id"), h.Production)
		return
	}
	params, err := addressParams(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload updateItemPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	view, err := h.Service.UpdateItem(r.Context(), userID, email, itemID, payload.Quantity, params)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "item updated", map[string]any{"cart": view})
}

// RemoveItem handles DELETE /cart/items/{id}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, email, err := identity(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.Fail(w, r, common.ValidationError("invalid id"), h.Production)
		return
	}
	params, err := addressParams(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	view, err := h.Service.RemoveItem(r.Context(), userID, email, itemID, params)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "item removed", map[string]any{"cart": view})
}

// Clear handles DELETE /cart/items.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, email, err := identity(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	params, err := addressParams(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	view, err := h.Service.Clear(r.Context(), userID, email, params)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "cart cleared", map[string]any{"cart": view})
}

type applyCouponPayload struct {
	Code string `json:"code" validate:"required"`
}

// ApplyCoupon handles POST /cart/coupons.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, email, err := identity(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	params, err := addressParams(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload applyCouponPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	view, err := h.Service.ApplyCoupon(r.Context(), userID, email, payload.Code, params)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "coupon applied", map[string]any{"cart": view})
}

// RemoveCoupon handles DELETE /cart/coupons/{code}.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	userID, email, err := identity(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	params, err := addressParams(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	view, err := h.Service.RemoveCoupon(r.Context(), userID, email, chi.URLParam(r, "code"), params)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "coupon removed", map[string]any{"cart": view})
}
