package wishlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Handler exposes the authenticated wishlist surface.
type Handler struct {
	Service    *Service
	Production bool
}

// Routes mounts the wishlist endpoints; callers wrap them with auth middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/wishlist", h.List)
	r.Post("/wishlist", h.Add)
	r.Delete("/wishlist/{productId}", h.Remove)
	r.Get("/wishlist/{productId}", h.Contains)
}

func userID(r *http.Request) (uuid.UUID, error) {
	raw, ok := common.UserID(r.Context())
	if !ok {
		return uuid.Nil, common.UnauthorizedError("authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.UnauthorizedError("authentication required")
	}
	return id, nil
}

// List handles GET /wishlist.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	entries, err := h.Service.List(r.Context(), uid)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"wishlist": entries})
}

type addPayload struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

// Add handles POST /wishlist.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	var payload addPayload
	if err := common.BindJSON(r, &payload); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if err := h.Service.Add(r.Context(), uid, payload.ProductID); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.Created(w, "product saved", nil)
}

// Remove handles DELETE /wishlist/{productId}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		common.Fail(w, r, common.ValidationError("invalid productId"), h.Production)
		return
	}
	if err := h.Service.Remove(r.Context(), uid, productID); err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "product removed", nil)
}

// Contains handles GET /wishlist/{productId}.
func (h *Handler) Contains(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		common.Fail(w, r, common.ValidationError("invalid productId"), h.Production)
		return
	}
	saved, err := h.Service.Contains(r.Context(), uid, productID)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"saved": saved})
}
