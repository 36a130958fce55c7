package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Handler exposes the audit trail to admins.
type Handler struct {
	Service    *Service
	Production bool
}

// AdminRoutes mounts the trail listing.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/audit", h.List)
}

// List handles GET /audit.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	entries, err := h.Service.List(r.Context(), page, perPage)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"entries": entries})
}
