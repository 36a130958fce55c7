package analytics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Handler exposes view rankings to admins.
type Handler struct {
	Service    *Service
	Production bool
}

// AdminRoutes mounts the analytics endpoints.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/analytics/products/top", h.TopViewed)
}

// TopViewed handles GET /analytics/products/top. An optional date query
// parameter (YYYY-MM-DD) scopes the ranking to one day.
func (h *Handler) TopViewed(w http.ResponseWriter, r *http.Request) {
	_, limit := common.ParsePagination(r, 10)

	var (
		ranked []ProductViews
		err    error
	)
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, parseErr := time.Parse("2006-01-02", raw)
		if parseErr != nil {
			common.Fail(w, r, common.ValidationError("invalid date, expected YYYY-MM-DD"), h.Production)
			return
		}
		ranked, err = h.Service.TopViewedOn(r.Context(), day, limit)
	} else {
		ranked, err = h.Service.TopViewed(r.Context(), limit)
	}
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	common.OK(w, "", map[string]any{"products": ranked})
}
