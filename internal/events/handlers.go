package events

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Lister reads back the event log.
type Lister interface {
	ListEvents(ctx context.Context, topic string, limit, offset int) ([]Event, error)
}

// Handler exposes the event log to admins.
type Handler struct {
	Events     Lister
	Production bool
}

// AdminRoutes mounts the event log listing.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/events", h.List)
}

// List handles GET /events with optional topic, page and limit parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	topic := r.URL.Query().Get("topic")
	evs, err := h.Events.ListEvents(r.Context(), topic, perPage, (page-1)*perPage)
	if err != nil {
		common.Fail(w, r, err, h.Production)
		return
	}
	if evs == nil {
		evs = []Event{}
	}
	common.OK(w, "", map[string]any{"events": evs})
}
