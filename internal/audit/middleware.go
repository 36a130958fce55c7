package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Middleware records every mutating request passing through it. Reads are not
// audited. A failed insert is logged and never blocks the response.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			entry := &Entry{
				ActorRole: common.UserRole(r.Context()),
				Method:    r.Method,
				Path:      r.URL.Path,
				Status:    ww.Status(),
			}
			if raw, ok := common.UserID(r.Context()); ok {
				if id, err := uuid.Parse(raw); err == nil {
					entry.ActorID = id
				}
			}
			if err := svc.Record(r.Context(), entry); err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).
					Str("path", entry.Path).
					Msg("audit record failed")
			}
		})
	}
}
