package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/storelinehq/storeline-api/internal/common"
)

// Middleware authenticates requests and populates the identity and forwarded
// bearer token on the context.
type Middleware struct {
	Verifier    *Verifier
	Permissions Permissions
	Production  bool
}

// RequireAuth rejects requests without a valid bearer token.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			common.Fail(w, r, common.UnauthorizedError("missing or invalid token"), m.Production)
			return
		}
		identity, err := m.Verifier.Verify(token, time.Now())
		if err != nil {
			common.Fail(w, r, common.UnauthorizedError("missing or invalid token"), m.Production)
			return
		}
		ctx := common.WithUser(r.Context(), identity.UserID.String(), identity.Email)
		ctx = common.WithUserRole(ctx, identity.Role)
		ctx = common.WithBearerToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates an already-authenticated request on an
// action/entity permission.
func (m Middleware) RequirePermission(action, entity string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.Permissions == nil || !m.Permissions.Can(r.Context(), action, entity) {
				common.Fail(w, r, common.ForbiddenError("you are not allowed to perform this action"), m.Production)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearer(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
