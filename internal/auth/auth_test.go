package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-api/internal/common"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID uuid.UUID, email, role string, exp time.Time) string {
	t.Helper()
	built, err := jwt.NewBuilder().
		Subject(userID.String()).
		Expiration(exp).
		IssuedAt(time.Now()).
		Claim("email", email).
		Claim("role", role).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(built, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	return string(signed)
}

func TestVerifyExtractsIdentity(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, userID, "buyer@example.com", "customer", time.Now().Add(time.Hour))

	identity, err := NewVerifier(testSecret).Verify(token, time.Now())
	require.NoError(t, err)
	require.Equal(t, userID, identity.UserID)
	require.Equal(t, "buyer@example.com", identity.Email)
	require.Equal(t, "customer", identity.Role)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token := signToken(t, uuid.New(), "a@b.c", "customer", time.Now().Add(-time.Minute))
	_, err := NewVerifier(testSecret).Verify(token, time.Now())
	require.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token := signToken(t, uuid.New(), "a@b.c", "customer", time.Now().Add(time.Hour))
	_, err := NewVerifier("other-secret").Verify(token, time.Now())
	require.Error(t, err)
}

func TestVerifyRejectsNonUUIDSubject(t *testing.T) {
	built, err := jwt.NewBuilder().Subject("not-a-uuid").Expiration(time.Now().Add(time.Hour)).Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(built, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)

	_, err = NewVerifier(testSecret).Verify(string(signed), time.Now())
	require.Error(t, err)
}

func TestRequireAuthPopulatesContext(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, userID, "buyer@example.com", "admin", time.Now().Add(time.Hour))

	var gotID, gotEmail, gotBearer string
	mw := Middleware{Verifier: NewVerifier(testSecret)}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = common.UserID(r.Context())
		gotEmail, _ = common.UserEmail(r.Context())
		gotBearer = common.BearerToken(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, userID.String(), gotID)
	require.Equal(t, "buyer@example.com", gotEmail)
	require.Equal(t, token, gotBearer)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	mw := Middleware{Verifier: NewVerifier(testSecret)}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRolePermissions(t *testing.T) {
	perms := DefaultPermissions()

	adminCtx := common.WithUserRole(context.Background(), "admin")
	customerCtx := common.WithUserRole(context.Background(), "customer")

	require.True(t, perms.Can(adminCtx, ActionDelete, "product"))
	require.True(t, perms.Can(customerCtx, ActionRead, "catalog"))
	require.False(t, perms.Can(customerCtx, ActionRead, "audit"))
	require.False(t, perms.Can(customerCtx, ActionCreate, "coupon"))
	require.False(t, perms.Can(context.Background(), ActionRead, "catalog"))
}

func TestRequirePermissionForbids(t *testing.T) {
	mw := Middleware{Verifier: NewVerifier(testSecret), Permissions: DefaultPermissions()}
	handler := mw.RequirePermission(ActionCreate, "coupon")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/coupons", nil)
	req = req.WithContext(common.WithUserRole(req.Context(), "customer"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
