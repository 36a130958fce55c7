package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-api/internal/common"
)

type fakeAuditStore struct {
	entries []Entry
}

func (f *fakeAuditStore) Insert(_ context.Context, e *Entry) error {
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeAuditStore) List(_ context.Context, limit, offset int) ([]Entry, error) {
	if offset >= len(f.entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.entries) {
		end = len(f.entries)
	}
	return f.entries[offset:end], nil
}

func TestMiddlewareRecordsMutations(t *testing.T) {
	store := &fakeAuditStore{}
	mw := Middleware(&Service{Audit: store})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	actor := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/admin/products", nil)
	ctx := common.WithUser(req.Context(), actor.String(), "admin@example.com")
	ctx = common.WithUserRole(ctx, "admin")
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))

	require.Len(t, store.entries, 1)
	e := store.entries[0]
	require.Equal(t, actor, e.ActorID)
	require.Equal(t, "admin", e.ActorRole)
	require.Equal(t, http.MethodPost, e.Method)
	require.Equal(t, "/admin/products", e.Path)
	require.Equal(t, http.StatusCreated, e.Status)
}

func TestMiddlewareSkipsReads(t *testing.T) {
	store := &fakeAuditStore{}
	mw := Middleware(&Service{Audit: store})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/products", nil))
	require.Empty(t, store.entries)
}

func TestServiceListPaginates(t *testing.T) {
	store := &fakeAuditStore{}
	for i := 0; i < 3; i++ {
		store.entries = append(store.entries, Entry{ID: uuid.New(), Method: http.MethodPost})
	}
	svc := &Service{Audit: store}

	entries, err := svc.List(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = svc.List(context.Background(), 5, 2)
	require.NoError(t, err)
	require.Empty(t, entries)
}
