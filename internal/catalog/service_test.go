package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-api/internal/common"
)

type fakeProductStore struct {
	products   map[uuid.UUID]*Product
	variations map[uuid.UUID]*Variation
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		products:   map[uuid.UUID]*Product{},
		variations: map[uuid.UUID]*Variation{},
	}
}

func (f *fakeProductStore) Get(_ context.Context, id uuid.UUID) (*Product, error) {
	return f.products[id], nil
}

func (f *fakeProductStore) GetBySlug(_ context.Context, slug string) (*Product, error) {
	for _, p := range f.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProductStore) List(_ context.Context, limit, offset int) ([]Product, error) {
	out := make([]Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductStore) Create(_ context.Context, p *Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductStore) Update(_ context.Context, p *Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductStore) SoftDelete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.products[id]; !ok {
		return false, nil
	}
	delete(f.products, id)
	return true, nil
}

func (f *fakeProductStore) GetVariation(_ context.Context, id uuid.UUID) (*Variation, error) {
	return f.variations[id], nil
}

func (f *fakeProductStore) ListVariations(_ context.Context, productID uuid.UUID) ([]Variation, error) {
	var out []Variation
	for _, v := range f.variations {
		if v.ProductID == productID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeProductStore) CreateVariation(_ context.Context, v *Variation) error {
	f.variations[v.ID] = v
	return nil
}

func newService() (*Service, *fakeProductStore) {
	products := newFakeProductStore()
	return &Service{Products: products, DefaultLimit: 20, MaxLimit: 100}, products
}

func TestCreateProductAssignsIDAndSlug(t *testing.T) {
	svc, _ := newService()
	p := &Product{Name: "Espresso Machine X1", RegularPrice: decimal.RequireFromString("499.99")}
	require.NoError(t, svc.CreateProduct(context.Background(), p))
	require.NotEqual(t, uuid.Nil, p.ID)
	require.Equal(t, "espresso-machine-x1", p.Slug)
	require.Equal(t, TaxStatusTaxable, p.TaxStatus)
}

func TestCreateProductRejectsBadPrices(t *testing.T) {
	svc, _ := newService()
	err := svc.CreateProduct(context.Background(), &Product{Name: "x", RegularPrice: decimal.Zero})
	require.Error(t, err)
	require.True(t, common.IsAppError(err))

	sale := decimal.RequireFromString("20")
	err = svc.CreateProduct(context.Background(), &Product{
		Name:         "x",
		RegularPrice: decimal.RequireFromString("10"),
		SalePrice:    &sale,
	})
	require.Error(t, err)
}

func TestGetProductNotFound(t *testing.T) {
	svc, _ := newService()
	_, err := svc.GetProduct(context.Background(), uuid.New())
	require.Error(t, err)
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusNotFound, app.HTTPStatus)
}

func TestCreateVariationRequiresParent(t *testing.T) {
	svc, store := newService()
	v := &Variation{ProductID: uuid.New(), RegularPrice: decimal.RequireFromString("5")}
	require.Error(t, svc.CreateVariation(context.Background(), v))

	parent := &Product{ID: uuid.New(), Name: "p", Slug: "p", RegularPrice: decimal.RequireFromString("10")}
	store.products[parent.ID] = parent
	v.ProductID = parent.ID
	require.NoError(t, svc.CreateVariation(context.Background(), v))
	require.NotEqual(t, uuid.Nil, v.ID)
}

func TestGetProductHandlerRejectsBadID(t *testing.T) {
	svc, _ := newService()
	h := &Handler{Service: svc}
	router := chi.NewRouter()
	router.Route("/", h.Routes)

	req := httptest.NewRequest(http.MethodGet, "/products/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":false`)
}

func TestCreateProductHandlerValidation(t *testing.T) {
	svc, _ := newService()
	h := &Handler{Service: svc}
	router := chi.NewRouter()
	router.Route("/", h.AdminRoutes)

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"slug":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "name")
}
