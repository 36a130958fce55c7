package shipping

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-api/internal/common"
)

type fakeShippingStore struct {
	zones   map[uuid.UUID]*Zone
	methods map[uuid.UUID]*Method
	classes map[uuid.UUID]*Class
	order   []uuid.UUID
}

func newFakeShippingStore() *fakeShippingStore {
	return &fakeShippingStore{
		zones:   map[uuid.UUID]*Zone{},
		methods: map[uuid.UUID]*Method{},
		classes: map[uuid.UUID]*Class{},
	}
}

func (f *fakeShippingStore) ListZones(_ context.Context) ([]Zone, error) {
	var out []Zone
	for _, id := range f.order {
		out = append(out, *f.zones[id])
	}
	return out, nil
}

func (f *fakeShippingStore) GetZone(_ context.Context, id uuid.UUID) (*Zone, error) {
	return f.zones[id], nil
}

func (f *fakeShippingStore) CreateZone(_ context.Context, z *Zone) error {
	f.zones[z.ID] = z
	f.order = append(f.order, z.ID)
	return nil
}

func (f *fakeShippingStore) UpdateZone(_ context.Context, z *Zone) error {
	f.zones[z.ID] = z
	return nil
}

func (f *fakeShippingStore) SoftDeleteZone(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.zones[id]; !ok {
		return false, nil
	}
	delete(f.zones, id)
	return true, nil
}

func (f *fakeShippingStore) CreateMethod(_ context.Context, m *Method) error {
	f.methods[m.ID] = m
	return nil
}

func (f *fakeShippingStore) UpdateMethod(_ context.Context, m *Method) error {
	f.methods[m.ID] = m
	return nil
}

func (f *fakeShippingStore) SoftDeleteMethod(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.methods[id]; !ok {
		return false, nil
	}
	delete(f.methods, id)
	return true, nil
}

func (f *fakeShippingStore) ListClasses(_ context.Context) ([]Class, error) {
	var out []Class
	for _, c := range f.classes {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeShippingStore) CreateClass(_ context.Context, c *Class) error {
	f.classes[c.ID] = c
	return nil
}

func (f *fakeShippingStore) SoftDeleteClass(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.classes[id]; !ok {
		return false, nil
	}
	delete(f.classes, id)
	return true, nil
}

func TestCreateZoneRequiresMatchers(t *testing.T) {
	svc := &Service{Shipping: newFakeShippingStore()}

	err := svc.CreateZone(context.Background(), &Zone{Name: "Nowhere"})
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusBadRequest, app.HTTPStatus)

	ok := &Zone{Name: "US", Regions: []Region{{Country: "US"}}}
	require.NoError(t, svc.CreateZone(context.Background(), ok))
	require.NotEqual(t, uuid.Nil, ok.ID)
}

func TestCreateMethodUnderMissingZone(t *testing.T) {
	svc := &Service{Shipping: newFakeShippingStore()}

	m := &Method{ZoneID: uuid.New(), Kind: KindFlatRate, Title: "Flat", Cost: decimal.RequireFromString("5")}
	err := svc.CreateMethod(context.Background(), m)
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusNotFound, app.HTTPStatus)
}

func TestCreateMethodDefaultsAndValidation(t *testing.T) {
	store := newFakeShippingStore()
	svc := &Service{Shipping: store}

	zone := &Zone{Name: "US", Regions: []Region{{Country: "US"}}}
	require.NoError(t, svc.CreateZone(context.Background(), zone))

	m := &Method{ZoneID: zone.ID, Kind: KindFreeShipping, Title: "Free"}
	require.NoError(t, svc.CreateMethod(context.Background(), m))
	require.Equal(t, StatusActive, m.Status)
	require.Equal(t, CondNA, m.FreeCondition)

	bad := &Method{ZoneID: zone.ID, Kind: KindFreeShipping, Title: "Free over 50", FreeCondition: CondMinAmount}
	err := svc.CreateMethod(context.Background(), bad)
	require.Error(t, err)

	bad = &Method{ZoneID: zone.ID, Kind: "DRONE", Title: "Drone"}
	require.Error(t, svc.CreateMethod(context.Background(), bad))
}

func TestZonesKeepStoredOrder(t *testing.T) {
	store := newFakeShippingStore()
	svc := &Service{Shipping: store}

	first := &Zone{Name: "California", Regions: []Region{{Country: "US"}}}
	second := &Zone{Name: "US", Regions: []Region{{Country: "US"}}}
	require.NoError(t, svc.CreateZone(context.Background(), first))
	require.NoError(t, svc.CreateZone(context.Background(), second))

	zones, err := svc.Zones(context.Background())
	require.NoError(t, err)
	require.Len(t, zones, 2)
	require.Equal(t, "California", zones[0].Name)
}

func TestDeleteMissingZone(t *testing.T) {
	svc := &Service{Shipping: newFakeShippingStore()}
	err := svc.DeleteZone(context.Background(), uuid.New())
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusNotFound, app.HTTPStatus)
}
