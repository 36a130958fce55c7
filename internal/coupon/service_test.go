package coupon

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-api/internal/common"
)

type fakeCouponStore struct {
	byID map[uuid.UUID]*Coupon
}

func newFakeCouponStore() *fakeCouponStore {
	return &fakeCouponStore{byID: map[uuid.UUID]*Coupon{}}
}

func (f *fakeCouponStore) GetByCode(_ context.Context, code string) (*Coupon, error) {
	for _, c := range f.byID {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCouponStore) Get(_ context.Context, id uuid.UUID) (*Coupon, error) {
	return f.byID[id], nil
}

func (f *fakeCouponStore) List(_ context.Context, limit, offset int) ([]Coupon, error) {
	var out []Coupon
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCouponStore) Create(_ context.Context, c *Coupon) error {
	c.Code = NormalizeCode(c.Code)
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCouponStore) Update(_ context.Context, c *Coupon) error {
	c.Code = NormalizeCode(c.Code)
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCouponStore) SoftDelete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	return true, nil
}

func validPercentCoupon() *Coupon {
	return &Coupon{
		Code:          "SUMMER10",
		DiscountType:  PercentageDiscount,
		DiscountValue: decimal.RequireFromString("10"),
	}
}

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	store := newFakeCouponStore()
	svc := &Service{Coupons: store}

	c := validPercentCoupon()
	require.NoError(t, svc.Create(context.Background(), c))
	require.Equal(t, "summer10", c.Code)

	dup := validPercentCoupon()
	err := svc.Create(context.Background(), dup)
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusConflict, app.HTTPStatus)
}

func TestCreateValidation(t *testing.T) {
	svc := &Service{Coupons: newFakeCouponStore()}

	bad := validPercentCoupon()
	bad.DiscountValue = decimal.RequireFromString("150")
	require.Error(t, svc.Create(context.Background(), bad))

	bad = validPercentCoupon()
	bad.DiscountType = "BOGOF"
	require.Error(t, svc.Create(context.Background(), bad))

	bad = validPercentCoupon()
	bad.Code = "   "
	require.Error(t, svc.Create(context.Background(), bad))
}

func TestFindByCodeCaseInsensitive(t *testing.T) {
	store := newFakeCouponStore()
	svc := &Service{Coupons: store}
	require.NoError(t, svc.Create(context.Background(), validPercentCoupon()))

	found, err := svc.FindByCode(context.Background(), "  Summer10 ")
	require.NoError(t, err)
	require.Equal(t, "summer10", found.Code)
}

func TestFindByCodeNotFound(t *testing.T) {
	svc := &Service{Coupons: newFakeCouponStore()}
	_, err := svc.FindByCode(context.Background(), "nope")
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusNotFound, app.HTTPStatus)
}

func TestDeleteMissingCoupon(t *testing.T) {
	svc := &Service{Coupons: newFakeCouponStore()}
	err := svc.Delete(context.Background(), uuid.New())
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusNotFound, app.HTTPStatus)
}
