package cart

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storelinehq/storeline-api/internal/common"
	"github.com/storelinehq/storeline-api/internal/coupon"
)

type fakeCartStore struct {
	cart *Cart
}

func (f *fakeCartStore) GetByUser(_ context.Context, userID uuid.UUID) (*Cart, error) {
	if f.cart == nil || f.cart.CreatedBy != userID {
		return nil, nil
	}
	clone := *f.cart
	clone.Items = append([]Item(nil), f.cart.Items...)
	clone.CouponIDs = append([]uuid.UUID(nil), f.cart.CouponIDs...)
	return &clone, nil
}

func (f *fakeCartStore) Create(_ context.Context, userID uuid.UUID) (*Cart, error) {
	f.cart = &Cart{ID: uuid.New(), CreatedBy: userID}
	return f.cart, nil
}

// fakeTx is both the transactor and the mutation: every operation applies
// directly to the backing fake store.
type fakeTx struct {
	store      *fakeCartStore
	usage      map[uuid.UUID]int
	caps       map[uuid.UUID]*int
	failCAS    bool
	increments int
}

func (f *fakeTx) CartTx(_ context.Context, fn func(m Mutation) error) error {
	return fn(f)
}

func (f *fakeTx) CASVersion(_ context.Context, _ uuid.UUID, _ int64) (bool, error) {
	if f.failCAS {
		return false, nil
	}
	f.store.cart.Version++
	return true, nil
}

func (f *fakeTx) InsertItem(_ context.Context, it *Item) error {
	f.store.cart.Items = append(f.store.cart.Items, *it)
	return nil
}

func (f *fakeTx) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	for i := range f.store.cart.Items {
		if f.store.cart.Items[i].ID == itemID {
			f.store.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return common.NotFoundError("cart item not found")
}

func (f *fakeTx) DeleteItem(_ context.Context, itemID uuid.UUID) (bool, error) {
	items := f.store.cart.Items
	for i := range items {
		if items[i].ID == itemID {
			f.store.cart.Items = append(items[:i], items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTx) ClearItems(_ context.Context, _ uuid.UUID) error {
	f.store.cart.Items = nil
	f.store.cart.CouponIDs = nil
	return nil
}

func (f *fakeTx) AttachCoupon(_ context.Context, _, couponID uuid.UUID) error {
	for _, id := range f.store.cart.CouponIDs {
		if id == couponID {
			return nil
		}
	}
	f.store.cart.CouponIDs = append(f.store.cart.CouponIDs, couponID)
	return nil
}

func (f *fakeTx) DetachCoupon(_ context.Context, _, couponID uuid.UUID) (bool, error) {
	ids := f.store.cart.CouponIDs
	for i, id := range ids {
		if id == couponID {
			f.store.cart.CouponIDs = append(ids[:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTx) IncrementCouponUsage(_ context.Context, couponID uuid.UUID) (bool, error) {
	if limit, ok := f.caps[couponID]; ok && limit != nil && f.usage[couponID] >= *limit {
		return false, nil
	}
	f.usage[couponID]++
	f.increments++
	return true, nil
}

type fakeFinder struct {
	coupons *fakeCoupons
}

func (f *fakeFinder) GetByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	for _, c := range f.coupons.byID {
		if c.Code == code {
			clone := c
			return &clone, nil
		}
	}
	return nil, nil
}

func newServiceFixture(t *testing.T) (*Service, *fixture, *fakeTx) {
	t.Helper()
	f := newFixture(t)
	store := &fakeCartStore{cart: f.cart}
	tx := &fakeTx{store: store, usage: map[uuid.UUID]int{}, caps: map[uuid.UUID]*int{}}
	svc := &Service{
		Carts:   store,
		Tx:      tx,
		Coupons: &fakeFinder{coupons: f.coupons},
		Agg:     f.agg,
	}
	return svc, f, tx
}

func registerCoupon(f *fixture, tx *fakeTx, c coupon.Coupon) coupon.Coupon {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.coupons.byID[c.ID] = c
	tx.caps[c.ID] = c.MaxUsage
	return c
}

func TestApplyCouponAttachesAndIncrements(t *testing.T) {
	svc, f, tx := newServiceFixture(t)
	c := registerCoupon(f, tx, coupon.Coupon{
		Code:          "save10",
		DiscountType:  coupon.PercentageDiscount,
		DiscountValue: decimal.RequireFromString("10"),
	})

	view, err := svc.ApplyCoupon(context.Background(), f.userID, "buyer@example.com", "SAVE10", f.params)
	require.NoError(t, err)
	eq(t, "10.00", view.DiscountTotal)
	require.Equal(t, []string{"save10"}, view.AppliedCoupons)
	require.Equal(t, 1, tx.usage[c.ID])
}

func TestApplyCouponTwiceIsNoOp(t *testing.T) {
	svc, f, tx := newServiceFixture(t)
	c := registerCoupon(f, tx, coupon.Coupon{
		Code:          "save10",
		DiscountType:  coupon.PercentageDiscount,
		DiscountValue: decimal.RequireFromString("10"),
	})

	first, err := svc.ApplyCoupon(context.Background(), f.userID, "buyer@example.com", "save10", f.params)
	require.NoError(t, err)
	second, err := svc.ApplyCoupon(context.Background(), f.userID, "buyer@example.com", "save10", f.params)
	require.NoError(t, err)

	require.Equal(t, 1, tx.usage[c.ID])
	require.Equal(t, first.DiscountTotal, second.DiscountTotal)
	require.Equal(t, first.AppliedCoupons, second.AppliedCoupons)
}

func TestApplyCouponUsageCapGuard(t *testing.T) {
	svc, f, tx := newServiceFixture(t)
	max := 1
	c := registerCoupon(f, tx, coupon.Coupon{
		Code:          "once",
		DiscountType:  coupon.PercentageDiscount,
		DiscountValue: decimal.RequireFromString("10"),
		MaxUsage:      &max,
	})
	tx.usage[c.ID] = 1

	_, err := svc.ApplyCoupon(context.Background(), f.userID, "buyer@example.com", "once", f.params)
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusBadRequest, app.HTTPStatus)
	require.Contains(t, app.Message, "usage limit")
}

func TestApplyCouponLostRaceConflicts(t *testing.T) {
	svc, f, tx := newServiceFixture(t)
	registerCoupon(f, tx, coupon.Coupon{
		Code:          "save10",
		DiscountType:  coupon.PercentageDiscount,
		DiscountValue: decimal.RequireFromString("10"),
	})
	tx.failCAS = true

	_, err := svc.ApplyCoupon(context.Background(), f.userID, "buyer@example.com", "save10", f.params)
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusConflict, app.HTTPStatus)
}

func TestApplyCouponUnknownCode(t *testing.T) {
	svc, f, _ := newServiceFixture(t)
	_, err := svc.ApplyCoupon(context.Background(), f.userID, "buyer@example.com", "nope", f.params)
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusNotFound, app.HTTPStatus)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	svc, f, _ := newServiceFixture(t)
	productID := f.cart.Items[0].ProductID

	view, err := svc.AddItem(context.Background(), f.userID, "buyer@example.com", productID, nil, 3, f.params)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, 5, view.Items[0].Quantity)
	eq(t, "250", view.Subtotal)
}

func TestRemoveCouponDetaches(t *testing.T) {
	svc, f, tx := newServiceFixture(t)
	registerCoupon(f, tx, coupon.Coupon{
		Code:          "save10",
		DiscountType:  coupon.PercentageDiscount,
		DiscountValue: decimal.RequireFromString("10"),
	})

	_, err := svc.ApplyCoupon(context.Background(), f.userID, "buyer@example.com", "save10", f.params)
	require.NoError(t, err)
	view, err := svc.RemoveCoupon(context.Background(), f.userID, "buyer@example.com", "save10", f.params)
	require.NoError(t, err)
	eq(t, "0", view.DiscountTotal)
	require.Empty(t, view.AppliedCoupons)

	_, err = svc.RemoveCoupon(context.Background(), f.userID, "buyer@example.com", "save10", f.params)
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusNotFound, app.HTTPStatus)
}

func TestUpdateItemRejectsNonPositiveQuantity(t *testing.T) {
	svc, f, _ := newServiceFixture(t)
	_, err := svc.UpdateItem(context.Background(), f.userID, "buyer@example.com", f.cart.Items[0].ID, 0, f.params)
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, http.StatusBadRequest, app.HTTPStatus)
}
