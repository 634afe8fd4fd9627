package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	cartapp "github.com/andresvco/storefront-core/internal/cart/application"
	"github.com/andresvco/storefront-core/internal/order/domain"
)

type fakeCart struct {
	total decimal.Decimal
	lines []domain.Line
}

type fakeRepo struct {
	carts  map[string]*fakeCart
	orders []domain.Order

	lastLimit  int
	lastOffset int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{carts: map[string]*fakeCart{}}
}

func (f *fakeRepo) Checkout(_ context.Context, cartUUID, _ string) (domain.Order, error) {
	c, ok := f.carts[cartUUID]
	if !ok {
		return domain.Order{}, cartapp.ErrCartNotFound
	}
	if len(c.lines) == 0 {
		return domain.Order{}, ErrEmptyCart
	}

	o := domain.Order{
		UUID:  fmt.Sprintf("order-%d", len(f.orders)+1),
		Total: c.total,
		Lines: append([]domain.Line(nil), c.lines...),
	}
	f.orders = append(f.orders, o)

	c.total = decimal.Zero
	c.lines = nil
	return o, nil
}

func (f *fakeRepo) Get(_ context.Context, orderUUID string) (domain.Order, error) {
	for _, o := range f.orders {
		if o.UUID == orderUUID {
			return o, nil
		}
	}
	return domain.Order{}, ErrOrderNotFound
}

func (f *fakeRepo) List(_ context.Context, limit, offset int) ([]domain.Order, error) {
	f.lastLimit, f.lastOffset = limit, offset
	out := make([]domain.Order, 0, len(f.orders))
	for i := len(f.orders) - 1; i >= 0; i-- {
		out = append(out, f.orders[i])
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) ListForUser(_ context.Context, userUUID string) ([]domain.Order, error) {
	var out []domain.Order
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].UserUUID == userUUID {
			out = append(out, f.orders[i])
		}
	}
	return out, nil
}

func seedCart(repo *fakeRepo, cartUUID string) {
	repo.carts[cartUUID] = &fakeCart{
		total: decimal.RequireFromString("70.00"),
		lines: []domain.Line{
			{ProductUUID: "p1", ProductName: "keyboard", Quantity: 2},
			{ProductUUID: "p2", ProductName: "mouse", Quantity: 1},
		},
	}
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()

	t.Run("freezes cart into order and resets cart", func(t *testing.T) {
		repo := newFakeRepo()
		seedCart(repo, "c1")
		svc := NewService(repo)

		order, err := svc.Checkout(ctx, "c1")
		require.NoError(t, err)
		require.True(t, order.Total.Equal(decimal.RequireFromString("70.00")))
		require.Len(t, order.Lines, 2)

		require.True(t, repo.carts["c1"].total.IsZero())
		require.Empty(t, repo.carts["c1"].lines)
	})

	t.Run("second checkout fails with empty cart", func(t *testing.T) {
		repo := newFakeRepo()
		seedCart(repo, "c1")
		svc := NewService(repo)

		_, err := svc.Checkout(ctx, "c1")
		require.NoError(t, err)

		_, err = svc.Checkout(ctx, "c1")
		require.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("empty cart never becomes a zero-total order", func(t *testing.T) {
		repo := newFakeRepo()
		repo.carts["c1"] = &fakeCart{total: decimal.Zero}
		svc := NewService(repo)

		_, err := svc.Checkout(ctx, "c1")
		require.ErrorIs(t, err, ErrEmptyCart)
		require.Empty(t, repo.orders)
	})

	t.Run("unknown cart", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		_, err := svc.Checkout(ctx, "ghost")
		require.ErrorIs(t, err, cartapp.ErrCartNotFound)
	})
}

func TestOrderSnapshotIndependence(t *testing.T) {
	repo := newFakeRepo()
	seedCart(repo, "c1")
	svc := NewService(repo)
	ctx := context.Background()

	order, err := svc.Checkout(ctx, "c1")
	require.NoError(t, err)

	// Later cart activity must not leak into the stored order.
	repo.carts["c1"].lines = []domain.Line{{ProductUUID: "p9", Quantity: 9}}

	got, err := svc.Get(ctx, order.UUID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	require.True(t, got.Total.Equal(decimal.RequireFromString("70.00")))
}

func TestGetUnknownOrder(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListPaginationClamping(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.List(ctx, 0, -3)
	require.NoError(t, err)
	require.Equal(t, defaultListLimit, repo.lastLimit)
	require.Equal(t, 0, repo.lastOffset)

	_, err = svc.List(ctx, 5000, 10)
	require.NoError(t, err)
	require.Equal(t, maxListLimit, repo.lastLimit)
	require.Equal(t, 10, repo.lastOffset)
}
