package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andresvco/storefront-core/internal/cart/domain"
	"github.com/andresvco/storefront-core/internal/stock"
)

// fakeRepo mirrors the repository contract in memory: reserve-on-add,
// release-on-remove, running total, no partial mutation on failure.
type fakeRepo struct {
	products map[string]*fakeProduct
	carts    map[string]*fakeCart
}

type fakeProduct struct {
	id     int64
	price  decimal.Decimal
	stock  int32
	active bool
}

type fakeCart struct {
	total decimal.Decimal
	lines map[string]int32
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products: map[string]*fakeProduct{},
		carts:    map[string]*fakeCart{},
	}
}

func (f *fakeRepo) addProduct(uuid string, id int64, price string, stk int32) {
	f.products[uuid] = &fakeProduct{id: id, price: decimal.RequireFromString(price), stock: stk, active: true}
}

func (f *fakeRepo) addCart(uuid string) {
	f.carts[uuid] = &fakeCart{total: decimal.Zero, lines: map[string]int32{}}
}

func (f *fakeRepo) AddItem(_ context.Context, cartUUID, productUUID string, qty int32) (domain.Cart, error) {
	c, ok := f.carts[cartUUID]
	if !ok {
		return domain.Cart{}, ErrCartNotFound
	}
	p, ok := f.products[productUUID]
	if !ok || !p.active {
		return domain.Cart{}, stock.ErrProductNotFound
	}
	if p.stock < qty {
		return domain.Cart{}, stock.ErrInsufficientStock
	}
	p.stock -= qty
	c.lines[productUUID] += qty
	c.total = c.total.Add(p.price.Mul(decimal.NewFromInt32(qty)))
	return f.snapshot(cartUUID), nil
}

func (f *fakeRepo) RemoveItem(_ context.Context, cartUUID, productUUID string) (domain.Cart, error) {
	c, ok := f.carts[cartUUID]
	if !ok {
		return domain.Cart{}, ErrCartNotFound
	}
	qty, ok := c.lines[productUUID]
	if !ok {
		return domain.Cart{}, ErrLineNotFound
	}
	p := f.products[productUUID]
	p.stock += qty
	c.total = c.total.Sub(p.price.Mul(decimal.NewFromInt32(qty)))
	delete(c.lines, productUUID)
	return f.snapshot(cartUUID), nil
}

func (f *fakeRepo) Get(_ context.Context, cartUUID string) (domain.Cart, error) {
	if _, ok := f.carts[cartUUID]; !ok {
		return domain.Cart{}, ErrCartNotFound
	}
	return f.snapshot(cartUUID), nil
}

func (f *fakeRepo) snapshot(cartUUID string) domain.Cart {
	c := f.carts[cartUUID]
	out := domain.Cart{UUID: cartUUID, Total: c.total}
	for pu, qty := range c.lines {
		out.Lines = append(out.Lines, domain.Line{
			ProductUUID: pu,
			UnitPrice:   f.products[pu].price,
			Quantity:    qty,
		})
	}
	return out
}

func TestAddItemQuantityValidation(t *testing.T) {
	repo := newFakeRepo()
	repo.addCart("c1")
	repo.addProduct("p1", 1, "20.00", 10)
	svc := NewService(repo)
	ctx := context.Background()

	t.Run("zero defaults to one", func(t *testing.T) {
		cart, err := svc.AddItem(ctx, "c1", "p1", 0)
		require.NoError(t, err)
		require.Len(t, cart.Lines, 1)
		require.EqualValues(t, 1, cart.Lines[0].Quantity)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := svc.AddItem(ctx, "c1", "p1", -2)
		require.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestCartTotalTracksLines(t *testing.T) {
	repo := newFakeRepo()
	repo.addCart("c1")
	repo.addProduct("p1", 1, "20.00", 10)
	svc := NewService(repo)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "c1", "p1", 3)
	require.NoError(t, err)
	require.True(t, cart.Total.Equal(decimal.RequireFromString("60.00")), "total = %s", cart.Total)
	require.EqualValues(t, 7, repo.products["p1"].stock)

	cart, err = svc.AddItem(ctx, "c1", "p1", 2)
	require.NoError(t, err)
	require.True(t, cart.Total.Equal(decimal.RequireFromString("100.00")), "total = %s", cart.Total)
	require.Len(t, cart.Lines, 1)
	require.EqualValues(t, 5, cart.Lines[0].Quantity)
	require.EqualValues(t, 5, repo.products["p1"].stock)

	cart, err = svc.RemoveItem(ctx, "c1", "p1")
	require.NoError(t, err)
	require.True(t, cart.Total.IsZero(), "total = %s", cart.Total)
	require.Empty(t, cart.Lines)
	require.EqualValues(t, 10, repo.products["p1"].stock)
}

func TestAddItemInsufficientStock(t *testing.T) {
	repo := newFakeRepo()
	repo.addCart("c1")
	repo.addProduct("p1", 1, "20.00", 5)
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "c1", "p1", 10)
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	require.EqualValues(t, 5, repo.products["p1"].stock)
	cart, err := svc.Get(ctx, "c1")
	require.NoError(t, err)
	require.True(t, cart.Total.IsZero())
	require.Empty(t, cart.Lines)
}

func TestRemoveMissingLine(t *testing.T) {
	repo := newFakeRepo()
	repo.addCart("c1")
	repo.addProduct("p1", 1, "20.00", 5)
	svc := NewService(repo)

	_, err := svc.RemoveItem(context.Background(), "c1", "p1")
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestUnknownCartAndProduct(t *testing.T) {
	repo := newFakeRepo()
	repo.addCart("c1")
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "nope", "p1", 1)
	require.ErrorIs(t, err, ErrCartNotFound)

	_, err = svc.AddItem(ctx, "c1", "ghost", 1)
	require.ErrorIs(t, err, stock.ErrProductNotFound)

	_, err = svc.Get(ctx, "nope")
	require.ErrorIs(t, err, ErrCartNotFound)
}
