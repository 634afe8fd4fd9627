package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	cartpg "github.com/andresvco/storefront-core/internal/cart/infrastructure/postgres"
	"github.com/andresvco/storefront-core/internal/db"
	orderapp "github.com/andresvco/storefront-core/internal/order/application"
	orderpg "github.com/andresvco/storefront-core/internal/order/infrastructure/postgres"
	"github.com/andresvco/storefront-core/internal/stock"
)

// Needs docker. Run with INTEGRATION=1 go test ./test/integration/...
func TestCheckoutEndToEnd(t *testing.T) {
	if os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run container tests")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { env.Teardown(ctx) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, db.RunMigrations(env.PGURL, log))

	pool, err := db.NewPool(ctx, env.PGURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	var userUUID, cartUUID, productUUID string
	var userID int64
	require.NoError(t, pool.QueryRow(ctx, `
INSERT INTO users (name, email, password_hash, verified_at)
VALUES ('Ada', 'ada@example.com', 'x', now()) RETURNING id, uuid`).Scan(&userID, &userUUID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO carts (user_id, total) VALUES ($1, 0) RETURNING uuid`, userID).Scan(&cartUUID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO products (name, price, stock, active) VALUES ('widget', 20.00, 10, true) RETURNING uuid`).
		Scan(&productUUID))

	cartRepo := cartpg.NewRepository(log, pool)
	orderSvc := orderapp.NewService(orderpg.NewRepository(log, pool))

	cart, err := cartRepo.AddItem(ctx, cartUUID, productUUID, 3)
	require.NoError(t, err)
	require.True(t, cart.Total.Equal(decimal.NewFromInt(60)), "total = %s", cart.Total)

	var stockLeft int32
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT stock FROM products WHERE uuid = $1`, productUUID).Scan(&stockLeft))
	require.EqualValues(t, 7, stockLeft)

	_, err = cartRepo.AddItem(ctx, cartUUID, productUUID, 100)
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	order, err := orderSvc.Checkout(ctx, cartUUID)
	require.NoError(t, err)
	require.True(t, order.Total.Equal(decimal.NewFromInt(60)))
	require.Len(t, order.Lines, 1)
	require.EqualValues(t, 3, order.Lines[0].Quantity)

	// Checkout emptied the cart and left an outbox row behind.
	cleared, err := cartRepo.Get(ctx, cartUUID)
	require.NoError(t, err)
	require.Empty(t, cleared.Lines)
	require.True(t, cleared.Total.IsZero())

	var pending int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM outbox WHERE status = 'pending'`).Scan(&pending))
	require.Equal(t, 1, pending)

	_, err = orderSvc.Checkout(ctx, cartUUID)
	require.ErrorIs(t, err, orderapp.ErrEmptyCart)

	// A row leased by a relay that died keeps its in_progress status; once
	// the lease expires another relay must be able to pick it up.
	store := orderpg.NewOutboxStore(log, pool)
	_, err = pool.Exec(ctx, `
UPDATE outbox SET status = 'in_progress', relay_id = 'dead-relay',
       lease_until = now() - interval '1 minute'
WHERE status = 'pending'`)
	require.NoError(t, err)

	events, err := store.LockBatch(ctx, "fresh-relay", 10, 5*time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "OrderCreated", events[0].Type)
}
