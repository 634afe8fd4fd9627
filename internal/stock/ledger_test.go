package stock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeQuerier interprets the two ledger statements against an in-memory
// product table, mirroring the conditional-update semantics of the store.
type fakeQuerier struct {
	stocks map[int64]int32
	active map[int64]bool
}

func newFakeQuerier(stocks map[int64]int32) *fakeQuerier {
	active := make(map[int64]bool, len(stocks))
	for id := range stocks {
		active[id] = true
	}
	return &fakeQuerier{stocks: stocks, active: active}
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	id := args[0].(int64)
	qty := args[1].(int32)

	if _, ok := f.stocks[id]; !ok {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}

	switch {
	case strings.Contains(sql, "stock - $2"):
		if !f.active[id] || f.stocks[id] < qty {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		f.stocks[id] -= qty
	case strings.Contains(sql, "stock + $2"):
		f.stocks[id] += qty
	default:
		return pgconn.CommandTag{}, errors.New("unexpected statement: " + sql)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	id := args[0].(int64)
	if _, ok := f.stocks[id]; !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{active: f.active[id]}
}

type fakeRow struct {
	active bool
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*bool) = r.active
	return nil
}

func TestLedgerReserve(t *testing.T) {
	ctx := context.Background()
	var ledger Ledger

	t.Run("decrements available stock", func(t *testing.T) {
		q := newFakeQuerier(map[int64]int32{1: 10})
		if err := ledger.Reserve(ctx, q, 1, 3); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if q.stocks[1] != 7 {
			t.Fatalf("stock = %d, want 7", q.stocks[1])
		}
	})

	t.Run("insufficient stock leaves stock untouched", func(t *testing.T) {
		q := newFakeQuerier(map[int64]int32{1: 5})
		err := ledger.Reserve(ctx, q, 1, 10)
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if q.stocks[1] != 5 {
			t.Fatalf("stock mutated: %d", q.stocks[1])
		}
	})

	t.Run("missing product", func(t *testing.T) {
		q := newFakeQuerier(nil)
		if err := ledger.Reserve(ctx, q, 42, 1); !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("inactive product reported as not found", func(t *testing.T) {
		q := newFakeQuerier(map[int64]int32{1: 5})
		q.active[1] = false
		if err := ledger.Reserve(ctx, q, 1, 1); !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("reserve down to zero succeeds", func(t *testing.T) {
		q := newFakeQuerier(map[int64]int32{1: 4})
		if err := ledger.Reserve(ctx, q, 1, 4); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if q.stocks[1] != 0 {
			t.Fatalf("stock = %d, want 0", q.stocks[1])
		}
	})
}

func TestLedgerRelease(t *testing.T) {
	ctx := context.Background()
	var ledger Ledger

	t.Run("increments stock", func(t *testing.T) {
		q := newFakeQuerier(map[int64]int32{1: 2})
		if err := ledger.Release(ctx, q, 1, 3); err != nil {
			t.Fatalf("release: %v", err)
		}
		if q.stocks[1] != 5 {
			t.Fatalf("stock = %d, want 5", q.stocks[1])
		}
	})

	t.Run("missing product", func(t *testing.T) {
		q := newFakeQuerier(nil)
		if err := ledger.Release(ctx, q, 42, 1); !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})
}
