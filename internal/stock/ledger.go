package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx. Cart mutations pass their
// open transaction here so the stock movement commits or rolls back with the
// rest of the cart change.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger owns the non-negative stock invariant per product.
type Ledger struct{}

// Reserve decrements available stock. The availability check and the
// decrement are one conditional update: with zero rows affected nothing was
// mutated, and the reason is resolved afterwards.
func (Ledger) Reserve(ctx context.Context, q Querier, productID int64, qty int32) error {
	tag, err := q.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND active AND stock >= $2
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var active bool
	err = q.QueryRow(ctx, `SELECT active FROM products WHERE id = $1`, productID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("resolve product: %w", err)
	}
	if !active {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}

// Release returns previously reserved stock. No upper bound: callers only
// release quantities they reserved.
func (Ledger) Release(ctx context.Context, q Querier, productID int64, qty int32) error {
	tag, err := q.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
