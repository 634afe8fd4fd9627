package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/andresvco/storefront-core/internal/cart/application"
	"github.com/andresvco/storefront-core/internal/cart/domain"
	"github.com/andresvco/storefront-core/internal/stock"
)

type Repository struct {
	log    *slog.Logger
	pool   *pgxpool.Pool
	ledger stock.Ledger
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// querier is the read subset shared by *pgxpool.Pool and pgx.Tx, so snapshots
// can be taken either inside a mutation's transaction or standalone.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repository) AddItem(ctx context.Context, cartUUID, productUUID string, qty int32) (domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Cart{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	cartID, err := lockCart(ctx, tx, cartUUID)
	if err != nil {
		return domain.Cart{}, err
	}

	var productID int64
	var price decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT id, price FROM products WHERE uuid = $1 AND active`, productUUID).
		Scan(&productID, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, stock.ErrProductNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("resolve product: %w", err)
	}

	if err := r.ledger.Reserve(ctx, tx, productID, qty); err != nil {
		return domain.Cart{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, cartID, productID, qty)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("upsert cart line: %w", err)
	}

	lineAmount := price.Mul(decimal.NewFromInt32(qty))
	_, err = tx.Exec(ctx, `UPDATE carts SET total = total + $2, updated_at = now() WHERE id = $1`,
		cartID, lineAmount)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("update cart total: %w", err)
	}

	cart, err := snapshot(ctx, tx, cartUUID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (r *Repository) RemoveItem(ctx context.Context, cartUUID, productUUID string) (domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Cart{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	cartID, err := lockCart(ctx, tx, cartUUID)
	if err != nil {
		return domain.Cart{}, err
	}

	var productID int64
	var qty int32
	var price decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT ci.product_id, ci.quantity, p.price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1 AND p.uuid = $2
		FOR UPDATE OF ci
	`, cartID, productUUID).Scan(&productID, &qty, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, application.ErrLineNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("find cart line: %w", err)
	}

	if err := r.ledger.Release(ctx, tx, productID, qty); err != nil {
		return domain.Cart{}, err
	}

	lineAmount := price.Mul(decimal.NewFromInt32(qty))
	_, err = tx.Exec(ctx, `UPDATE carts SET total = total - $2, updated_at = now() WHERE id = $1`,
		cartID, lineAmount)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("update cart total: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("delete cart line: %w", err)
	}

	cart, err := snapshot(ctx, tx, cartUUID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (r *Repository) Get(ctx context.Context, cartUUID string) (domain.Cart, error) {
	return snapshot(ctx, r.pool, cartUUID)
}

// lockCart takes the row lock that serializes all mutations of one cart.
func lockCart(ctx context.Context, tx pgx.Tx, cartUUID string) (int64, error) {
	var cartID int64
	err := tx.QueryRow(ctx, `SELECT id FROM carts WHERE uuid = $1 FOR UPDATE`, cartUUID).Scan(&cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, application.ErrCartNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock cart: %w", err)
	}
	return cartID, nil
}

func snapshot(ctx context.Context, q querier, cartUUID string) (domain.Cart, error) {
	var c domain.Cart
	err := q.QueryRow(ctx, `
		SELECT id, uuid, user_id, total, created_at, updated_at
		FROM carts WHERE uuid = $1
	`, cartUUID).Scan(&c.ID, &c.UUID, &c.UserID, &c.Total, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, application.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT ci.product_id, p.uuid, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, c.ID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("select cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ProductID, &l.ProductUUID, &l.ProductName, &l.UnitPrice, &l.Quantity); err != nil {
			return domain.Cart{}, fmt.Errorf("scan cart line: %w", err)
		}
		c.Lines = append(c.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, fmt.Errorf("cart lines rows: %w", err)
	}
	return c, nil
}
