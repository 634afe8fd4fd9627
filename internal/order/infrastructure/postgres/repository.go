package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	cartapp "github.com/andresvco/storefront-core/internal/cart/application"
	"github.com/andresvco/storefront-core/internal/order/application"
	"github.com/andresvco/storefront-core/internal/order/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Checkout locks the cart and its lines for the whole transaction so a
// concurrent add cannot slip between the read and the reset.
func (r *Repository) Checkout(ctx context.Context, cartUUID, traceparent string) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var cartID, userID int64
	var userUUID string
	var total decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT c.id, c.user_id, u.uuid, c.total
		FROM carts c
		JOIN users u ON u.id = c.user_id
		WHERE c.uuid = $1
		FOR UPDATE OF c
	`, cartUUID).Scan(&cartID, &userID, &userUUID, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, cartapp.ErrCartNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("lock cart: %w", err)
	}

	lines, err := lockLines(ctx, tx, cartID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(lines) == 0 {
		return domain.Order{}, application.ErrEmptyCart
	}

	o := domain.Order{
		UserID:   userID,
		UserUUID: userUUID,
		Total:    total,
		Lines:    lines,
	}
	err = tx.QueryRow(ctx, `INSERT INTO orders (user_id, total) VALUES ($1, $2) RETURNING id, uuid, created_at`,
		userID, total).Scan(&o.ID, &o.UUID, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, quantity) VALUES ($1, $2, $3)`,
			o.ID, l.ProductID, l.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Order{}, fmt.Errorf("insert order lines: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE carts SET total = 0, updated_at = now() WHERE id = $1`, cartID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("reset cart total: %w", err)
	}
	_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("clear cart lines: %w", err)
	}

	if err := insertOrderCreated(ctx, tx, o, traceparent); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	r.log.Info("order created", "order_uuid", o.UUID, "user_uuid", userUUID, "total", total.String())
	return o, nil
}

func lockLines(ctx context.Context, tx pgx.Tx, cartID int64) ([]domain.Line, error) {
	rows, err := tx.Query(ctx, `
		SELECT ci.product_id, p.uuid, p.name, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
		FOR UPDATE OF ci
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("lock cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.Line
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ProductID, &l.ProductUUID, &l.ProductName, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func insertOrderCreated(ctx context.Context, tx pgx.Tx, o domain.Order, traceparent string) error {
	event := domain.OrderCreated{
		OrderUUID: o.UUID,
		UserUUID:  o.UserUUID,
		Total:     o.Total.String(),
	}
	for _, l := range o.Lines {
		event.Lines = append(event.Lines, domain.OrderCreatedLine{
			ProductUUID: l.ProductUUID,
			Quantity:    l.Quantity,
		})
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order created event: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ('order', $1, 'OrderCreated', $2, $3, 'pending')
	`, o.UUID, payload, traceparent)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, orderUUID string) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT o.id, o.uuid, o.user_id, u.uuid, o.total, o.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.uuid = $1
	`, orderUUID).Scan(&o.ID, &o.UUID, &o.UserID, &o.UserUUID, &o.Total, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, application.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	if err := r.loadLines(ctx, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.uuid, o.user_id, u.uuid, o.total, o.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *Repository) ListForUser(ctx context.Context, userUUID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.uuid, o.user_id, u.uuid, o.total, o.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE u.uuid = $1
		ORDER BY o.created_at DESC, o.id DESC
	`, userUUID)
	if err != nil {
		return nil, fmt.Errorf("select user orders: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *Repository) collect(ctx context.Context, rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UUID, &o.UserID, &o.UserUUID, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orders rows: %w", err)
	}

	for i := range orders {
		if err := r.loadLines(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) loadLines(ctx context.Context, o *domain.Order) error {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.product_id, p.uuid, p.name, oi.quantity
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, o.ID)
	if err != nil {
		return fmt.Errorf("select order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ProductID, &l.ProductUUID, &l.ProductName, &l.Quantity); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	return rows.Err()
}
