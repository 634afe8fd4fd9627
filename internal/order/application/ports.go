package application

import (
	"context"

	"github.com/andresvco/storefront-core/internal/order/domain"
)

// Repository persists the checkout transition and serves order projections.
// Checkout runs as one transaction: cart and lines locked, order and line
// snapshots inserted, cart reset, OrderCreated written to the outbox.
type Repository interface {
	Checkout(ctx context.Context, cartUUID, traceparent string) (domain.Order, error)
	Get(ctx context.Context, orderUUID string) (domain.Order, error)
	List(ctx context.Context, limit, offset int) ([]domain.Order, error)
	ListForUser(ctx context.Context, userUUID string) ([]domain.Order, error)
}
