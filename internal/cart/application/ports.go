package application

import (
	"context"

	"github.com/andresvco/storefront-core/internal/cart/domain"
)

// Repository persists cart mutations. Each mutating call is one transaction:
// cart lock, stock movement, line upsert or delete, and total adjustment
// commit or roll back together.
type Repository interface {
	AddItem(ctx context.Context, cartUUID, productUUID string, qty int32) (domain.Cart, error)
	RemoveItem(ctx context.Context, cartUUID, productUUID string) (domain.Cart, error)
	Get(ctx context.Context, cartUUID string) (domain.Cart, error)
}
