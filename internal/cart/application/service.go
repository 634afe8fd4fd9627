package application

import (
	"context"
	"errors"

	"github.com/andresvco/storefront-core/internal/cart/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrLineNotFound    = errors.New("no such product in your cart")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AddItem reserves stock and upserts the cart line. A zero quantity defaults
// to 1; re-adding a product increments its existing line.
func (s *Service) AddItem(ctx context.Context, cartUUID, productUUID string, qty int32) (domain.Cart, error) {
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return domain.Cart{}, ErrInvalidQuantity
	}
	return s.repo.AddItem(ctx, cartUUID, productUUID, qty)
}

// RemoveItem releases the line's reserved stock and drops the whole line.
func (s *Service) RemoveItem(ctx context.Context, cartUUID, productUUID string) (domain.Cart, error) {
	return s.repo.RemoveItem(ctx, cartUUID, productUUID)
}

func (s *Service) Get(ctx context.Context, cartUUID string) (domain.Cart, error) {
	return s.repo.Get(ctx, cartUUID)
}
