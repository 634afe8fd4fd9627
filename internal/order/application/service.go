package application

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/andresvco/storefront-core/internal/order/domain"
	"github.com/andresvco/storefront-core/pkg/tracing"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOrderNotFound = errors.New("order not found")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Service struct {
	repo   Repository
	tracer trace.Tracer
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:   repo,
		tracer: otel.Tracer("order-service"),
	}
}

// Checkout moves the cart's contents into a new order and resets the cart.
// Stock is untouched here: it was reserved when items entered the cart.
func (s *Service) Checkout(ctx context.Context, cartUUID string) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Checkout")
	defer span.End()

	return s.repo.Checkout(ctx, cartUUID, tracing.Traceparent(ctx))
}

func (s *Service) Get(ctx context.Context, orderUUID string) (domain.Order, error) {
	return s.repo.Get(ctx, orderUUID)
}

// List pages over all orders, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListForUser(ctx context.Context, userUUID string) ([]domain.Order, error) {
	return s.repo.ListForUser(ctx, userUUID)
}
