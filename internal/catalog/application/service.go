package application

import (
	"context"
	"errors"
	"strings"

	"github.com/andresvco/storefront-core/internal/catalog/domain"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrProductNotFound  = errors.New("product not found")
	ErrProductInUse     = errors.New("product is referenced by existing orders")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidName      = errors.New("invalid name")
	ErrAlreadyLiked     = errors.New("product already liked")
	ErrLikeNotFound     = errors.New("like not found")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateProduct(ctx context.Context, p NewProduct) (domain.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Price.IsNegative() || p.Price.IsZero() || p.Stock < 0 {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.CreateProduct(ctx, p)
}

func (s *Service) GetProduct(ctx context.Context, uuid string) (domain.Product, error) {
	if strings.TrimSpace(uuid) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.GetProduct(ctx, uuid)
}

// ListProducts pages over active products only.
func (s *Service) ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListProducts(ctx, limit, offset)
}

func (s *Service) ListByCategory(ctx context.Context, categoryUUID string) ([]domain.Product, error) {
	return s.repo.ListByCategory(ctx, categoryUUID)
}

func (s *Service) UpdateProduct(ctx context.Context, uuid string, u ProductUpdate) (domain.Product, error) {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" || u.Price.IsNegative() || u.Price.IsZero() || u.Stock < 0 {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.UpdateProduct(ctx, uuid, u)
}

func (s *Service) DeleteProduct(ctx context.Context, uuid string) error {
	return s.repo.DeleteProduct(ctx, uuid)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, ErrInvalidName
	}
	return s.repo.CreateCategory(ctx, name)
}

func (s *Service) UpdateCategory(ctx context.Context, uuid, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, ErrInvalidName
	}
	return s.repo.UpdateCategory(ctx, uuid, name)
}

func (s *Service) DeleteCategory(ctx context.Context, uuid string) error {
	return s.repo.DeleteCategory(ctx, uuid)
}

func (s *Service) Like(ctx context.Context, productUUID, userUUID string) error {
	return s.repo.Like(ctx, productUUID, userUUID)
}

func (s *Service) Unlike(ctx context.Context, productUUID, userUUID string) error {
	return s.repo.Unlike(ctx, productUUID, userUUID)
}

func (s *Service) AttachImage(ctx context.Context, productUUID, objectKey, contentType string) (domain.Image, error) {
	if strings.TrimSpace(objectKey) == "" || strings.TrimSpace(contentType) == "" {
		return domain.Image{}, ErrInvalidInput
	}
	return s.repo.AttachImage(ctx, productUUID, objectKey, contentType)
}

func (s *Service) ListImages(ctx context.Context, productUUID string) ([]domain.Image, error) {
	return s.repo.ListImages(ctx, productUUID)
}
