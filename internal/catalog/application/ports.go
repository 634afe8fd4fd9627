package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/andresvco/storefront-core/internal/catalog/domain"
)

type NewProduct struct {
	Name       string
	Price      decimal.Decimal
	Stock      int32
	Active     bool
	Categories []string
}

// ProductUpdate replaces the product's fields; a non-nil Categories replaces
// the whole category set.
type ProductUpdate struct {
	Name       string
	Price      decimal.Decimal
	Stock      int32
	Active     bool
	Categories []string
}

type Repository interface {
	CreateProduct(ctx context.Context, p NewProduct) (domain.Product, error)
	GetProduct(ctx context.Context, uuid string) (domain.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryUUID string) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, uuid string, u ProductUpdate) (domain.Product, error)
	DeleteProduct(ctx context.Context, uuid string) error

	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (domain.Category, error)
	UpdateCategory(ctx context.Context, uuid, name string) (domain.Category, error)
	DeleteCategory(ctx context.Context, uuid string) error

	Like(ctx context.Context, productUUID, userUUID string) error
	Unlike(ctx context.Context, productUUID, userUUID string) error

	AttachImage(ctx context.Context, productUUID, objectKey, contentType string) (domain.Image, error)
	ListImages(ctx context.Context, productUUID string) ([]domain.Image, error)
}
