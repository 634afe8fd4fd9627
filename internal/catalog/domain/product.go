package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         int64
	UUID       string
	Name       string
	Price      decimal.Decimal
	Stock      int32
	Active     bool
	Likes      int64
	Categories []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Category struct {
	ID        int64
	UUID      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Image is an opaque reference to product media. Bytes live elsewhere; the
// catalog only stores the key and content type.
type Image struct {
	ID          int64
	ProductUUID string
	ObjectKey   string
	ContentType string
	CreatedAt   time.Time
}
