package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the per-user container of pending purchase intentions. Total always
// equals the sum of line quantity times the product price at the time the
// line was added.
type Cart struct {
	ID        int64
	UUID      string
	UserID    int64
	Total     decimal.Decimal
	Lines     []Line
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Line struct {
	ProductID   int64
	ProductUUID string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int32
}
