package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the immutable record produced by checkout. Total is frozen from
// the cart at checkout time and never re-derived from product state.
type Order struct {
	ID        int64
	UUID      string
	UserID    int64
	UserUUID  string
	Total     decimal.Decimal
	Lines     []Line
	CreatedAt time.Time
}

// Line snapshots a product reference and quantity. Unit price is implied by
// the order total, not stored per line.
type Line struct {
	ProductID   int64
	ProductUUID string
	ProductName string
	Quantity    int32
}
