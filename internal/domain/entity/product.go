package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto de una tienda; la tienda es la frontera de autorización para modificarlo.
type Product struct {
	ID        int64
	StoreID   int64
	Name      string
	Price     decimal.Decimal
	Stock     int
	PhotoPath *string // "/uploads/<archivo>"
	CreatedAt time.Time
}
