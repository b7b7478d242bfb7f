package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Box caja sorpresa con descuento, compuesta por líneas de productos.
//
// NormalPrice es un valor derivado cacheado: se calcula la primera vez que falta y
// luego no se recalcula aunque cambien los precios de los productos.
type Box struct {
	ID            int64
	StoreID       int64
	Name          string
	Description   string
	NormalPrice   decimal.NullDecimal
	DiscountPrice decimal.Decimal
	Stock         int
	CreatedAt     time.Time
	ExpiresAt     *time.Time
	IsFlash       bool
	WindowStart   *time.Time
	WindowEnd     *time.Time
	Lines         []BoxLine
}

// BoxLine línea de la tabla box_products con los datos actuales del producto.
type BoxLine struct {
	ProductID    int64
	Name         string
	UnitPrice    decimal.Decimal
	Quantity     int
	PhotoPath    *string
	ConsumeUntil *time.Time
}

// HasNormalPrice indica si el precio normal ya fue calculado y persistido.
func (b *Box) HasNormalPrice() bool { return b.NormalPrice.Valid }
