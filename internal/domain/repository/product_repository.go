package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	ListByStore(ctx context.Context, storeID int64) ([]*entity.Product, error)
	// PricesForStore devuelve el precio actual de los ids que pertenecen a la tienda.
	// Los ids ajenos o inexistentes no aparecen en el mapa.
	PricesForStore(ctx context.Context, storeID int64, ids []int64) (map[int64]decimal.Decimal, error)
}
