package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
)

// BoxListing caja con los datos de su tienda necesarios para listados y detalle.
type BoxListing struct {
	Box          entity.Box
	StoreName    string
	StoreAddress string
}

// BoxRepository define el puerto de persistencia para Box y sus líneas.
// Usado también dentro de transacciones (DecrementStock / IncrementStock).
type BoxRepository interface {
	// Create inserta la caja y sus líneas de forma atómica y asigna box.ID.
	Create(ctx context.Context, box *entity.Box) error
	// GetByID devuelve la caja sin líneas, o (nil, nil) si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Box, error)
	// GetDetail devuelve la caja con tienda y líneas, o (nil, nil) si no existe.
	GetDetail(ctx context.Context, id int64) (*BoxListing, error)
	// ListPublic cajas con stock > 0 y no vencidas a la fecha now, más recientes primero.
	ListPublic(ctx context.Context, now time.Time) ([]BoxListing, error)
	ListByStore(ctx context.Context, storeID int64) ([]BoxListing, error)
	Lines(ctx context.Context, boxID int64) ([]entity.BoxLine, error)
	SetNormalPrice(ctx context.Context, id int64, price decimal.Decimal) error
	// DecrementStock descuenta una unidad solo si stock > 0; false si no había stock.
	DecrementStock(ctx context.Context, id int64) (bool, error)
	IncrementStock(ctx context.Context, id int64) error
}
