package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
)

// ErrDuplicatePickupToken el qr_code ya existe. Es un fallo interno: el caso de uso reintenta
// con otro token y, si vuelve a chocar, se responde como error del servidor.
var ErrDuplicatePickupToken = errors.New("token de retiro duplicado")

// ReservationOwnership reserva junto con la tienda dueña de su caja.
type ReservationOwnership struct {
	Reservation entity.Reservation
	StoreID     int64
}

// UserReservationRow fila de "mis reservas": reserva ⋈ caja ⋈ tienda.
type UserReservationRow struct {
	Reservation   entity.Reservation
	BoxName       string
	DiscountPrice decimal.Decimal
	BoxExpiresAt  *time.Time
	BoxStock      int
	StoreName     string
	StoreAddress  string
}

// StoreReservationRow fila de reservas de una tienda: reserva ⋈ usuario ⋈ caja.
type StoreReservationRow struct {
	Reservation   entity.Reservation
	UserName      string
	UserEmail     string
	BoxName       string
	DiscountPrice decimal.Decimal
}

// ReservationVoucher datos para el comprobante de retiro.
type ReservationVoucher struct {
	Reservation   entity.Reservation
	UserName      string
	BoxName       string
	DiscountPrice decimal.Decimal
	StoreName     string
	StoreAddress  string
	StoreOpensAt  string
	StoreClosesAt string
}

// StoreSales ventas de una tienda: reservas retiradas y su importe.
type StoreSales struct {
	PickedUp int
	Revenue  decimal.Decimal
}

// ReservationRepository define el puerto de persistencia para reservas.
type ReservationRepository interface {
	// Create inserta la reserva y asigna ID y CreatedAt. ErrDuplicatePickupToken si el qr_code ya existe.
	Create(ctx context.Context, r *entity.Reservation) error
	// GetOwnership devuelve (nil, nil) si la reserva no existe.
	GetOwnership(ctx context.Context, id int64) (*ReservationOwnership, error)
	// MarkPickedUp pasa la reserva a retirado. Con onlyPending solo actualiza si sigue pendiente.
	// Devuelve false si ninguna fila cambió.
	MarkPickedUp(ctx context.Context, id int64, onlyPending bool) (bool, error)
	// CancelPending cancela la reserva si pertenece a userID y está pendiente.
	// ok=false cuando no hay fila que cumpla las tres condiciones.
	CancelPending(ctx context.Context, id, userID int64) (boxID int64, ok bool, err error)
	ListByUser(ctx context.Context, userID int64) ([]UserReservationRow, error)
	ListByStore(ctx context.Context, storeID int64) ([]StoreReservationRow, error)
	// GetVoucher devuelve (nil, nil) si la reserva no existe.
	GetVoucher(ctx context.Context, id int64) (*ReservationVoucher, error)
	StoreSales(ctx context.Context, storeID int64) (StoreSales, error)
}
