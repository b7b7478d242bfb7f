package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateReservationRequest entrada para reservar una unidad de una caja.
type CreateReservationRequest struct {
	BoxID         int64  `json:"box_id" validate:"required,gt=0"`
	FranjaHoraria string `json:"franja_horaria" validate:"required,max=100"`
}

// CreateReservationResponse reserva creada con su token de retiro.
type CreateReservationResponse struct {
	ID      int64  `json:"id"`
	QRCode  string `json:"qr_code"`
	Message string `json:"message"`
}

// ReservationResponse columnas propias de la reserva.
type ReservationResponse struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	BoxID         int64     `json:"box_id"`
	FranjaHoraria string    `json:"franja_horaria"`
	QRCode        string    `json:"qr_code"`
	Estado        string    `json:"estado"`
	Fecha         time.Time `json:"fecha"`
}

// UserReservationResponse reserva del usuario con datos de caja y tienda.
type UserReservationResponse struct {
	ReservationResponse
	BoxNombre        string          `json:"box_nombre"`
	PrecioDescuento  decimal.Decimal `json:"precio_descuento"`
	FechaVencimiento *time.Time      `json:"fecha_vencimiento"`
	Stock            int             `json:"stock"`
	StoreName        string          `json:"store_name"`
	Direccion        string          `json:"direccion"`
}

// StoreReservationResponse reserva recibida por la tienda con datos del cliente.
type StoreReservationResponse struct {
	ReservationResponse
	UserNombre      string          `json:"user_nombre"`
	Email           string          `json:"email"`
	BoxNombre       string          `json:"box_nombre"`
	PrecioDescuento decimal.Decimal `json:"precio_descuento"`
}
