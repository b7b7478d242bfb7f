package reservation

import (
	"context"
	"time"

	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

// TxRunner ejecuta fn con repos de cajas y reservas atados a una transacción.
// Si fn devuelve error no queda ningún cambio persistido.
type TxRunner interface {
	RunReservation(ctx context.Context, fn func(boxes repository.BoxRepository, reservations repository.ReservationRepository) error) error
}

// Tipos de evento publicados tras cada transición.
const (
	EventCreated   = "reservation.created"
	EventPickedUp  = "reservation.picked_up"
	EventCancelled = "reservation.cancelled"
)

// Event hecho de dominio sobre una reserva, publicado después del commit.
type Event struct {
	Type          string    `json:"type"`
	ReservationID int64     `json:"reservation_id"`
	UserID        int64     `json:"user_id"`
	BoxID         int64     `json:"box_id"`
	StoreID       int64     `json:"store_id,omitempty"`
	Status        string    `json:"estado"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher salida de eventos (Kafka o no-op). Los fallos no afectan la operación.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// VoucherRenderer genera el comprobante de retiro (PDF).
type VoucherRenderer interface {
	Render(v repository.ReservationVoucher) ([]byte, error)
}
