package entity

import "time"

// ReservationStatus estado de una reserva (valores persistidos en reservas.estado).
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pendiente"
	ReservationPickedUp  ReservationStatus = "retirado"
	ReservationCancelled ReservationStatus = "cancelado"
)

var validNext = map[ReservationStatus]map[ReservationStatus]bool{
	ReservationPending:   {ReservationPickedUp: true, ReservationCancelled: true},
	ReservationPickedUp:  {},
	ReservationCancelled: {},
}

// CanTransition indica si la máquina de estados permite pasar de from a to.
func CanTransition(from, to ReservationStatus) bool {
	return validNext[from][to]
}

// Reservation reclamo de un usuario sobre una unidad de stock de una caja.
type Reservation struct {
	ID        int64
	UserID    int64
	BoxID     int64
	TimeSlot  string // franja_horaria, etiqueta libre
	QRCode    string // token de retiro; no es una credencial
	Status    ReservationStatus
	CreatedAt time.Time
}
