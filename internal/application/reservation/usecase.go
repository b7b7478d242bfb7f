// Package reservation implementa el ciclo de vida de las reservas: crear (descontando stock),
// validar el retiro, cancelar (reponiendo stock) y consultar.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

// Options reglas configurables.
type Options struct {
	// StrictPickup: validar una reserva que no está pendiente devuelve ErrInvalidTransition.
	// En false se conserva el comportamiento permisivo (revalidar responde OK).
	StrictPickup bool
}

// UseCase casos de uso de reservas.
type UseCase struct {
	reservations repository.ReservationRepository
	tx           TxRunner
	publisher    EventPublisher
	voucher      VoucherRenderer
	opts         Options
	now          func() time.Time
	token        func(userID, boxID int64, at time.Time) string
}

// NewUseCase construye el caso de uso. publisher y voucher pueden ser nil.
func NewUseCase(reservations repository.ReservationRepository, tx TxRunner, publisher EventPublisher, voucher VoucherRenderer, opts Options) *UseCase {
	return &UseCase{
		reservations: reservations,
		tx:           tx,
		publisher:    publisher,
		voucher:      voucher,
		opts:         opts,
		now:          time.Now,
		token:        PickupToken,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// WithTokens reemplaza el generador de tokens de retiro (tests).
func (uc *UseCase) WithTokens(token func(userID, boxID int64, at time.Time) string) *UseCase {
	uc.token = token
	return uc
}

// PickupToken arma el token de retiro "{user}-{box}-{unix ms}-{8 hex}".
func PickupToken(userID, boxID int64, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%d-%d-%s", userID, boxID, at.UnixMilli(), suffix)
}

// Create reserva una unidad de la caja. Inserta la reserva y descuenta el stock en la
// misma transacción; sin stock devuelve ErrOutOfStock y no deja cambios.
func (uc *UseCase) Create(ctx context.Context, p entity.Principal, in dto.CreateReservationRequest) (*dto.CreateReservationResponse, error) {
	slot := strings.TrimSpace(in.FranjaHoraria)
	if in.BoxID <= 0 || slot == "" {
		return nil, fmt.Errorf("%w: box_id y franja_horaria son obligatorios", domain.ErrInvalidInput)
	}

	now := uc.now()
	res := &entity.Reservation{
		UserID:   p.UserID,
		BoxID:    in.BoxID,
		TimeSlot: slot,
		QRCode:   uc.token(p.UserID, in.BoxID, now),
		Status:   entity.ReservationPending,
	}
	storeID, err := uc.insert(ctx, res)
	if errors.Is(err, repository.ErrDuplicatePickupToken) {
		log.Warn().Int64("user_id", p.UserID).Int64("box_id", in.BoxID).Msg("token de retiro duplicado, reintentando")
		res.QRCode = uc.token(p.UserID, in.BoxID, uc.now())
		storeID, err = uc.insert(ctx, res)
	}
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, Event{
		Type: EventCreated, ReservationID: res.ID, UserID: res.UserID, BoxID: res.BoxID, StoreID: storeID,
		Status: string(res.Status), OccurredAt: now,
	})
	return &dto.CreateReservationResponse{ID: res.ID, QRCode: res.QRCode, Message: "Reserva creada"}, nil
}

// insert ejecuta la transacción de reserva y devuelve la tienda dueña de la caja.
func (uc *UseCase) insert(ctx context.Context, res *entity.Reservation) (int64, error) {
	var storeID int64
	err := uc.tx.RunReservation(ctx, func(boxes repository.BoxRepository, reservations repository.ReservationRepository) error {
		box, err := boxes.GetByID(ctx, res.BoxID)
		if err != nil {
			return fmt.Errorf("obtener caja: %w", err)
		}
		if box == nil {
			return domain.ErrNotFound
		}
		if box.Stock <= 0 {
			return domain.ErrOutOfStock
		}
		storeID = box.StoreID
		if err := reservations.Create(ctx, res); err != nil {
			return fmt.Errorf("crear reserva: %w", err)
		}
		ok, err := boxes.DecrementStock(ctx, res.BoxID)
		if err != nil {
			return fmt.Errorf("descontar stock: %w", err)
		}
		if !ok {
			return domain.ErrOutOfStock
		}
		return nil
	})
	return storeID, err
}

// ListMine reservas del usuario, más recientes primero.
func (uc *UseCase) ListMine(ctx context.Context, p entity.Principal) ([]dto.UserReservationResponse, error) {
	rows, err := uc.reservations.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("listar reservas: %w", err)
	}
	out := make([]dto.UserReservationResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.UserReservationResponse{
			ReservationResponse: toReservationResponse(r.Reservation),
			BoxNombre:           r.BoxName,
			PrecioDescuento:     r.DiscountPrice,
			FechaVencimiento:    r.BoxExpiresAt,
			Stock:               r.BoxStock,
			StoreName:           r.StoreName,
			Direccion:           r.StoreAddress,
		})
	}
	return out, nil
}

// ListForStore reservas sobre cajas de la tienda del principal. Sin tienda: lista vacía.
func (uc *UseCase) ListForStore(ctx context.Context, p entity.Principal) ([]dto.StoreReservationResponse, error) {
	out := make([]dto.StoreReservationResponse, 0)
	if !p.HasStore() {
		return out, nil
	}
	rows, err := uc.reservations.ListByStore(ctx, p.StoreIDOrZero())
	if err != nil {
		return nil, fmt.Errorf("listar reservas de tienda: %w", err)
	}
	for _, r := range rows {
		out = append(out, dto.StoreReservationResponse{
			ReservationResponse: toReservationResponse(r.Reservation),
			UserNombre:          r.UserName,
			Email:               r.UserEmail,
			BoxNombre:           r.BoxName,
			PrecioDescuento:     r.DiscountPrice,
		})
	}
	return out, nil
}

// Validate marca la reserva como retirada. Solo la tienda dueña de la caja puede hacerlo.
func (uc *UseCase) Validate(ctx context.Context, p entity.Principal, id int64) error {
	own, err := uc.reservations.GetOwnership(ctx, id)
	if err != nil {
		return fmt.Errorf("obtener reserva: %w", err)
	}
	if own == nil {
		return domain.ErrNotFound
	}
	if !p.HasStore() || own.StoreID != p.StoreIDOrZero() {
		return domain.ErrForbidden
	}

	strict := uc.opts.StrictPickup
	if strict && !entity.CanTransition(own.Reservation.Status, entity.ReservationPickedUp) {
		return fmt.Errorf("%w: la reserva está %s", domain.ErrInvalidTransition, own.Reservation.Status)
	}
	ok, err := uc.reservations.MarkPickedUp(ctx, id, strict)
	if err != nil {
		return fmt.Errorf("validar reserva: %w", err)
	}
	if !ok {
		if strict {
			// otra petición la validó o canceló entre la lectura y el update
			return fmt.Errorf("%w: la reserva ya no está pendiente", domain.ErrInvalidTransition)
		}
		return domain.ErrNotFound
	}

	uc.publish(ctx, Event{
		Type: EventPickedUp, ReservationID: id, UserID: own.Reservation.UserID, BoxID: own.Reservation.BoxID,
		StoreID: own.StoreID, Status: string(entity.ReservationPickedUp), OccurredAt: uc.now(),
	})
	return nil
}

// Cancel cancela una reserva pendiente del usuario y devuelve una unidad al stock.
// Reservas ajenas, inexistentes o no pendientes responden igual: ErrNotFound.
func (uc *UseCase) Cancel(ctx context.Context, p entity.Principal, id int64) error {
	var boxID, storeID int64
	err := uc.tx.RunReservation(ctx, func(boxes repository.BoxRepository, reservations repository.ReservationRepository) error {
		b, ok, err := reservations.CancelPending(ctx, id, p.UserID)
		if err != nil {
			return fmt.Errorf("cancelar reserva: %w", err)
		}
		if !ok {
			return domain.ErrNotFound
		}
		boxID = b
		if err := boxes.IncrementStock(ctx, boxID); err != nil {
			return fmt.Errorf("reponer stock: %w", err)
		}
		box, err := boxes.GetByID(ctx, boxID)
		if err != nil {
			return fmt.Errorf("obtener caja: %w", err)
		}
		if box != nil {
			storeID = box.StoreID
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.publish(ctx, Event{
		Type: EventCancelled, ReservationID: id, UserID: p.UserID, BoxID: boxID, StoreID: storeID,
		Status: string(entity.ReservationCancelled), OccurredAt: uc.now(),
	})
	return nil
}

// Voucher PDF del comprobante de retiro. Solo para el dueño de la reserva.
func (uc *UseCase) Voucher(ctx context.Context, p entity.Principal, id int64) ([]byte, error) {
	if uc.voucher == nil {
		return nil, fmt.Errorf("comprobante no configurado")
	}
	v, err := uc.reservations.GetVoucher(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener comprobante: %w", err)
	}
	if v == nil || v.Reservation.UserID != p.UserID {
		return nil, domain.ErrNotFound
	}
	pdf, err := uc.voucher.Render(*v)
	if err != nil {
		return nil, fmt.Errorf("generar comprobante: %w", err)
	}
	return pdf, nil
}

func (uc *UseCase) publish(ctx context.Context, ev Event) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Type).Int64("reservation_id", ev.ReservationID).Msg("no se pudo publicar evento")
	}
}

func toReservationResponse(r entity.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		BoxID:         r.BoxID,
		FranjaHoraria: r.TimeSlot,
		QRCode:        r.QRCode,
		Estado:        string(r.Status),
		Fecha:         r.CreatedAt,
	}
}
