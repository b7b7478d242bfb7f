package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación del puerto ReservationRepository sobre PostgreSQL (usable con pool o tx).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador de persistencia para reservas.
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `r.id, r.user_id, r.box_id, r.franja_horaria, r.qr_code, r.estado, r.fecha`

func reservationDest(res *entity.Reservation) []any {
	return []any{&res.ID, &res.UserID, &res.BoxID, &res.TimeSlot, &res.QRCode, &res.Status, &res.CreatedAt}
}

// Create inserta la reserva.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	query := `
		INSERT INTO reservas (user_id, box_id, franja_horaria, qr_code, estado)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, fecha`
	err := r.q.QueryRow(ctx, query, res.UserID, res.BoxID, res.TimeSlot, res.QRCode, res.Status).
		Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicatePickupToken
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert reserva: %w", err)
	}
	return nil
}

// GetOwnership reserva con la tienda dueña de su caja.
func (r *ReservationRepo) GetOwnership(ctx context.Context, id int64) (*repository.ReservationOwnership, error) {
	query := `SELECT ` + reservationColumns + `, b.store_id
		FROM reservas r JOIN boxes b ON b.id = r.box_id
		WHERE r.id = $1`
	var o repository.ReservationOwnership
	err := r.q.QueryRow(ctx, query, id).Scan(append(reservationDest(&o.Reservation), &o.StoreID)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reserva: %w", err)
	}
	return &o, nil
}

// MarkPickedUp pasa la reserva a retirado.
func (r *ReservationRepo) MarkPickedUp(ctx context.Context, id int64, onlyPending bool) (bool, error) {
	query := `UPDATE reservas SET estado = 'retirado' WHERE id = $1`
	if onlyPending {
		query += ` AND estado = 'pendiente'`
	}
	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("validar reserva: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CancelPending cancela la reserva del usuario si sigue pendiente y devuelve su caja.
func (r *ReservationRepo) CancelPending(ctx context.Context, id, userID int64) (int64, bool, error) {
	var boxID int64
	err := r.q.QueryRow(ctx, `
		UPDATE reservas SET estado = 'cancelado'
		WHERE id = $1 AND user_id = $2 AND estado = 'pendiente'
		RETURNING box_id`, id, userID).Scan(&boxID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("cancelar reserva: %w", err)
	}
	return boxID, true, nil
}

// ListByUser reservas del usuario con caja y tienda, más recientes primero.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID int64) ([]repository.UserReservationRow, error) {
	query := `SELECT ` + reservationColumns + `,
			b.nombre, b.precio_descuento, b.fecha_vencimiento, b.stock,
			COALESCE(s.nombre, ''), COALESCE(s.direccion, '')
		FROM reservas r
		JOIN boxes b ON b.id = r.box_id
		LEFT JOIN stores s ON s.id = b.store_id
		WHERE r.user_id = $1
		ORDER BY r.fecha DESC, r.id DESC`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservas by user: %w", err)
	}
	defer rows.Close()
	list := make([]repository.UserReservationRow, 0)
	for rows.Next() {
		var row repository.UserReservationRow
		dest := append(reservationDest(&row.Reservation),
			&row.BoxName, &row.DiscountPrice, &row.BoxExpiresAt, &row.BoxStock, &row.StoreName, &row.StoreAddress)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan reserva: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// ListByStore reservas sobre cajas de la tienda con datos del cliente.
func (r *ReservationRepo) ListByStore(ctx context.Context, storeID int64) ([]repository.StoreReservationRow, error) {
	query := `SELECT ` + reservationColumns + `,
			u.nombre, u.email, b.nombre, b.precio_descuento
		FROM reservas r
		JOIN users u ON u.id = r.user_id
		JOIN boxes b ON b.id = r.box_id
		WHERE b.store_id = $1
		ORDER BY r.fecha DESC, r.id DESC`
	rows, err := r.q.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("list reservas by store: %w", err)
	}
	defer rows.Close()
	list := make([]repository.StoreReservationRow, 0)
	for rows.Next() {
		var row repository.StoreReservationRow
		dest := append(reservationDest(&row.Reservation), &row.UserName, &row.UserEmail, &row.BoxName, &row.DiscountPrice)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan reserva: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// GetVoucher datos del comprobante de retiro.
func (r *ReservationRepo) GetVoucher(ctx context.Context, id int64) (*repository.ReservationVoucher, error) {
	query := `SELECT ` + reservationColumns + `,
			u.nombre, b.nombre, b.precio_descuento,
			COALESCE(s.nombre, ''), COALESCE(s.direccion, ''), COALESCE(s.hora_inicio, ''), COALESCE(s.hora_fin, '')
		FROM reservas r
		JOIN users u ON u.id = r.user_id
		JOIN boxes b ON b.id = r.box_id
		LEFT JOIN stores s ON s.id = b.store_id
		WHERE r.id = $1`
	var v repository.ReservationVoucher
	dest := append(reservationDest(&v.Reservation),
		&v.UserName, &v.BoxName, &v.DiscountPrice, &v.StoreName, &v.StoreAddress, &v.StoreOpensAt, &v.StoreClosesAt)
	if err := r.q.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comprobante: %w", err)
	}
	return &v, nil
}

// StoreSales cuenta las reservas retiradas de la tienda y suma su precio con descuento.
func (r *ReservationRepo) StoreSales(ctx context.Context, storeID int64) (repository.StoreSales, error) {
	var s repository.StoreSales
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(r.id), COALESCE(SUM(b.precio_descuento), 0)
		FROM reservas r JOIN boxes b ON b.id = r.box_id
		WHERE b.store_id = $1 AND r.estado = 'retirado'`, storeID).Scan(&s.PickedUp, &s.Revenue)
	if err != nil {
		return s, fmt.Errorf("store sales: %w", err)
	}
	return s, nil
}
