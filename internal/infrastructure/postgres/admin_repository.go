package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

var _ repository.AdminReportRepository = (*AdminReportRepo)(nil)

// AdminReportRepo consultas de solo lectura del panel de administración.
type AdminReportRepo struct {
	q Querier
}

// NewAdminReportRepository construye el adaptador.
func NewAdminReportRepository(q Querier) *AdminReportRepo {
	return &AdminReportRepo{q: q}
}

// ListUsers todos los usuarios sin hash de contraseña.
func (r *AdminReportRepo) ListUsers(ctx context.Context) ([]repository.UserSummary, error) {
	rows, err := r.q.Query(ctx, `SELECT id, nombre, email, rol, fecha_registro FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	list := make([]repository.UserSummary, 0)
	for rows.Next() {
		var u repository.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

const storeOwnerSelect = `
		SELECT s.id, s.user_id, s.nombre, s.direccion, s.telefono, s.descripcion, s.hora_inicio, s.hora_fin,
			s.lat, s.lng, u.nombre, u.email`

// ListStores tiendas con su dueño.
func (r *AdminReportRepo) ListStores(ctx context.Context) ([]repository.StoreWithOwner, error) {
	return r.listStores(ctx, storeOwnerSelect+`, 0
		FROM stores s JOIN users u ON u.id = s.user_id
		ORDER BY s.id`)
}

// ListStoresWithBoxCount tiendas con su dueño y el número de cajas publicadas.
func (r *AdminReportRepo) ListStoresWithBoxCount(ctx context.Context) ([]repository.StoreWithOwner, error) {
	return r.listStores(ctx, storeOwnerSelect+`, COUNT(b.id)
		FROM stores s
		JOIN users u ON u.id = s.user_id
		LEFT JOIN boxes b ON b.store_id = s.id
		GROUP BY s.id, u.id
		ORDER BY s.id`)
}

func (r *AdminReportRepo) listStores(ctx context.Context, query string) ([]repository.StoreWithOwner, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()
	list := make([]repository.StoreWithOwner, 0)
	for rows.Next() {
		var s repository.StoreWithOwner
		if err := rows.Scan(
			&s.Store.ID, &s.Store.UserID, &s.Store.Name, &s.Store.Address, &s.Store.Phone, &s.Store.Description,
			&s.Store.OpensAt, &s.Store.ClosesAt, &s.Store.Lat, &s.Store.Lng,
			&s.OwnerName, &s.OwnerEmail, &s.Publications,
		); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CountUsers total de usuarios registrados.
func (r *AdminReportRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
