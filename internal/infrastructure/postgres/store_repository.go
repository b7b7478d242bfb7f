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

var _ repository.StoreRepository = (*StoreRepo)(nil)

// StoreRepo implementación del puerto StoreRepository sobre PostgreSQL.
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

// Create persiste la tienda. Un usuario solo puede tener una (UNIQUE stores.user_id).
func (r *StoreRepo) Create(ctx context.Context, s *entity.Store) error {
	query := `
		INSERT INTO stores (user_id, nombre, direccion, telefono, descripcion, hora_inicio, hora_fin, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		s.UserID, s.Name, s.Address, s.Phone, s.Description, s.OpensAt, s.ClosesAt, s.Lat, s.Lng,
	).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el usuario ya tiene una tienda", domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

// GetByUserID obtiene la tienda del usuario.
func (r *StoreRepo) GetByUserID(ctx context.Context, userID int64) (*entity.Store, error) {
	query := `
		SELECT id, user_id, nombre, direccion, telefono, descripcion, hora_inicio, hora_fin, lat, lng
		FROM stores WHERE user_id = $1`
	var s entity.Store
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.Name, &s.Address, &s.Phone, &s.Description, &s.OpensAt, &s.ClosesAt, &s.Lat, &s.Lng,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get store by user: %w", err)
	}
	return &s, nil
}
