package repository

import (
	"context"

	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
)

// StoreRepository define el puerto de persistencia para Store.
type StoreRepository interface {
	// Create asigna store.ID. Falla con domain.ErrConflict si el usuario ya tiene tienda.
	Create(ctx context.Context, store *entity.Store) error
	// GetByUserID devuelve (nil, nil) si el usuario no tiene tienda.
	GetByUserID(ctx context.Context, userID int64) (*entity.Store, error)
}
