package repository

import (
	"context"
	"time"

	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
)

// UserSummary usuario sin hash de contraseña para listados de administración.
type UserSummary struct {
	ID           int64
	Name         string
	Email        string
	Role         string
	RegisteredAt time.Time
}

// StoreWithOwner tienda con su usuario dueño y, opcionalmente, cuántas cajas publicó.
type StoreWithOwner struct {
	Store        entity.Store
	OwnerName    string
	OwnerEmail   string
	Publications int
}

// AdminReportRepository consultas de solo lectura para el panel de administración.
type AdminReportRepository interface {
	ListUsers(ctx context.Context) ([]UserSummary, error)
	ListStores(ctx context.Context) ([]StoreWithOwner, error)
	ListStoresWithBoxCount(ctx context.Context) ([]StoreWithOwner, error)
	CountUsers(ctx context.Context) (int, error)
}
