package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

// StoreUseCase estadísticas de la tienda.
type StoreUseCase struct {
	reservations repository.ReservationRepository
}

// NewStoreUseCase construye el caso de uso.
func NewStoreUseCase(reservations repository.ReservationRepository) *StoreUseCase {
	return &StoreUseCase{reservations: reservations}
}

// Stats reservas retiradas y su importe con descuento.
func (uc *StoreUseCase) Stats(ctx context.Context, p entity.Principal) (*dto.StoreStatsResponse, error) {
	if !p.HasStore() {
		return &dto.StoreStatsResponse{Ingresos: decimal.Zero}, nil
	}
	sales, err := uc.reservations.StoreSales(ctx, p.StoreIDOrZero())
	if err != nil {
		return nil, fmt.Errorf("estadísticas de tienda: %w", err)
	}
	return &dto.StoreStatsResponse{VentasTotal: sales.PickedUp, Ingresos: sales.Revenue}, nil
}
