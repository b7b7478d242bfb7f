package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/rescuebox-api/internal/application/auth"
	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

// AccountCreator alta atómica de usuario (y tienda). Implementado por auth.AuthUseCase.
type AccountCreator interface {
	Signup(ctx context.Context, in auth.SignupInput) (*entity.User, *entity.Store, error)
}

// AdminUseCase panel de administración.
type AdminUseCase struct {
	reports  repository.AdminReportRepository
	accounts AccountCreator
}

// NewAdminUseCase construye el caso de uso.
func NewAdminUseCase(reports repository.AdminReportRepository, accounts AccountCreator) *AdminUseCase {
	return &AdminUseCase{reports: reports, accounts: accounts}
}

// ListUsers todos los usuarios.
func (uc *AdminUseCase) ListUsers(ctx context.Context) ([]dto.UserSummaryResponse, error) {
	users, err := uc.reports.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar usuarios: %w", err)
	}
	out := make([]dto.UserSummaryResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UserSummaryResponse{
			ID: u.ID, Nombre: u.Name, Email: u.Email, Rol: u.Role, FechaRegistro: u.RegisteredAt,
		})
	}
	return out, nil
}

// ListStores tiendas con su dueño.
func (uc *AdminUseCase) ListStores(ctx context.Context) ([]dto.StoreSummaryResponse, error) {
	stores, err := uc.reports.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar tiendas: %w", err)
	}
	return toStoreSummaries(stores, false), nil
}

// ListStoresWithBoxes tiendas con dueño y cantidad de cajas publicadas.
func (uc *AdminUseCase) ListStoresWithBoxes(ctx context.Context) ([]dto.StoreSummaryResponse, error) {
	stores, err := uc.reports.ListStoresWithBoxCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar publicaciones: %w", err)
	}
	return toStoreSummaries(stores, true), nil
}

// Stats total de usuarios.
func (uc *AdminUseCase) Stats(ctx context.Context) (*dto.AdminStatsResponse, error) {
	n, err := uc.reports.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("contar usuarios: %w", err)
	}
	return &dto.AdminStatsResponse{Users: n}, nil
}

// CreateStore crea un usuario con rol store y su tienda en una transacción.
func (uc *AdminUseCase) CreateStore(ctx context.Context, in dto.CreateStoreRequest) (*dto.CreateStoreResponse, error) {
	user, store, err := uc.accounts.Signup(ctx, auth.SignupInput{
		Name:     strings.TrimSpace(in.NombreUser),
		Email:    in.Email,
		Password: in.Contrasena,
		Role:     entity.RoleStore,
		Store: &entity.Store{
			Name:        strings.TrimSpace(in.NombreStore),
			Address:     in.Direccion,
			Phone:       in.Telefono,
			Description: in.Descripcion,
			OpensAt:     in.HoraInicio,
			ClosesAt:    in.HoraFin,
			Lat:         in.Lat,
			Lng:         in.Lng,
		},
	})
	if err != nil {
		return nil, err
	}
	return &dto.CreateStoreResponse{UserID: user.ID, StoreID: store.ID, Message: "Tienda creada correctamente"}, nil
}

func toStoreSummaries(stores []repository.StoreWithOwner, withCount bool) []dto.StoreSummaryResponse {
	out := make([]dto.StoreSummaryResponse, 0, len(stores))
	for _, s := range stores {
		row := dto.StoreSummaryResponse{
			StoreID:     s.Store.ID,
			StoreNombre: s.Store.Name,
			Direccion:   s.Store.Address,
			Telefono:    s.Store.Phone,
			Descripcion: s.Store.Description,
			HoraInicio:  s.Store.OpensAt,
			HoraFin:     s.Store.ClosesAt,
			UserID:      s.Store.UserID,
			UserNombre:  s.OwnerName,
			Email:       s.OwnerEmail,
		}
		if withCount {
			n := s.Publications
			row.Publicaciones = &n
		}
		out = append(out, row)
	}
	return out
}
