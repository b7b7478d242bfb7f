package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/memory"
)

func TestRunReservation_RollbackConservaEscriturasAjenas(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	storeID := mem.SeedStore(entity.Store{Name: "A"})
	boxID := mem.SeedBox(entity.Box{StoreID: storeID, Name: "B1", Stock: 2})
	otherBox := mem.SeedBox(entity.Box{StoreID: storeID, Name: "B2", Stock: 1})

	existing := &entity.Reservation{UserID: 1, BoxID: otherBox, QRCode: "previa", Status: entity.ReservationPending}
	require.NoError(t, mem.Reservations().Create(ctx, existing))

	boom := errors.New("fallo")
	err := mem.RunReservation(ctx, func(boxes repository.BoxRepository, reservations repository.ReservationRepository) error {
		require.NoError(t, reservations.Create(ctx, &entity.Reservation{
			UserID: 2, BoxID: boxID, QRCode: "nueva", Status: entity.ReservationPending,
		}))
		ok, err := boxes.DecrementStock(ctx, boxID)
		require.NoError(t, err)
		require.True(t, ok)

		// escrituras fuera de la transacción mientras sigue abierta
		picked, err := mem.Reservations().MarkPickedUp(ctx, existing.ID, true)
		require.NoError(t, err)
		require.True(t, picked)
		require.NoError(t, mem.Boxes().SetNormalPrice(ctx, otherBox, decimal.NewFromInt(9000)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 2, mem.BoxStock(boxID))
	assert.Equal(t, 1, mem.ReservationCount())

	res, ok := mem.Reservation(existing.ID)
	require.True(t, ok)
	assert.Equal(t, entity.ReservationPickedUp, res.Status)
	b, ok := mem.Box(otherBox)
	require.True(t, ok)
	require.True(t, b.NormalPrice.Valid)
	assert.True(t, b.NormalPrice.Decimal.Equal(decimal.NewFromInt(9000)))
}

func TestRunReservation_RollbackRestauraCancelacion(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	boxID := mem.SeedBox(entity.Box{Name: "B1", Stock: 0})
	res := &entity.Reservation{UserID: 7, BoxID: boxID, QRCode: "q", Status: entity.ReservationPending}
	require.NoError(t, mem.Reservations().Create(ctx, res))

	mem.Faults.IncrementStock = errors.New("sin conexión")
	err := mem.RunReservation(ctx, func(boxes repository.BoxRepository, reservations repository.ReservationRepository) error {
		_, ok, err := reservations.CancelPending(ctx, res.ID, 7)
		require.NoError(t, err)
		require.True(t, ok)
		return boxes.IncrementStock(ctx, boxID)
	})
	require.Error(t, err)

	got, _ := mem.Reservation(res.ID)
	assert.Equal(t, entity.ReservationPending, got.Status)
	assert.Equal(t, 0, mem.BoxStock(boxID))
}

func TestRunSignup_RollbackBorraUsuario(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	mem.Faults.CreateStore = errors.New("fallo")

	err := mem.RunSignup(ctx, func(users repository.UserRepository, stores repository.StoreRepository) error {
		u := &entity.User{Email: "t@mail.com", Role: entity.RoleStore}
		require.NoError(t, users.Create(ctx, u))
		return stores.Create(ctx, &entity.Store{UserID: u.ID, Name: "T"})
	})
	require.Error(t, err)

	u, err := mem.Users().GetByEmail(ctx, "t@mail.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}
