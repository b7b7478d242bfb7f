//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/rescuebox-api/internal/application/auth"
	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/application/reservation"
	"github.com/jhoicas/rescuebox-api/internal/application/usecase"
	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/events"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/postgres"
)

// setupDB levanta PostgreSQL en un contenedor, aplica las migraciones y devuelve el pool.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("rescuebox_test"),
		tcpostgres.WithUsername("rescuebox"),
		tcpostgres.WithPassword("rescuebox"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.NewPoolFromDSN(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applied, err := postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	return pool
}

type seeded struct {
	storeOwner, u1, u2 int64
	storeID, otherSID  int64
	pan, leche         int64
}

func seed(t *testing.T, pool *pgxpool.Pool) seeded {
	t.Helper()
	ctx := context.Background()
	users := postgres.NewUserRepository(pool)
	stores := postgres.NewStoreRepository(pool)
	products := postgres.NewProductRepository(pool)

	mk := func(email, role string) int64 {
		u := &entity.User{Name: email, Email: email, PasswordHash: "x", Role: role}
		require.NoError(t, users.Create(ctx, u))
		return u.ID
	}
	var s seeded
	s.storeOwner = mk("tienda@mail.com", entity.RoleStore)
	other := mk("otra@mail.com", entity.RoleStore)
	s.u1 = mk("u1@mail.com", entity.RoleUser)
	s.u2 = mk("u2@mail.com", entity.RoleUser)

	st := &entity.Store{UserID: s.storeOwner, Name: "Panadería", Address: "Av. 1"}
	require.NoError(t, stores.Create(ctx, st))
	s.storeID = st.ID
	ost := &entity.Store{UserID: other, Name: "Otra"}
	require.NoError(t, stores.Create(ctx, ost))
	s.otherSID = ost.ID

	pan := &entity.Product{StoreID: s.storeID, Name: "Pan", Price: decimal.NewFromInt(2000), Stock: 10}
	require.NoError(t, products.Create(ctx, pan))
	leche := &entity.Product{StoreID: s.storeID, Name: "Leche", Price: decimal.NewFromInt(3500), Stock: 10}
	require.NoError(t, products.Create(ctx, leche))
	s.pan, s.leche = pan.ID, leche.ID
	return s
}

func newBox(t *testing.T, pool *pgxpool.Pool, s seeded, stock int) int64 {
	t.Helper()
	b := &entity.Box{
		StoreID: s.storeID, Name: "Caja", DiscountPrice: decimal.NewFromInt(5000), Stock: stock,
		Lines: []entity.BoxLine{{ProductID: s.pan, Quantity: 2}, {ProductID: s.leche, Quantity: 1}},
	}
	require.NoError(t, postgres.NewBoxRepository(pool).Create(context.Background(), b))
	return b.ID
}

func stockOf(t *testing.T, pool *pgxpool.Pool, boxID int64) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT stock FROM boxes WHERE id = $1`, boxID).Scan(&n))
	return n
}

func countReservations(t *testing.T, pool *pgxpool.Pool, boxID int64) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM reservas WHERE box_id = $1`, boxID).Scan(&n))
	return n
}

func reservationUC(pool *pgxpool.Pool, strict bool) *reservation.UseCase {
	return reservation.NewUseCase(postgres.NewReservationRepository(pool), postgres.NewTxRunner(pool),
		events.NopPublisher{}, nil, reservation.Options{StrictPickup: strict})
}

func TestMigrate_Idempotente(t *testing.T) {
	pool := setupDB(t)
	applied, err := postgres.Migrate(context.Background(), pool)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestReservas_ConcurrenciaNoSobreVende(t *testing.T) {
	pool := setupDB(t)
	s := seed(t, pool)
	boxID := newBox(t, pool, s, 3)
	uc := reservationUC(pool, true)

	const clients = 12
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, outOfStock := 0, 0
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid := s.u1
			if i%2 == 1 {
				uid = s.u2
			}
			_, err := uc.Create(context.Background(), entity.Principal{UserID: uid, Role: entity.RoleUser},
				dto.CreateReservationRequest{BoxID: boxID, FranjaHoraria: "18:00-19:00"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrOutOfStock):
				outOfStock++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, clients-3, outOfStock)
	assert.Equal(t, 0, stockOf(t, pool, boxID))
	assert.Equal(t, 3, countReservations(t, pool, boxID))
}

func TestReservas_CicloCompleto(t *testing.T) {
	pool := setupDB(t)
	s := seed(t, pool)
	boxID := newBox(t, pool, s, 2)
	uc := reservationUC(pool, true)
	ctx := context.Background()
	u1 := entity.Principal{UserID: s.u1, Role: entity.RoleUser}
	u2 := entity.Principal{UserID: s.u2, Role: entity.RoleUser}
	store := entity.Principal{UserID: s.storeOwner, Role: entity.RoleStore, StoreID: &s.storeID}
	other := entity.Principal{Role: entity.RoleStore, StoreID: &s.otherSID}

	a, err := uc.Create(ctx, u1, dto.CreateReservationRequest{BoxID: boxID, FranjaHoraria: "18:00"})
	require.NoError(t, err)
	b, err := uc.Create(ctx, u2, dto.CreateReservationRequest{BoxID: boxID, FranjaHoraria: "19:00"})
	require.NoError(t, err)
	assert.NotEqual(t, a.QRCode, b.QRCode)
	assert.Equal(t, 0, stockOf(t, pool, boxID))

	_, err = uc.Create(ctx, u1, dto.CreateReservationRequest{BoxID: boxID, FranjaHoraria: "20:00"})
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 2, countReservations(t, pool, boxID))

	// cancelación ajena no cambia nada
	assert.ErrorIs(t, uc.Cancel(ctx, u2, a.ID), domain.ErrNotFound)
	require.NoError(t, uc.Cancel(ctx, u1, a.ID))
	assert.Equal(t, 1, stockOf(t, pool, boxID))
	assert.ErrorIs(t, uc.Cancel(ctx, u1, a.ID), domain.ErrNotFound)
	assert.Equal(t, 1, stockOf(t, pool, boxID))

	assert.ErrorIs(t, uc.Validate(ctx, other, b.ID), domain.ErrForbidden)
	require.NoError(t, uc.Validate(ctx, store, b.ID))
	assert.ErrorIs(t, uc.Validate(ctx, store, b.ID), domain.ErrInvalidTransition)
	assert.ErrorIs(t, uc.Validate(ctx, store, a.ID), domain.ErrInvalidTransition, "cancelada no se retira")

	mine, err := uc.ListMine(ctx, u2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, string(entity.ReservationPickedUp), mine[0].Estado)
	assert.Equal(t, "Panadería", mine[0].StoreName)

	stats, err := usecase.NewStoreUseCase(postgres.NewReservationRepository(pool)).Stats(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.VentasTotal)
	assert.True(t, stats.Ingresos.Equal(decimal.NewFromInt(5000)))
}

func TestReservas_ValidacionLegacyPermiteRevalidar(t *testing.T) {
	pool := setupDB(t)
	s := seed(t, pool)
	boxID := newBox(t, pool, s, 1)
	uc := reservationUC(pool, false)
	ctx := context.Background()
	store := entity.Principal{UserID: s.storeOwner, Role: entity.RoleStore, StoreID: &s.storeID}

	r, err := uc.Create(ctx, entity.Principal{UserID: s.u1, Role: entity.RoleUser},
		dto.CreateReservationRequest{BoxID: boxID, FranjaHoraria: "18:00"})
	require.NoError(t, err)
	require.NoError(t, uc.Validate(ctx, store, r.ID))
	assert.NoError(t, uc.Validate(ctx, store, r.ID))
}

func TestBoxes_PrecioNormalPerezoso(t *testing.T) {
	pool := setupDB(t)
	s := seed(t, pool)
	ctx := context.Background()
	boxID := newBox(t, pool, s, 1)
	boxes := postgres.NewBoxRepository(pool)

	uc := usecase.NewBoxUseCase(boxes, postgres.NewProductRepository(pool))
	list, err := uc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].PrecioNormal.Equal(decimal.NewFromInt(7500)))
	require.Len(t, list[0].Productos, 2)

	// el valor persistido no se recalcula aunque cambie el precio del producto
	_, err = pool.Exec(ctx, `UPDATE products SET precio = 9999 WHERE id = $1`, s.pan)
	require.NoError(t, err)
	require.NoError(t, boxes.SetNormalPrice(ctx, boxID, decimal.NewFromInt(1)))
	got, err := uc.Get(ctx, boxID)
	require.NoError(t, err)
	assert.True(t, got.PrecioNormal.Equal(decimal.NewFromInt(7500)))
}

func TestSignup_TransaccionUsuarioYTienda(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	users := postgres.NewUserRepository(pool)
	stores := postgres.NewStoreRepository(pool)
	authUC := auth.NewAuthUseCase(users, stores, postgres.NewTxRunner(pool), auth.JWTConfig{Secret: "s", ExpMinutes: 5})

	out, err := authUC.Register(ctx, dto.RegisterRequest{Nombre: "Verdulería", Email: "v@mail.com", Contrasena: "secreto1", Rol: "store"})
	require.NoError(t, err)
	st, err := stores.GetByUserID(ctx, out.ID)
	require.NoError(t, err)
	require.NotNil(t, st)

	_, err = authUC.Register(ctx, dto.RegisterRequest{Email: "V@mail.com", Contrasena: "secreto1"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	login, err := authUC.Login(ctx, dto.LoginRequest{Email: "v@mail.com", Contrasena: "secreto1"})
	require.NoError(t, err)
	require.NotNil(t, login.User.StoreID)
	assert.Equal(t, st.ID, *login.User.StoreID)
}
