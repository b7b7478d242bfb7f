package reservation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/application/reservation"
	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []reservation.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev reservation.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeVoucher struct{ last repository.ReservationVoucher }

func (f *fakeVoucher) Render(v repository.ReservationVoucher) ([]byte, error) {
	f.last = v
	return []byte("%PDF-fake"), nil
}

type fixture struct {
	mem       *memory.Store
	uc        *reservation.UseCase
	pub       *recordingPublisher
	voucher   *fakeVoucher
	storeA    entity.Principal
	storeB    entity.Principal
	u1, u2    entity.Principal
	boxID     int64
	foreignID int64
}

func principal(id int64, role string, storeID *int64) entity.Principal {
	return entity.Principal{UserID: id, Email: "x@mail.com", Role: role, StoreID: storeID}
}

func newFixture(t *testing.T, stock int, strict bool) *fixture {
	t.Helper()
	mem := memory.New()
	ownerA := mem.SeedUser(entity.User{Name: "Tienda A", Email: "a@mail.com", Role: entity.RoleStore})
	ownerB := mem.SeedUser(entity.User{Name: "Tienda B", Email: "b@mail.com", Role: entity.RoleStore})
	u1 := mem.SeedUser(entity.User{Name: "U1", Email: "u1@mail.com", Role: entity.RoleUser})
	u2 := mem.SeedUser(entity.User{Name: "U2", Email: "u2@mail.com", Role: entity.RoleUser})
	storeA := mem.SeedStore(entity.Store{UserID: ownerA, Name: "A", Address: "Calle 1"})
	storeB := mem.SeedStore(entity.Store{UserID: ownerB, Name: "B"})
	boxID := mem.SeedBox(entity.Box{StoreID: storeA, Name: "B1", DiscountPrice: decimal.NewFromInt(5000), Stock: stock})
	foreign := mem.SeedBox(entity.Box{StoreID: storeB, Name: "Otra", DiscountPrice: decimal.NewFromInt(1000), Stock: 3})

	pub := &recordingPublisher{}
	v := &fakeVoucher{}
	uc := reservation.NewUseCase(mem.Reservations(), mem, pub, v, reservation.Options{StrictPickup: strict})
	return &fixture{
		mem: mem, uc: uc, pub: pub, voucher: v,
		storeA: principal(ownerA, entity.RoleStore, &storeA),
		storeB: principal(ownerB, entity.RoleStore, &storeB),
		u1:     principal(u1, entity.RoleUser, nil),
		u2:     principal(u2, entity.RoleUser, nil),
		boxID:  boxID, foreignID: foreign,
	}
}

func (f *fixture) reserve(t *testing.T, p entity.Principal) (*dto.CreateReservationResponse, error) {
	t.Helper()
	return f.uc.Create(context.Background(), p, dto.CreateReservationRequest{BoxID: f.boxID, FranjaHoraria: "18:00-19:00"})
}

func TestCreate_DescuentaStockYGeneraToken(t *testing.T) {
	f := newFixture(t, 3, true)

	out, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	assert.Regexp(t, `^\d+-\d+-\d+-[0-9a-f]{8}$`, out.QRCode)
	assert.Equal(t, 2, f.mem.BoxStock(f.boxID))

	res, ok := f.mem.Reservation(out.ID)
	require.True(t, ok)
	assert.Equal(t, entity.ReservationPending, res.Status)
	assert.Equal(t, "18:00-19:00", res.TimeSlot)
	assert.Equal(t, []string{reservation.EventCreated}, f.pub.types())
}

func TestCreate_TokensUnicos(t *testing.T) {
	f := newFixture(t, 5, true)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.uc.WithClock(func() time.Time { return fixed })

	a, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	b, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	assert.NotEqual(t, a.QRCode, b.QRCode)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t, 1, true)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, f.u1, dto.CreateReservationRequest{BoxID: f.boxID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.Create(ctx, f.u1, dto.CreateReservationRequest{FranjaHoraria: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.Create(ctx, f.u1, dto.CreateReservationRequest{BoxID: 9999, FranjaHoraria: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, f.mem.ReservationCount())
}

func TestCreate_SinStockNoEscribe(t *testing.T) {
	f := newFixture(t, 0, true)

	_, err := f.reserve(t, f.u1)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 0, f.mem.BoxStock(f.boxID))
	assert.Equal(t, 0, f.mem.ReservationCount())
	assert.Empty(t, f.pub.types())
}

func TestCreate_FalloAlDescontarDeshaceReserva(t *testing.T) {
	f := newFixture(t, 2, true)
	f.mem.Faults.DecrementStock = errors.New("conexión perdida")

	_, err := f.reserve(t, f.u1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 0, f.mem.ReservationCount())
	assert.Equal(t, 2, f.mem.BoxStock(f.boxID))
}

func TestCreate_FalloAlInsertarNoTocaStock(t *testing.T) {
	f := newFixture(t, 2, true)
	f.mem.Faults.CreateReservation = errors.New("insert falló")

	_, err := f.reserve(t, f.u1)
	require.Error(t, err)
	assert.Equal(t, 2, f.mem.BoxStock(f.boxID))
	assert.Equal(t, 0, f.mem.ReservationCount())
}

func TestCreate_ErrorDePublicacionNoFalla(t *testing.T) {
	f := newFixture(t, 1, true)
	f.pub.err = errors.New("broker caído")

	_, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	assert.Equal(t, 0, f.mem.BoxStock(f.boxID))
}

func TestCreate_ConcurrenteNoSobrevende(t *testing.T) {
	const stock, clients = 5, 25
	f := newFixture(t, stock, true)

	var wg sync.WaitGroup
	var mu sync.Mutex
	okCount, outOfStock := 0, 0
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reserve(t, f.u1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, domain.ErrOutOfStock):
				outOfStock++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, okCount)
	assert.Equal(t, clients-stock, outOfStock)
	assert.Equal(t, 0, f.mem.BoxStock(f.boxID))
	assert.Equal(t, stock, f.mem.CountByStatus(f.boxID, entity.ReservationPending))
}

// B1 con stock 1: U1 reserva, U2 queda sin stock, U1 cancela y U2 puede reservar.
func TestEscenario_B1_U1_U2(t *testing.T) {
	f := newFixture(t, 1, true)
	ctx := context.Background()

	r1, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	assert.Equal(t, 0, f.mem.BoxStock(f.boxID))

	_, err = f.reserve(t, f.u2)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	require.NoError(t, f.uc.Cancel(ctx, f.u1, r1.ID))
	assert.Equal(t, 1, f.mem.BoxStock(f.boxID))

	r2, err := f.reserve(t, f.u2)
	require.NoError(t, err)
	assert.Equal(t, 0, f.mem.BoxStock(f.boxID))

	require.NoError(t, f.uc.Validate(ctx, f.storeA, r2.ID))
	res, _ := f.mem.Reservation(r2.ID)
	assert.Equal(t, entity.ReservationPickedUp, res.Status)
	assert.Equal(t, 0, f.mem.BoxStock(f.boxID))
}

func TestStock_Conservacion(t *testing.T) {
	const initial = 4
	f := newFixture(t, initial, true)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < initial; i++ {
		out, err := f.reserve(t, f.u1)
		require.NoError(t, err)
		ids = append(ids, out.ID)
	}
	require.NoError(t, f.uc.Validate(ctx, f.storeA, ids[0]))
	require.NoError(t, f.uc.Cancel(ctx, f.u1, ids[1]))
	require.NoError(t, f.uc.Cancel(ctx, f.u1, ids[2]))

	active := f.mem.CountByStatus(f.boxID, entity.ReservationPending) + f.mem.CountByStatus(f.boxID, entity.ReservationPickedUp)
	assert.Equal(t, initial, f.mem.BoxStock(f.boxID)+active)
}

func TestCancel_SoloDuenoYPendiente(t *testing.T) {
	f := newFixture(t, 2, true)
	ctx := context.Background()
	out, err := f.reserve(t, f.u1)
	require.NoError(t, err)

	assert.ErrorIs(t, f.uc.Cancel(ctx, f.u2, out.ID), domain.ErrNotFound)
	assert.Equal(t, 1, f.mem.BoxStock(f.boxID))

	require.NoError(t, f.uc.Cancel(ctx, f.u1, out.ID))
	assert.Equal(t, 2, f.mem.BoxStock(f.boxID))

	// doble cancelación no repone dos veces
	assert.ErrorIs(t, f.uc.Cancel(ctx, f.u1, out.ID), domain.ErrNotFound)
	assert.Equal(t, 2, f.mem.BoxStock(f.boxID))
	assert.ErrorIs(t, f.uc.Cancel(ctx, f.u1, 9999), domain.ErrNotFound)
}

func TestCancel_RetiradaNoSePuedeCancelar(t *testing.T) {
	f := newFixture(t, 1, true)
	ctx := context.Background()
	out, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	require.NoError(t, f.uc.Validate(ctx, f.storeA, out.ID))

	assert.ErrorIs(t, f.uc.Cancel(ctx, f.u1, out.ID), domain.ErrNotFound)
	assert.Equal(t, 0, f.mem.BoxStock(f.boxID))
}

func TestCancel_FalloAlReponerDeshaceCancelacion(t *testing.T) {
	f := newFixture(t, 1, true)
	out, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	f.mem.Faults.IncrementStock = errors.New("timeout")

	require.Error(t, f.uc.Cancel(context.Background(), f.u1, out.ID))
	res, _ := f.mem.Reservation(out.ID)
	assert.Equal(t, entity.ReservationPending, res.Status)
	assert.Equal(t, 0, f.mem.BoxStock(f.boxID))
}

func TestValidate_TiendaAjena(t *testing.T) {
	f := newFixture(t, 1, true)
	ctx := context.Background()
	out, err := f.reserve(t, f.u1)
	require.NoError(t, err)

	assert.ErrorIs(t, f.uc.Validate(ctx, f.storeB, out.ID), domain.ErrForbidden)
	assert.ErrorIs(t, f.uc.Validate(ctx, principal(99, entity.RoleStore, nil), out.ID), domain.ErrForbidden)
	assert.ErrorIs(t, f.uc.Validate(ctx, f.storeA, 9999), domain.ErrNotFound)

	res, _ := f.mem.Reservation(out.ID)
	assert.Equal(t, entity.ReservationPending, res.Status)
}

func TestValidate_EstrictoRechazaRevalidar(t *testing.T) {
	f := newFixture(t, 2, true)
	ctx := context.Background()
	out, err := f.reserve(t, f.u1)
	require.NoError(t, err)

	require.NoError(t, f.uc.Validate(ctx, f.storeA, out.ID))
	assert.ErrorIs(t, f.uc.Validate(ctx, f.storeA, out.ID), domain.ErrInvalidTransition)

	cancelled, err := f.reserve(t, f.u2)
	require.NoError(t, err)
	require.NoError(t, f.uc.Cancel(ctx, f.u2, cancelled.ID))
	assert.ErrorIs(t, f.uc.Validate(ctx, f.storeA, cancelled.ID), domain.ErrInvalidTransition)
	res, _ := f.mem.Reservation(cancelled.ID)
	assert.Equal(t, entity.ReservationCancelled, res.Status)
}

func TestValidate_PermisivoAceptaRevalidar(t *testing.T) {
	f := newFixture(t, 1, false)
	ctx := context.Background()
	out, err := f.reserve(t, f.u1)
	require.NoError(t, err)

	require.NoError(t, f.uc.Validate(ctx, f.storeA, out.ID))
	require.NoError(t, f.uc.Validate(ctx, f.storeA, out.ID))
	res, _ := f.mem.Reservation(out.ID)
	assert.Equal(t, entity.ReservationPickedUp, res.Status)
	assert.Equal(t, 0, f.mem.BoxStock(f.boxID))
}

func TestListados(t *testing.T) {
	f := newFixture(t, 3, true)
	ctx := context.Background()
	_, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	_, err = f.uc.Create(ctx, f.u2, dto.CreateReservationRequest{BoxID: f.foreignID, FranjaHoraria: "10-11"})
	require.NoError(t, err)

	mine, err := f.uc.ListMine(ctx, f.u1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "B1", mine[0].BoxNombre)
	assert.Equal(t, "A", mine[0].StoreName)
	assert.Equal(t, "Calle 1", mine[0].Direccion)
	assert.Equal(t, 2, mine[0].Stock)

	forStore, err := f.uc.ListForStore(ctx, f.storeA)
	require.NoError(t, err)
	require.Len(t, forStore, 1)
	assert.Equal(t, "U1", forStore[0].UserNombre)
	assert.Equal(t, "u1@mail.com", forStore[0].Email)

	none, err := f.uc.ListForStore(ctx, principal(99, entity.RoleStore, nil))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestVoucher_SoloDueno(t *testing.T) {
	f := newFixture(t, 1, true)
	ctx := context.Background()
	out, err := f.reserve(t, f.u1)
	require.NoError(t, err)

	pdf, err := f.uc.Voucher(ctx, f.u1, out.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), pdf)
	assert.Equal(t, out.QRCode, f.voucher.last.Reservation.QRCode)
	assert.Equal(t, "B1", f.voucher.last.BoxName)

	_, err = f.uc.Voucher(ctx, f.u2, out.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.Voucher(ctx, f.u1, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventos_CicloCompleto(t *testing.T) {
	f := newFixture(t, 2, true)
	ctx := context.Background()
	a, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	b, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	require.NoError(t, f.uc.Validate(ctx, f.storeA, a.ID))
	require.NoError(t, f.uc.Cancel(ctx, f.u1, b.ID))

	assert.Equal(t, []string{
		reservation.EventCreated, reservation.EventCreated, reservation.EventPickedUp, reservation.EventCancelled,
	}, f.pub.types())
}

func TestEventos_TodosLlevanTienda(t *testing.T) {
	f := newFixture(t, 2, true)
	ctx := context.Background()
	a, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	b, err := f.reserve(t, f.u2)
	require.NoError(t, err)
	require.NoError(t, f.uc.Validate(ctx, f.storeA, a.ID))
	require.NoError(t, f.uc.Cancel(ctx, f.u2, b.ID))

	f.pub.mu.Lock()
	defer f.pub.mu.Unlock()
	require.Len(t, f.pub.events, 4)
	for _, ev := range f.pub.events {
		assert.Equal(t, *f.storeA.StoreID, ev.StoreID, ev.Type)
		assert.Equal(t, f.boxID, ev.BoxID, ev.Type)
	}
}

func TestCreate_TokenDuplicadoReintentaUnaVez(t *testing.T) {
	f := newFixture(t, 3, true)
	tokens := []string{"tok-a", "tok-a", "tok-b"}
	calls := 0
	f.uc.WithTokens(func(int64, int64, time.Time) string {
		tok := tokens[calls]
		calls++
		return tok
	})

	first, err := f.reserve(t, f.u1)
	require.NoError(t, err)
	assert.Equal(t, "tok-a", first.QRCode)

	second, err := f.reserve(t, f.u2)
	require.NoError(t, err)
	assert.Equal(t, "tok-b", second.QRCode)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, f.mem.BoxStock(f.boxID))
	assert.Equal(t, 2, f.mem.ReservationCount())
}

func TestCreate_TokenDuplicadoPersistenteEsErrorInterno(t *testing.T) {
	f := newFixture(t, 3, true)
	f.uc.WithTokens(func(int64, int64, time.Time) string { return "fijo" })

	_, err := f.reserve(t, f.u1)
	require.NoError(t, err)

	_, err = f.reserve(t, f.u2)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicatePickupToken)
	assert.NotErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 2, f.mem.BoxStock(f.boxID))
	assert.Equal(t, 1, f.mem.ReservationCount())
}
