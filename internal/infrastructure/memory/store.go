// Package memory implementa los puertos de repository en memoria, con transacciones
// simuladas (registro de deshacer) e inyección de fallos. Lo usan los tests de casos
// de uso y de handlers HTTP.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

// Faults errores a inyectar en operaciones concretas. nil = sin fallo.
type Faults struct {
	DecrementStock    error
	IncrementStock    error
	CreateReservation error
	MarkPickedUp      error
	SetNormalPrice    error
	CreateStore       error
}

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	seq      int64
	users    map[int64]entity.User
	stores   map[int64]entity.Store
	products map[int64]entity.Product
	boxes    map[int64]entity.Box
	reservas map[int64]entity.Reservation

	// Faults se lee bajo mu; asignar antes de ejecutar la operación a probar.
	Faults Faults
	// Now reloj usado para fechas de creación.
	Now func() time.Time
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		users:    map[int64]entity.User{},
		stores:   map[int64]entity.Store{},
		products: map[int64]entity.Product{},
		boxes:    map[int64]entity.Box{},
		reservas: map[int64]entity.Reservation{},
		Now:      time.Now,
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// txLog acciones para deshacer las escrituras hechas dentro de una transacción.
// Se modifica y se aplica con mu tomado.
type txLog struct {
	undo []func()
}

// record anota cómo deshacer una escritura. Fuera de transacción (tx nil) no hace nada.
// Requiere mu tomado.
func (tx *txLog) record(fn func()) {
	if tx != nil {
		tx.undo = append(tx.undo, fn)
	}
}

// inTx serializa las transacciones y, si fn falla, deshace solo las escrituras hechas
// con los repositorios de la transacción. Las escrituras concurrentes hechas fuera de
// ella se conservan; los ids consumidos no se reutilizan, igual que una secuencia.
func (s *Store) inTx(fn func(tx *txLog) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	tx := &txLog{}
	if err := fn(tx); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

// RunReservation transacción con cajas y reservas.
func (s *Store) RunReservation(_ context.Context, fn func(repository.BoxRepository, repository.ReservationRepository) error) error {
	return s.inTx(func(tx *txLog) error {
		return fn(&BoxRepo{s: s, tx: tx}, &ReservationRepo{s: s, tx: tx})
	})
}

// RunSignup transacción con usuarios y tiendas.
func (s *Store) RunSignup(_ context.Context, fn func(repository.UserRepository, repository.StoreRepository) error) error {
	return s.inTx(func(tx *txLog) error {
		return fn(&UserRepo{s: s, tx: tx}, &StoreRepo{s: s, tx: tx})
	})
}

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Stores repositorio de tiendas.
func (s *Store) Stores() *StoreRepo { return &StoreRepo{s: s} }

// Products repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Boxes repositorio de cajas.
func (s *Store) Boxes() *BoxRepo { return &BoxRepo{s: s} }

// Reservations repositorio de reservas.
func (s *Store) Reservations() *ReservationRepo { return &ReservationRepo{s: s} }

// Admin repositorio de reportes.
func (s *Store) Admin() *AdminReportRepo { return &AdminReportRepo{s: s} }

// Helpers de siembra y lectura directa para tests.

// SeedUser inserta un usuario y devuelve su id.
func (s *Store) SeedUser(u entity.User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID()
	if u.RegisteredAt.IsZero() {
		u.RegisteredAt = s.Now()
	}
	s.users[u.ID] = u
	return u.ID
}

// SeedStore inserta una tienda y devuelve su id.
func (s *Store) SeedStore(st entity.Store) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = s.nextID()
	s.stores[st.ID] = st
	return st.ID
}

// SeedProduct inserta un producto y devuelve su id.
func (s *Store) SeedProduct(p entity.Product) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.Now()
	}
	s.products[p.ID] = p
	return p.ID
}

// SeedBox inserta una caja (con sus líneas) y devuelve su id.
func (s *Store) SeedBox(b entity.Box) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextID()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.Now()
	}
	b.Lines = append([]entity.BoxLine(nil), b.Lines...)
	s.boxes[b.ID] = b
	return b.ID
}

// SetProductPrice cambia el precio de un producto existente.
func (s *Store) SetProductPrice(id int64, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Price = price
	s.products[id] = p
}

// BoxStock stock actual de una caja (-1 si no existe).
func (s *Store) BoxStock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boxes[id]
	if !ok {
		return -1
	}
	return b.Stock
}

// Box copia de la caja tal como está guardada.
func (s *Store) Box(id int64) (entity.Box, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boxes[id]
	return b, ok
}

// Reservation copia de la reserva.
func (s *Store) Reservation(id int64) (entity.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservas[id]
	return r, ok
}

// ReservationCount total de reservas guardadas.
func (s *Store) ReservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservas)
}

// CountByStatus reservas de una caja en un estado.
func (s *Store) CountByStatus(boxID int64, st entity.ReservationStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservas {
		if r.BoxID == boxID && r.Status == st {
			n++
		}
	}
	return n
}

// updateBox modifica una caja existente. Requiere mu tomado.
func (s *Store) updateBox(id int64, fn func(*entity.Box)) {
	b, ok := s.boxes[id]
	if !ok {
		return
	}
	fn(&b)
	s.boxes[id] = b
}

// setStatus cambia el estado de una reserva existente. Requiere mu tomado.
func (s *Store) setStatus(id int64, st entity.ReservationStatus) {
	res, ok := s.reservas[id]
	if !ok {
		return
	}
	res.Status = st
	s.reservas[id] = res
}
