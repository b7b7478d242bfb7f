package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

var (
	_ repository.UserRepository        = (*UserRepo)(nil)
	_ repository.StoreRepository       = (*StoreRepo)(nil)
	_ repository.ProductRepository     = (*ProductRepo)(nil)
	_ repository.BoxRepository         = (*BoxRepo)(nil)
	_ repository.ReservationRepository = (*ReservationRepo)(nil)
	_ repository.AdminReportRepository = (*AdminReportRepo)(nil)
)

// UserRepo usuarios en memoria.
type UserRepo struct {
	s  *Store
	tx *txLog
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	u.ID = r.s.nextID()
	u.RegisteredAt = r.s.Now()
	r.s.users[u.ID] = *u
	id := u.ID
	r.tx.record(func() { delete(r.s.users, id) })
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

// StoreRepo tiendas en memoria.
type StoreRepo struct {
	s  *Store
	tx *txLog
}

func (r *StoreRepo) Create(_ context.Context, st *entity.Store) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Faults.CreateStore != nil {
		return r.s.Faults.CreateStore
	}
	if _, ok := r.s.users[st.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, existing := range r.s.stores {
		if existing.UserID == st.UserID {
			return domain.ErrConflict
		}
	}
	st.ID = r.s.nextID()
	r.s.stores[st.ID] = *st
	id := st.ID
	r.tx.record(func() { delete(r.s.stores, id) })
	return nil
}

func (r *StoreRepo) GetByUserID(_ context.Context, userID int64) (*entity.Store, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.stores {
		if st.UserID == userID {
			return &st, nil
		}
	}
	return nil, nil
}

// ProductRepo productos en memoria.
type ProductRepo struct{ s *Store }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.nextID()
	p.CreatedAt = r.s.Now()
	r.s.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) ListByStore(_ context.Context, storeID int64) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.Product, 0)
	for _, p := range r.s.products {
		if p.StoreID == storeID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *ProductRepo) PricesForStore(_ context.Context, storeID int64, ids []int64) (map[int64]decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int64]decimal.Decimal, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok && p.StoreID == storeID {
			out[id] = p.Price
		}
	}
	return out, nil
}

// BoxRepo cajas en memoria. Las líneas se completan con los datos actuales del producto.
type BoxRepo struct {
	s  *Store
	tx *txLog
}

func (r *BoxRepo) Create(_ context.Context, b *entity.Box) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.Stock < 0 {
		return domain.ErrInvalidInput
	}
	b.ID = r.s.nextID()
	b.CreatedAt = r.s.Now()
	stored := *b
	stored.Lines = append([]entity.BoxLine(nil), b.Lines...)
	r.s.boxes[b.ID] = stored
	return nil
}

func (r *BoxRepo) GetByID(_ context.Context, id int64) (*entity.Box, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.boxes[id]
	if !ok {
		return nil, nil
	}
	b.Lines = nil
	return &b, nil
}

// hydrate copia la caja con líneas resueltas contra products. Requiere mu tomado.
func (r *BoxRepo) hydrate(b entity.Box) repository.BoxListing {
	lines := make([]entity.BoxLine, 0, len(b.Lines))
	for _, l := range b.Lines {
		p, ok := r.s.products[l.ProductID]
		if !ok {
			continue
		}
		l.Name = p.Name
		l.UnitPrice = p.Price
		l.PhotoPath = p.PhotoPath
		lines = append(lines, l)
	}
	b.Lines = lines
	st := r.s.stores[b.StoreID]
	return repository.BoxListing{Box: b, StoreName: st.Name, StoreAddress: st.Address}
}

func (r *BoxRepo) GetDetail(_ context.Context, id int64) (*repository.BoxListing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.boxes[id]
	if !ok {
		return nil, nil
	}
	l := r.hydrate(b)
	return &l, nil
}

func (r *BoxRepo) list(keep func(entity.Box) bool) []repository.BoxListing {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]repository.BoxListing, 0)
	for _, b := range r.s.boxes {
		if keep(b) {
			out = append(out, r.hydrate(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Box.CreatedAt.Equal(out[j].Box.CreatedAt) {
			return out[i].Box.ID > out[j].Box.ID
		}
		return out[i].Box.CreatedAt.After(out[j].Box.CreatedAt)
	})
	return out
}

func (r *BoxRepo) ListPublic(_ context.Context, now time.Time) ([]repository.BoxListing, error) {
	return r.list(func(b entity.Box) bool {
		return b.Stock > 0 && (b.ExpiresAt == nil || !b.ExpiresAt.Before(now))
	}), nil
}

func (r *BoxRepo) ListByStore(_ context.Context, storeID int64) ([]repository.BoxListing, error) {
	return r.list(func(b entity.Box) bool { return b.StoreID == storeID }), nil
}

func (r *BoxRepo) Lines(_ context.Context, boxID int64) ([]entity.BoxLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.boxes[boxID]
	if !ok {
		return []entity.BoxLine{}, nil
	}
	return r.hydrate(b).Box.Lines, nil
}

func (r *BoxRepo) SetNormalPrice(_ context.Context, id int64, price decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Faults.SetNormalPrice != nil {
		return r.s.Faults.SetNormalPrice
	}
	b, ok := r.s.boxes[id]
	if ok && !b.NormalPrice.Valid {
		b.NormalPrice = decimal.NewNullDecimal(price)
		r.s.boxes[id] = b
		r.tx.record(func() { r.s.updateBox(id, func(b *entity.Box) { b.NormalPrice = decimal.NullDecimal{} }) })
	}
	return nil
}

func (r *BoxRepo) DecrementStock(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Faults.DecrementStock != nil {
		return false, r.s.Faults.DecrementStock
	}
	b, ok := r.s.boxes[id]
	if !ok || b.Stock <= 0 {
		return false, nil
	}
	b.Stock--
	r.s.boxes[id] = b
	r.tx.record(func() { r.s.updateBox(id, func(b *entity.Box) { b.Stock++ }) })
	return true, nil
}

func (r *BoxRepo) IncrementStock(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Faults.IncrementStock != nil {
		return r.s.Faults.IncrementStock
	}
	b, ok := r.s.boxes[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Stock++
	r.s.boxes[id] = b
	r.tx.record(func() { r.s.updateBox(id, func(b *entity.Box) { b.Stock-- }) })
	return nil
}

// ReservationRepo reservas en memoria.
type ReservationRepo struct {
	s  *Store
	tx *txLog
}

func (r *ReservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Faults.CreateReservation != nil {
		return r.s.Faults.CreateReservation
	}
	if _, ok := r.s.boxes[res.BoxID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range r.s.reservas {
		if existing.QRCode == res.QRCode {
			return repository.ErrDuplicatePickupToken
		}
	}
	res.ID = r.s.nextID()
	res.CreatedAt = r.s.Now()
	r.s.reservas[res.ID] = *res
	id := res.ID
	r.tx.record(func() { delete(r.s.reservas, id) })
	return nil
}

func (r *ReservationRepo) GetOwnership(_ context.Context, id int64) (*repository.ReservationOwnership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservas[id]
	if !ok {
		return nil, nil
	}
	return &repository.ReservationOwnership{Reservation: res, StoreID: r.s.boxes[res.BoxID].StoreID}, nil
}

func (r *ReservationRepo) MarkPickedUp(_ context.Context, id int64, onlyPending bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Faults.MarkPickedUp != nil {
		return false, r.s.Faults.MarkPickedUp
	}
	res, ok := r.s.reservas[id]
	if !ok || (onlyPending && res.Status != entity.ReservationPending) {
		return false, nil
	}
	prev := res.Status
	res.Status = entity.ReservationPickedUp
	r.s.reservas[id] = res
	r.tx.record(func() { r.s.setStatus(id, prev) })
	return true, nil
}

func (r *ReservationRepo) CancelPending(_ context.Context, id, userID int64) (int64, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservas[id]
	if !ok || res.UserID != userID || res.Status != entity.ReservationPending {
		return 0, false, nil
	}
	res.Status = entity.ReservationCancelled
	r.s.reservas[id] = res
	r.tx.record(func() { r.s.setStatus(id, entity.ReservationPending) })
	return res.BoxID, true, nil
}

func (r *ReservationRepo) sorted(keep func(entity.Reservation) bool) []entity.Reservation {
	out := make([]entity.Reservation, 0)
	for _, res := range r.s.reservas {
		if keep(res) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *ReservationRepo) ListByUser(_ context.Context, userID int64) ([]repository.UserReservationRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]repository.UserReservationRow, 0)
	for _, res := range r.sorted(func(x entity.Reservation) bool { return x.UserID == userID }) {
		b := r.s.boxes[res.BoxID]
		st := r.s.stores[b.StoreID]
		out = append(out, repository.UserReservationRow{
			Reservation: res, BoxName: b.Name, DiscountPrice: b.DiscountPrice, BoxExpiresAt: b.ExpiresAt,
			BoxStock: b.Stock, StoreName: st.Name, StoreAddress: st.Address,
		})
	}
	return out, nil
}

func (r *ReservationRepo) ListByStore(_ context.Context, storeID int64) ([]repository.StoreReservationRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]repository.StoreReservationRow, 0)
	for _, res := range r.sorted(func(x entity.Reservation) bool { return r.s.boxes[x.BoxID].StoreID == storeID }) {
		b := r.s.boxes[res.BoxID]
		u := r.s.users[res.UserID]
		out = append(out, repository.StoreReservationRow{
			Reservation: res, UserName: u.Name, UserEmail: u.Email, BoxName: b.Name, DiscountPrice: b.DiscountPrice,
		})
	}
	return out, nil
}

func (r *ReservationRepo) GetVoucher(_ context.Context, id int64) (*repository.ReservationVoucher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservas[id]
	if !ok {
		return nil, nil
	}
	b := r.s.boxes[res.BoxID]
	st := r.s.stores[b.StoreID]
	return &repository.ReservationVoucher{
		Reservation: res, UserName: r.s.users[res.UserID].Name, BoxName: b.Name, DiscountPrice: b.DiscountPrice,
		StoreName: st.Name, StoreAddress: st.Address, StoreOpensAt: st.OpensAt, StoreClosesAt: st.ClosesAt,
	}, nil
}

func (r *ReservationRepo) StoreSales(_ context.Context, storeID int64) (repository.StoreSales, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sales := repository.StoreSales{Revenue: decimal.Zero}
	for _, res := range r.s.reservas {
		b := r.s.boxes[res.BoxID]
		if b.StoreID == storeID && res.Status == entity.ReservationPickedUp {
			sales.PickedUp++
			sales.Revenue = sales.Revenue.Add(b.DiscountPrice)
		}
	}
	return sales, nil
}

// AdminReportRepo reportes en memoria.
type AdminReportRepo struct{ s *Store }

func (r *AdminReportRepo) ListUsers(_ context.Context) ([]repository.UserSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]repository.UserSummary, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, repository.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, RegisteredAt: u.RegisteredAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AdminReportRepo) stores(withCount bool) []repository.StoreWithOwner {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]repository.StoreWithOwner, 0, len(r.s.stores))
	for _, st := range r.s.stores {
		u := r.s.users[st.UserID]
		row := repository.StoreWithOwner{Store: st, OwnerName: u.Name, OwnerEmail: u.Email}
		if withCount {
			for _, b := range r.s.boxes {
				if b.StoreID == st.ID {
					row.Publications++
				}
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Store.ID < out[j].Store.ID })
	return out
}

func (r *AdminReportRepo) ListStores(_ context.Context) ([]repository.StoreWithOwner, error) {
	return r.stores(false), nil
}

func (r *AdminReportRepo) ListStoresWithBoxCount(_ context.Context) ([]repository.StoreWithOwner, error) {
	return r.stores(true), nil
}

func (r *AdminReportRepo) CountUsers(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users), nil
}
