package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/pricing"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

// BoxUseCase publicación y catálogo de cajas.
type BoxUseCase struct {
	boxes    repository.BoxRepository
	products repository.ProductRepository
	now      func() time.Time
}

// NewBoxUseCase construye el caso de uso.
func NewBoxUseCase(boxes repository.BoxRepository, products repository.ProductRepository) *BoxUseCase {
	return &BoxUseCase{boxes: boxes, products: products, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *BoxUseCase) WithClock(now func() time.Time) *BoxUseCase {
	uc.now = now
	return uc
}

// ListPublic cajas disponibles para clientes.
func (uc *BoxUseCase) ListPublic(ctx context.Context) ([]dto.BoxResponse, error) {
	list, err := uc.boxes.ListPublic(ctx, uc.now())
	if err != nil {
		return nil, fmt.Errorf("listar cajas públicas: %w", err)
	}
	return uc.toResponses(ctx, list), nil
}

// ListForStore cajas de la tienda del principal. Sin tienda: lista vacía.
func (uc *BoxUseCase) ListForStore(ctx context.Context, p entity.Principal) ([]dto.BoxResponse, error) {
	if !p.HasStore() {
		return []dto.BoxResponse{}, nil
	}
	list, err := uc.boxes.ListByStore(ctx, p.StoreIDOrZero())
	if err != nil {
		return nil, fmt.Errorf("listar cajas de tienda: %w", err)
	}
	return uc.toResponses(ctx, list), nil
}

// Get detalle de una caja con sus productos.
func (uc *BoxUseCase) Get(ctx context.Context, id int64) (*dto.BoxResponse, error) {
	l, err := uc.boxes.GetDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener caja: %w", err)
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	uc.ensureNormalPrice(ctx, &l.Box)
	out := toBoxResponse(*l)
	return &out, nil
}

// Create publica una caja con productos de la propia tienda.
// El precio normal se calcula con los precios actuales; los productos ajenos se ignoran.
func (uc *BoxUseCase) Create(ctx context.Context, p entity.Principal, in dto.CreateBoxRequest) (*dto.CreateBoxResponse, error) {
	if !p.HasStore() {
		return nil, domain.ErrStoreNotLinked
	}
	if len(in.Productos) == 0 {
		return nil, fmt.Errorf("%w: debes agregar al menos un producto", domain.ErrInvalidInput)
	}
	if in.Stock < 0 || in.PrecioDescuento.IsNegative() {
		return nil, fmt.Errorf("%w: stock y precio_descuento no pueden ser negativos", domain.ErrInvalidInput)
	}
	expiresAt, err := parseOptionalDate("fecha_vencimiento", in.FechaVencimiento)
	if err != nil {
		return nil, err
	}

	storeID := p.StoreIDOrZero()
	ids := make([]int64, 0, len(in.Productos))
	for _, item := range in.Productos {
		if id := item.ResolvedID(); id > 0 {
			ids = append(ids, id)
		}
	}
	prices, err := uc.products.PricesForStore(ctx, storeID, ids)
	if err != nil {
		return nil, fmt.Errorf("precios de productos: %w", err)
	}

	lines := make([]entity.BoxLine, 0, len(prices))
	consumeDates := make([]time.Time, 0)
	for _, item := range in.Productos {
		price, ok := prices[item.ResolvedID()]
		if !ok {
			continue
		}
		consume, err := parseOptionalDate("fecha_consumo", item.FechaConsumo)
		if err != nil {
			return nil, err
		}
		if consume != nil {
			consumeDates = append(consumeDates, *consume)
		}
		qty := item.Cantidad
		if qty <= 0 {
			qty = 1
		}
		lines = append(lines, entity.BoxLine{
			ProductID: item.ResolvedID(), UnitPrice: price, Quantity: qty, ConsumeUntil: consume,
		})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: ningún producto pertenece a la tienda", domain.ErrInvalidInput)
	}

	normal := pricing.NormalPrice(lines)
	start, end := pricing.PickupWindow(uc.now(), in.IsFlash, expiresAt, consumeDates)
	box := &entity.Box{
		StoreID:       storeID,
		Name:          strings.TrimSpace(in.Nombre),
		Description:   in.Descripcion,
		NormalPrice:   decimal.NewNullDecimal(normal),
		DiscountPrice: in.PrecioDescuento,
		Stock:         in.Stock,
		ExpiresAt:     expiresAt,
		IsFlash:       in.IsFlash,
		WindowStart:   &start,
		WindowEnd:     end,
		Lines:         lines,
	}
	if err := uc.boxes.Create(ctx, box); err != nil {
		return nil, err
	}
	return &dto.CreateBoxResponse{
		ID:            box.ID,
		Message:       "Caja creada correctamente",
		PrecioNormal:  normal,
		HorarioInicio: start,
		HorarioFin:    end,
		IsFlash:       in.IsFlash,
	}, nil
}

// ensureNormalPrice completa un precio normal faltante y lo persiste.
// Si no se puede persistir se devuelve igual el valor calculado.
func (uc *BoxUseCase) ensureNormalPrice(ctx context.Context, b *entity.Box) {
	if b.HasNormalPrice() {
		return
	}
	price := pricing.NormalPrice(b.Lines)
	if err := uc.boxes.SetNormalPrice(ctx, b.ID, price); err != nil {
		log.Warn().Err(err).Int64("box_id", b.ID).Msg("no se pudo guardar precio_normal")
	}
	b.NormalPrice = decimal.NewNullDecimal(price)
}

func (uc *BoxUseCase) toResponses(ctx context.Context, list []repository.BoxListing) []dto.BoxResponse {
	out := make([]dto.BoxResponse, 0, len(list))
	for i := range list {
		uc.ensureNormalPrice(ctx, &list[i].Box)
		out = append(out, toBoxResponse(list[i]))
	}
	return out
}

func toBoxResponse(l repository.BoxListing) dto.BoxResponse {
	b := l.Box
	lines := make([]dto.BoxLineResponse, 0, len(b.Lines))
	for _, ln := range b.Lines {
		lines = append(lines, dto.BoxLineResponse{
			ProductID:    ln.ProductID,
			Nombre:       ln.Name,
			Precio:       ln.UnitPrice,
			Cantidad:     ln.Quantity,
			Foto:         ln.PhotoPath,
			FechaConsumo: ln.ConsumeUntil,
		})
	}
	return dto.BoxResponse{
		ID:               b.ID,
		StoreID:          b.StoreID,
		Nombre:           b.Name,
		Descripcion:      b.Description,
		PrecioNormal:     b.NormalPrice.Decimal,
		PrecioDescuento:  b.DiscountPrice,
		Stock:            b.Stock,
		FechaCreacion:    b.CreatedAt,
		FechaVencimiento: b.ExpiresAt,
		IsFlash:          b.IsFlash,
		HorarioInicio:    b.WindowStart,
		HorarioFin:       b.WindowEnd,
		StoreName:        l.StoreName,
		Direccion:        l.StoreAddress,
		Productos:        lines,
	}
}
