package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

// PhotoStorage guarda archivos subidos y devuelve su ruta pública ("/uploads/<archivo>").
type PhotoStorage interface {
	Save(ctx context.Context, filename string, content io.Reader) (string, error)
}

// ProductUseCase productos de la tienda.
type ProductUseCase struct {
	products repository.ProductRepository
	photos   PhotoStorage
}

// NewProductUseCase construye el caso de uso. photos puede ser nil (sin subida de fotos).
func NewProductUseCase(products repository.ProductRepository, photos PhotoStorage) *ProductUseCase {
	return &ProductUseCase{products: products, photos: photos}
}

// List productos de la tienda del principal. Sin tienda: lista vacía.
func (uc *ProductUseCase) List(ctx context.Context, p entity.Principal) ([]dto.ProductResponse, error) {
	out := make([]dto.ProductResponse, 0)
	if !p.HasStore() {
		return out, nil
	}
	list, err := uc.products.ListByStore(ctx, p.StoreIDOrZero())
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	for _, prod := range list {
		out = append(out, toProductResponse(prod))
	}
	return out, nil
}

// Create alta de producto con foto opcional.
func (uc *ProductUseCase) Create(ctx context.Context, p entity.Principal, in dto.CreateProductRequest, photo *dto.PhotoUpload) (*dto.CreateProductResponse, error) {
	if !p.HasStore() {
		return nil, domain.ErrStoreNotLinked
	}
	name := strings.TrimSpace(in.Nombre)
	if name == "" || in.Precio == nil {
		return nil, fmt.Errorf("%w: nombre y precio son obligatorios", domain.ErrInvalidInput)
	}
	if in.Precio.IsNegative() || in.Stock < 0 {
		return nil, fmt.Errorf("%w: precio y stock no pueden ser negativos", domain.ErrInvalidInput)
	}

	prod := &entity.Product{StoreID: p.StoreIDOrZero(), Name: name, Price: *in.Precio, Stock: in.Stock}
	if photo != nil && uc.photos != nil {
		path, err := uc.photos.Save(ctx, photo.Filename, photo.Content)
		if err != nil {
			return nil, fmt.Errorf("guardar foto: %w", err)
		}
		prod.PhotoPath = &path
	}
	if err := uc.products.Create(ctx, prod); err != nil {
		return nil, err
	}
	return &dto.CreateProductResponse{ProductResponse: toProductResponse(prod), Message: "Producto creado"}, nil
}

func toProductResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:      p.ID,
		StoreID: p.StoreID,
		Nombre:  p.Name,
		Precio:  p.Price,
		Stock:   p.Stock,
		Foto:    p.PhotoPath,
	}
}
