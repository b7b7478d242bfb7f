package dto

import (
	"io"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto (JSON o multipart con foto).
type CreateProductRequest struct {
	Nombre string           `json:"nombre" validate:"required,max=200"`
	Precio *decimal.Decimal `json:"precio" validate:"required"`
	Stock  int              `json:"stock" validate:"gte=0"`
}

// PhotoUpload archivo de foto recibido en un multipart.
type PhotoUpload struct {
	Filename string
	Content  io.Reader
}

// ProductResponse producto de la tienda.
type ProductResponse struct {
	ID      int64           `json:"id"`
	StoreID int64           `json:"store_id"`
	Nombre  string          `json:"nombre"`
	Precio  decimal.Decimal `json:"precio"`
	Stock   int             `json:"stock"`
	Foto    *string         `json:"foto"`
}

// CreateProductResponse producto creado.
type CreateProductResponse struct {
	ProductResponse
	Message string `json:"message"`
}
