package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BoxProductInput línea de producto al crear una caja. Acepta "id" o "product_id".
type BoxProductInput struct {
	ID           *int64 `json:"id"`
	ProductID    *int64 `json:"product_id"`
	Cantidad     int    `json:"cantidad"`
	FechaConsumo string `json:"fecha_consumo"`
}

// ResolvedID devuelve el id del producto o 0 si no vino ninguno.
func (p BoxProductInput) ResolvedID() int64 {
	if p.ID != nil {
		return *p.ID
	}
	if p.ProductID != nil {
		return *p.ProductID
	}
	return 0
}

// BoxProductInputs lista de líneas. Los clientes multipart la envían como string JSON.
type BoxProductInputs []BoxProductInput

// UnmarshalJSON acepta un arreglo o un string que contiene un arreglo JSON.
// Un string que no se puede decodificar equivale a lista vacía.
func (l *BoxProductInputs) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("productos: %w", err)
		}
		var inner []BoxProductInput
		if err := json.Unmarshal([]byte(raw), &inner); err != nil {
			*l = BoxProductInputs{}
			return nil
		}
		*l = inner
		return nil
	}
	var arr []BoxProductInput
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("productos: %w", err)
	}
	*l = arr
	return nil
}

// CreateBoxRequest entrada para publicar una caja.
type CreateBoxRequest struct {
	Nombre           string           `json:"nombre" validate:"required,max=200"`
	Descripcion      string           `json:"descripcion"`
	PrecioDescuento  decimal.Decimal  `json:"precio_descuento"`
	Stock            int              `json:"stock" validate:"gte=0"`
	Productos        BoxProductInputs `json:"productos"`
	FechaVencimiento string           `json:"fecha_vencimiento"`
	IsFlash          bool             `json:"is_flash"`
}

// CreateBoxResponse caja creada con su precio normal y ventana de retiro.
type CreateBoxResponse struct {
	ID            int64           `json:"id"`
	Message       string          `json:"message"`
	PrecioNormal  decimal.Decimal `json:"precio_normal"`
	HorarioInicio time.Time       `json:"horario_inicio"`
	HorarioFin    *time.Time      `json:"horario_fin"`
	IsFlash       bool            `json:"is_flash"`
}

// BoxLineResponse producto contenido en una caja.
type BoxLineResponse struct {
	ProductID    int64           `json:"product_id"`
	Nombre       string          `json:"nombre"`
	Precio       decimal.Decimal `json:"precio"`
	Cantidad     int             `json:"cantidad"`
	Foto         *string         `json:"foto"`
	FechaConsumo *time.Time      `json:"fecha_consumo,omitempty"`
}

// BoxResponse caja con sus productos.
type BoxResponse struct {
	ID               int64             `json:"id"`
	StoreID          int64             `json:"store_id"`
	Nombre           string            `json:"nombre"`
	Descripcion      string            `json:"descripcion"`
	PrecioNormal     decimal.Decimal   `json:"precio_normal"`
	PrecioDescuento  decimal.Decimal   `json:"precio_descuento"`
	Stock            int               `json:"stock"`
	FechaCreacion    time.Time         `json:"fecha_creacion"`
	FechaVencimiento *time.Time        `json:"fecha_vencimiento"`
	IsFlash          bool              `json:"is_flash"`
	HorarioInicio    *time.Time        `json:"horario_inicio"`
	HorarioFin       *time.Time        `json:"horario_fin"`
	StoreName        string            `json:"store_name,omitempty"`
	Direccion        string            `json:"direccion,omitempty"`
	Productos        []BoxLineResponse `json:"productos"`
}
