package dto

import "github.com/shopspring/decimal"

// StoreStatsResponse ventas de la tienda: reservas retiradas e ingresos.
type StoreStatsResponse struct {
	VentasTotal int             `json:"ventas_total"`
	Ingresos    decimal.Decimal `json:"ingresos"`
}
