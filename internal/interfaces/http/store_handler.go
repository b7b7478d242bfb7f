package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rescuebox-api/internal/application/usecase"
)

// StoreHandler autogestión de la tienda (/api/store). Productos y cajas delegan
// en los handlers de catálogo, que ya acotan todo a la tienda del principal.
type StoreHandler struct {
	uc *usecase.StoreUseCase
}

// NewStoreHandler construye el handler.
func NewStoreHandler(uc *usecase.StoreUseCase) *StoreHandler {
	return &StoreHandler{uc: uc}
}

// Stats godoc
// @Summary      Estadísticas de mi tienda
// @Description  Reservas retiradas (ventas_total) y la suma de sus precios con descuento (ingresos).
// @Tags         store
// @Produce      json
// @Security     Bearer
// @Success      200  {object}  dto.StoreStatsResponse
// @Router       /api/store/stats [get]
func (h *StoreHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext(), GetPrincipal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
