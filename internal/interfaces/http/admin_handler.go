package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/application/usecase"
)

// AdminHandler panel de administración (rol admin).
type AdminHandler struct {
	uc *usecase.AdminUseCase
}

// NewAdminHandler construye el handler.
func NewAdminHandler(uc *usecase.AdminUseCase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

// ListUsers godoc
// @Summary      Usuarios registrados
// @Tags         admin
// @Produce      json
// @Security     Bearer
// @Success      200  {array}  dto.UserSummaryResponse
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	out, err := h.uc.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListStores godoc
// @Summary      Tiendas con su dueño
// @Tags         admin
// @Produce      json
// @Security     Bearer
// @Success      200  {array}  dto.StoreSummaryResponse
// @Router       /api/admin/stores [get]
func (h *AdminHandler) ListStores(c *fiber.Ctx) error {
	out, err := h.uc.ListStores(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListStoresWithBoxes godoc
// @Summary      Tiendas con cantidad de cajas publicadas
// @Tags         admin
// @Produce      json
// @Security     Bearer
// @Success      200  {array}  dto.StoreSummaryResponse
// @Router       /api/admin/stores-with-boxes [get]
func (h *AdminHandler) ListStoresWithBoxes(c *fiber.Ctx) error {
	out, err := h.uc.ListStoresWithBoxes(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas globales
// @Tags         admin
// @Produce      json
// @Security     Bearer
// @Success      200  {object}  dto.AdminStatsResponse
// @Router       /api/admin/stats [get]
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateStore godoc
// @Summary      Crear tienda
// @Description  Crea el usuario con rol store y su tienda en una sola transacción.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        body  body  dto.CreateStoreRequest  true  "usuario y tienda"
// @Success      201   {object}  dto.CreateStoreResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/admin/stores [post]
func (h *AdminHandler) CreateStore(c *fiber.Ctx) error {
	var in dto.CreateStoreRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateStore(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
