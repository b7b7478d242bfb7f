package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/application/reservation"
)

// ReservationHandler expone el ciclo de vida de reservas.
type ReservationHandler struct {
	uc *reservation.UseCase
}

// NewReservationHandler construye el handler de reservas.
func NewReservationHandler(uc *reservation.UseCase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

// Create godoc
// @Summary      Reservar una caja
// @Description  Reserva una unidad de la caja y descuenta el stock. Devuelve el token de retiro (qr_code).
// @Tags         reservas
// @Accept       json
// @Produce      json
// @Security     Bearer
// @Param        body  body  dto.CreateReservationRequest  true  "box_id, franja_horaria"
// @Success      200   {object}  dto.CreateReservationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservas [post]
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReservationRequest
	if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListMine godoc
// @Summary      Mis reservas
// @Tags         reservas
// @Produce      json
// @Security     Bearer
// @Success      200  {array}  dto.UserReservationResponse
// @Router       /api/reservas/mis [get]
func (h *ReservationHandler) ListMine(c *fiber.Ctx) error {
	out, err := h.uc.ListMine(c.UserContext(), GetPrincipal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListForStore godoc
// @Summary      Reservas recibidas por la tienda
// @Tags         reservas
// @Produce      json
// @Security     Bearer
// @Success      200  {array}  dto.StoreReservationResponse
// @Router       /api/reservas/store [get]
func (h *ReservationHandler) ListForStore(c *fiber.Ctx) error {
	out, err := h.uc.ListForStore(c.UserContext(), GetPrincipal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Validate godoc
// @Summary      Validar retiro
// @Description  La tienda dueña de la caja marca la reserva como retirada.
// @Tags         reservas
// @Produce      json
// @Security     Bearer
// @Param        id   path  int  true  "ID de la reserva"
// @Success      200  {object}  dto.MessageResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservas/{id}/validar [post]
func (h *ReservationHandler) Validate(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.uc.Validate(c.UserContext(), GetPrincipal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Reserva validada"})
}

// Cancel godoc
// @Summary      Cancelar reserva
// @Description  Cancela una reserva pendiente propia y devuelve la unidad al stock.
// @Tags         reservas
// @Produce      json
// @Security     Bearer
// @Param        id   path  int  true  "ID de la reserva"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservas/{id}/cancelar [patch]
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.uc.Cancel(c.UserContext(), GetPrincipal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Reserva cancelada"})
}

// Voucher godoc
// @Summary      Comprobante de retiro (PDF)
// @Tags         reservas
// @Produce      application/pdf
// @Security     Bearer
// @Param        id   path  int  true  "ID de la reserva"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservas/{id}/comprobante [get]
func (h *ReservationHandler) Voucher(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return invalidID(c)
	}
	pdf, err := h.uc.Voucher(c.UserContext(), GetPrincipal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="reserva-%d.pdf"`, id))
	return c.Send(pdf)
}
