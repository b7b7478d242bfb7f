package http

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/application/usecase"
)

// BoxHandler catálogo de cajas.
type BoxHandler struct {
	uc *usecase.BoxUseCase
}

// NewBoxHandler construye el handler de cajas.
func NewBoxHandler(uc *usecase.BoxUseCase) *BoxHandler {
	return &BoxHandler{uc: uc}
}

// ListPublic godoc
// @Summary      Cajas disponibles
// @Description  Cajas con stock y no vencidas, más recientes primero.
// @Tags         boxes
// @Produce      json
// @Success      200  {array}  dto.BoxResponse
// @Router       /api/boxes/public [get]
func (h *BoxHandler) ListPublic(c *fiber.Ctx) error {
	out, err := h.uc.ListPublic(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Cajas de mi tienda
// @Tags         boxes
// @Produce      json
// @Security     Bearer
// @Success      200  {array}  dto.BoxResponse
// @Router       /api/boxes [get]
func (h *BoxHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListForStore(c.UserContext(), GetPrincipal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Detalle de caja
// @Tags         boxes
// @Produce      json
// @Param        id   path  int  true  "ID de la caja"
// @Success      200  {object}  dto.BoxResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/boxes/{id} [get]
func (h *BoxHandler) Get(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Publicar caja
// @Description  productos puede llegar como arreglo o como string JSON (formularios multipart).
// @Tags         boxes
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Security     Bearer
// @Param        body  body  dto.CreateBoxRequest  true  "caja"
// @Success      201   {object}  dto.CreateBoxResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/boxes [post]
func (h *BoxHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBoxRequest
	if isForm(c) {
		var err error
		if in, err = boxFromForm(c); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if err := validate.Struct(in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
		}
	} else if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func isForm(c *fiber.Ctx) bool {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	return strings.HasPrefix(ct, fiber.MIMEMultipartForm) || strings.HasPrefix(ct, fiber.MIMEApplicationForm)
}

type formError string

func (e formError) Error() string { return string(e) }

func boxFromForm(c *fiber.Ctx) (dto.CreateBoxRequest, error) {
	in := dto.CreateBoxRequest{
		Nombre:           strings.TrimSpace(c.FormValue("nombre")),
		Descripcion:      c.FormValue("descripcion"),
		FechaVencimiento: c.FormValue("fecha_vencimiento"),
	}
	if s := strings.TrimSpace(c.FormValue("precio_descuento")); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return in, formError("precio_descuento no es un número")
		}
		in.PrecioDescuento = d
	}
	if s := strings.TrimSpace(c.FormValue("stock")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return in, formError("stock no es un entero")
		}
		in.Stock = n
	}
	if s := strings.TrimSpace(c.FormValue("is_flash")); s != "" {
		in.IsFlash, _ = strconv.ParseBool(s)
	}
	// un productos ilegible se trata como lista vacía
	if raw := c.FormValue("productos"); raw != "" {
		var list dto.BoxProductInputs
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			in.Productos = list
		}
	}
	return in, nil
}
