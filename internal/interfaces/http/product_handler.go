package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/application/usecase"
)

// ProductHandler productos de la tienda autenticada.
type ProductHandler struct {
	uc *usecase.ProductUseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// List godoc
// @Summary      Productos de mi tienda
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetPrincipal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear producto
// @Description  JSON o multipart/form-data con archivo opcional "foto".
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        body  body      dto.CreateProductRequest  true   "nombre, precio, stock"
// @Param        foto  formData  file                      false  "foto del producto"
// @Success      201   {object}  dto.CreateProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	var photo *dto.PhotoUpload
	if isForm(c) {
		var err error
		if in, err = productFromForm(c); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if err := validate.Struct(in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
		}
		if fh, err := c.FormFile("foto"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return invalidBody(c)
			}
			defer f.Close()
			photo = &dto.PhotoUpload{Filename: fh.Filename, Content: f}
		}
	} else if ok, err := bindAndValidate(c, &in); !ok {
		return err
	}

	out, err := h.uc.Create(c.UserContext(), GetPrincipal(c), in, photo)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func productFromForm(c *fiber.Ctx) (dto.CreateProductRequest, error) {
	in := dto.CreateProductRequest{Nombre: strings.TrimSpace(c.FormValue("nombre"))}
	if s := strings.TrimSpace(c.FormValue("precio")); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return in, formError("precio no es un número")
		}
		in.Precio = &d
	}
	if s := strings.TrimSpace(c.FormValue("stock")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return in, formError("stock no es un entero")
		}
		in.Stock = n
	}
	return in, nil
}
