package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/rescuebox-api/internal/application/dto"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// los mensajes usan el nombre JSON del campo
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// bindAndValidate parsea el cuerpo (JSON, form o multipart) y ejecuta las reglas `validate`.
// Devuelve false si ya escribió la respuesta de error; el handler debe retornar sin escribir otra.
func bindAndValidate(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, invalidBody(c)
	}
	if err := validate.Struct(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "datos inválidos"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " es obligatorio"
	case "email":
		return f + " debe ser un email válido"
	case "min":
		return fmt.Sprintf("%s debe tener al menos %s caracteres", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s no puede superar %s caracteres", f, fe.Param())
	case "gt":
		return fmt.Sprintf("%s debe ser mayor que %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s debe ser mayor o igual a %s", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s debe ser uno de: %s", f, fe.Param())
	case "latitude", "longitude":
		return f + " fuera de rango"
	default:
		return f + " no es válido"
	}
}
