package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/rescuebox-api/internal/application/auth"
	"github.com/jhoicas/rescuebox-api/internal/application/dto"
	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/access"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/pkg/jwt"
)

// Locals keys del principal autenticado en Fiber.
const (
	LocalPrincipal = "principal"
	LocalRequestID = "requestid"
)

// AuthMiddleware valida el Bearer Token JWT y deja el principal en c.Locals.
// Para rol store sin store_id en el token, resuelve la tienda con resolver (si no es nil).
func AuthMiddleware(jwtSecret string, resolver auth.StoreResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if claims.Role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no contiene rol"})
		}

		p := entity.Principal{UserID: claims.UserID, Email: claims.Email, Role: claims.Role, StoreID: claims.StoreID}
		if p.Role == entity.RoleStore && !p.HasStore() && resolver != nil {
			storeID, err := resolver.ResolveStoreID(c.UserContext(), p.UserID)
			if err != nil {
				return respondError(c, err)
			}
			if storeID == nil {
				log.Debug().Int64("user_id", p.UserID).Msg("usuario store sin tienda asociada")
			}
			p.StoreID = storeID
		}
		c.Locals(LocalPrincipal, p)
		return c.Next()
	}
}

// RequireRole permite el paso solo a los roles indicados. Usar DESPUÉS de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := access.Authorize(GetPrincipal(c), roles)
		switch {
		case err == nil:
			return c.Next()
		case err == domain.ErrUnauthorized:
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "sesión sin rol"})
		default:
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "no tiene permisos para esta operación"})
		}
	}
}

// GetPrincipal devuelve el principal del contexto (zero value si no hay sesión).
func GetPrincipal(c *fiber.Ctx) entity.Principal {
	p, _ := c.Locals(LocalPrincipal).(entity.Principal)
	return p
}

// GetUserID devuelve el id del usuario autenticado o 0.
func GetUserID(c *fiber.Ctx) int64 {
	return GetPrincipal(c).UserID
}

// GetRole devuelve el rol del usuario autenticado.
func GetRole(c *fiber.Ctx) string {
	return GetPrincipal(c).Role
}
