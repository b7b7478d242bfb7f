// Package access decide si un principal puede invocar una operación según su rol.
package access

import (
	"github.com/jhoicas/rescuebox-api/internal/domain"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
)

// Authorize es una función pura: nil si el rol del principal está en allowed.
// Sin rol devuelve ErrUnauthorized; con un rol fuera de la lista, ErrForbidden.
// Una lista vacía permite cualquier rol.
func Authorize(p entity.Principal, allowed []string) error {
	if p.Role == "" {
		return domain.ErrUnauthorized
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, r := range allowed {
		if r == p.Role {
			return nil
		}
	}
	return domain.ErrForbidden
}
