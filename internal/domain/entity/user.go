package entity

import "time"

// Roles válidos para User.
const (
	RoleUser  = "user"
	RoleStore = "store"
	RoleAdmin = "admin"
)

// User representa una cuenta del sistema. El rol no cambia después de crearse.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Role         string // user, store, admin
	RegisteredAt time.Time
}

// Principal identidad verificada del autor de una petición.
type Principal struct {
	UserID  int64
	Email   string
	Role    string
	StoreID *int64 // afiliación de tienda, resuelta para rol store
}

// HasStore indica si el principal tiene una tienda resuelta.
func (p Principal) HasStore() bool { return p.StoreID != nil && *p.StoreID > 0 }

// StoreIDOrZero devuelve la tienda afiliada o 0.
func (p Principal) StoreIDOrZero() int64 {
	if p.StoreID == nil {
		return 0
	}
	return *p.StoreID
}
