package dto

// RegisterRequest entrada para registro público. Rol admin no se puede auto-registrar.
type RegisterRequest struct {
	Nombre     string `json:"nombre" validate:"omitempty,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Contrasena string `json:"contrasena" validate:"required,min=6"`
	Rol        string `json:"rol" validate:"omitempty,oneof=user store"`
}

// RegisterResponse usuario creado.
type RegisterResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Rol   string `json:"rol"`
}

// LoginRequest credenciales de acceso.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Contrasena string `json:"contrasena" validate:"required"`
}

// LoginUser datos públicos del usuario autenticado.
type LoginUser struct {
	ID      int64   `json:"id"`
	Email   string  `json:"email"`
	Role    string  `json:"role"`
	StoreID *int64  `json:"store_id"`
	Name    *string `json:"name"`
}

// LoginResponse token JWT + usuario.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}
