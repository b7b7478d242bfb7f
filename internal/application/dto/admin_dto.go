package dto

import "time"

// CreateStoreRequest alta de tienda junto con su usuario dueño.
type CreateStoreRequest struct {
	NombreUser  string   `json:"nombre_user" validate:"required,max=200"`
	NombreStore string   `json:"nombre_store" validate:"required,max=200"`
	Email       string   `json:"email" validate:"required,email"`
	Contrasena  string   `json:"contrasena" validate:"required,min=6"`
	Direccion   string   `json:"direccion"`
	Telefono    string   `json:"telefono"`
	Descripcion string   `json:"descripcion"`
	Lat         *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng         *float64 `json:"lng" validate:"omitempty,longitude"`
	HoraInicio  string   `json:"hora_inicio"`
	HoraFin     string   `json:"hora_fin"`
}

// CreateStoreResponse ids creados.
type CreateStoreResponse struct {
	UserID  int64  `json:"userId"`
	StoreID int64  `json:"storeId"`
	Message string `json:"message"`
}

// UserSummaryResponse usuario en el listado de administración.
type UserSummaryResponse struct {
	ID            int64     `json:"id"`
	Nombre        string    `json:"nombre"`
	Email         string    `json:"email"`
	Rol           string    `json:"rol"`
	FechaRegistro time.Time `json:"fecha_registro"`
}

// StoreSummaryResponse tienda con su dueño. Publicaciones solo en stores-with-boxes.
type StoreSummaryResponse struct {
	StoreID       int64  `json:"store_id"`
	StoreNombre   string `json:"store_nombre"`
	Direccion     string `json:"direccion"`
	Telefono      string `json:"telefono"`
	Descripcion   string `json:"descripcion"`
	HoraInicio    string `json:"hora_inicio"`
	HoraFin       string `json:"hora_fin"`
	UserID        int64  `json:"user_id"`
	UserNombre    string `json:"user_nombre"`
	Email         string `json:"email"`
	Publicaciones *int   `json:"publicaciones,omitempty"`
}

// AdminStatsResponse estadísticas generales.
type AdminStatsResponse struct {
	Users int `json:"users"`
}
