package entity

// Store tienda asociada a un usuario con rol store (una por usuario).
type Store struct {
	ID          int64
	UserID      int64
	Name        string
	Address     string
	Phone       string
	Description string
	OpensAt     string // "HH:MM"
	ClosesAt    string
	Lat         *float64
	Lng         *float64
}
