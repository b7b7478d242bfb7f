package cache

import "time"

const (
	// KeyStoreOfUser afiliación de tienda: store_of_user:{user_id} -> store_id
	KeyStoreOfUser = "store_of_user:%d"
)

// DefaultStoreTTL vigencia por defecto de la afiliación cacheada.
var DefaultStoreTTL = time.Hour
