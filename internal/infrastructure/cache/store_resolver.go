// Package cache guarda en Redis la afiliación usuario→tienda que el middleware de auth
// resuelve en cada petición de un principal store sin store_id en el token.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/rescuebox-api/internal/application/auth"
)

var _ auth.StoreResolver = (*StoreResolver)(nil)

// StoreResolver decora otro auth.StoreResolver con caché Redis.
// Solo se cachean afiliaciones existentes; si Redis falla se consulta el resolver de origen.
type StoreResolver struct {
	next auth.StoreResolver
	rdb  redis.Cmdable
	ttl  time.Duration
}

// NewStoreResolver construye el decorador. ttl <= 0 usa DefaultStoreTTL.
func NewStoreResolver(next auth.StoreResolver, rdb redis.Cmdable, ttl time.Duration) *StoreResolver {
	if ttl <= 0 {
		ttl = DefaultStoreTTL
	}
	return &StoreResolver{next: next, rdb: rdb, ttl: ttl}
}

// ResolveStoreID busca primero en Redis y luego en el resolver de origen.
func (r *StoreResolver) ResolveStoreID(ctx context.Context, userID int64) (*int64, error) {
	key := fmt.Sprintf(KeyStoreOfUser, userID)
	val, err := r.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if id, perr := strconv.ParseInt(val, 10, 64); perr == nil && id > 0 {
			return &id, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Int64("user_id", userID).Msg("cache: lectura de tienda falló")
	}

	storeID, err := r.next.ResolveStoreID(ctx, userID)
	if err != nil || storeID == nil {
		return storeID, err
	}
	if err := r.rdb.Set(ctx, key, strconv.FormatInt(*storeID, 10), r.ttl).Err(); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("cache: escritura de tienda falló")
	}
	return storeID, nil
}
