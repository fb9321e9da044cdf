package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/reservas-api/internal/application/stock"
	goredis "github.com/redis/go-redis/v9"
)

var _ stock.Locker = (*Locker)(nil)

// unlockScript borra la llave solo si sigue siendo nuestra.
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker lock con TTL sobre SET NX. Si la réplica muere, el TTL libera la llave.
type Locker struct {
	client goredis.UniversalClient
}

// NewLocker construye el lock sobre un cliente ya conectado.
func NewLocker(client goredis.UniversalClient) *Locker {
	return &Locker{client: client}
}

// TryLock intenta tomar key por ttl. acquired=false sin error significa que otra réplica lo tiene.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("redis unlock %s: %w", key, err)
		}
		return nil
	}
	return unlock, true, nil
}
