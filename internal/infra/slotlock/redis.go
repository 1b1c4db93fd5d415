package slotlock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker serializa escritas por business+dia. O lock de linha do
// Postgres já garante a corretude dentro de uma instância; o lock em
// redis dá a mesma garantia com várias réplicas do serviço, sem
// depender de mapas em memória.
type Locker interface {
	WithLock(ctx context.Context, businessID uint, day time.Time, fn func(ctx context.Context) error) error
}

const (
	lockTTL       = 10 * time.Second
	retryInterval = 50 * time.Millisecond
	acquireBudget = 3 * time.Second
)

// unlockScript só apaga a chave se o token ainda for nosso.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func key(businessID uint, day time.Time) string {
	return fmt.Sprintf("slotlock:%d:%s", businessID, day.Format("2006-01-02"))
}

func (l *RedisLocker) WithLock(
	ctx context.Context,
	businessID uint,
	day time.Time,
	fn func(ctx context.Context) error,
) error {

	k := key(businessID, day)
	token := uuid.NewString()

	deadline := time.Now().Add(acquireBudget)
	for {
		ok, err := l.client.SetNX(ctx, k, token, lockTTL).Result()
		if err != nil {
			return fmt.Errorf("slotlock: acquire: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("slotlock: timed out waiting for %s", k)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = unlockScript.Run(releaseCtx, l.client, []string{k}, token).Result()
	}()

	return fn(ctx)
}

// Compile-time check
var _ Locker = (*RedisLocker)(nil)
