package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrBusy indica que outra requisição está operando a mesma aposta.
var ErrBusy = errors.New("bet is locked by another operation")

// só apaga a chave se o token ainda for o nosso
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker serializa operações por aposta com SET NX PX.
type RedisLocker struct {
	Rdb *redis.Client
	TTL time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{Rdb: rdb, TTL: ttl}
}

// key gera a chave Redis do lock de uma aposta
func key(betID string) string { return "lock:bet:" + betID }

// Acquire tenta pegar o lock uma vez; não espera.
func (l *RedisLocker) Acquire(ctx context.Context, betID string) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.Rdb.SetNX(ctx, key(betID), token, l.TTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.Rdb, []string{key(betID)}, token).Err()
	}
	return release, nil
}
