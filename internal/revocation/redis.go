package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	revokedPrefix     = "revoked:"
	outstandingPrefix = "outstanding:"
)

// RedisStore хранит записи в Redis; TTL ключа равен оставшемуся сроку жизни токена,
// поэтому FlushExpired ничего не делает.
type RedisStore struct {
	db  *redis.Client
	now func() time.Time
}

// NewRedisStore создаёт хранилище поверх клиента Redis.
func NewRedisStore(db *redis.Client) *RedisStore {
	return &RedisStore{db: db, now: time.Now}
}

func (s *RedisStore) ttl(expiresAt time.Time) time.Duration {
	ttl := expiresAt.Sub(s.now())
	if ttl < time.Second {
		// токен уже истёк, но запись должна пережить гонку проверки срока
		ttl = time.Second
	}
	return ttl
}

// Track запоминает выпущенный токен.
func (s *RedisStore) Track(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	const op = "revocation.RedisStore.Track"
	err := s.db.Set(ctx, outstandingPrefix+jti, strconv.FormatInt(userID, 10), s.ttl(expiresAt)).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Revoke выполняет SETNX: ключ создаётся ровно одним из конкурирующих вызовов.
func (s *RedisStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	const op = "revocation.RedisStore.Revoke"
	inserted, err := s.db.SetNX(ctx, revokedPrefix+jti, expiresAt.Unix(), s.ttl(expiresAt)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return inserted, nil
}

// IsRevoked проверяет наличие ключа отзыва.
func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const op = "revocation.RedisStore.IsRevoked"
	_, err := s.db.Get(ctx, revokedPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// FlushExpired ничего не делает: истёкшие ключи удаляет сам Redis.
func (s *RedisStore) FlushExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
