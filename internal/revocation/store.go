// Package revocation хранит запись об отозванных refresh-токенах.
//
// Отзыв выполняется атомарной операцией "вставить, если отсутствует": из двух
// одновременных попыток отозвать один и тот же токен успешна ровно одна.
// Для одного экземпляра сервиса достаточно MemoryStore; несколько экземпляров
// должны разделять RedisStore или хранилище PostgreSQL.
package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store — запись об отозванных токенах.
type Store interface {
	// Track запоминает выпущенный refresh-токен.
	Track(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
	// Revoke отзывает токен. inserted равно false, если токен уже был отозван.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (inserted bool, err error)
	// IsRevoked проверяет, отозван ли токен.
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// FlushExpired удаляет записи о токенах, срок действия которых истёк к моменту now.
	FlushExpired(ctx context.Context, now time.Time) (int64, error)
}

// Backend — имя реализации хранилища в конфигурации.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// Open создаёт хранилище выбранного вида. Для redis нужен клиент, для postgres подключение к БД.
func Open(backend Backend, db *sql.DB, client *redis.Client) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		if client == nil {
			return nil, errors.New("revocation backend redis requires a redis connection")
		}
		return NewRedisStore(client), nil
	case BackendPostgres:
		if db == nil {
			return nil, errors.New("revocation backend postgres requires a database connection")
		}
		return NewPostgresStore(db), nil
	}
	return nil, fmt.Errorf("unknown revocation backend %q", backend)
}
