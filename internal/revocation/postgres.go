package revocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore хранит записи в таблицах outstanding_tokens и revoked_tokens.
// Вставка в revoked_tokens с ON CONFLICT DO NOTHING даёт атомарность отзыва
// между экземплярами сервиса.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore создаёт хранилище поверх пула соединений.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Track запоминает выпущенный токен.
func (s *PostgresStore) Track(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	const op = "revocation.PostgresStore.Track"
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outstanding_tokens (jti, user_id, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (jti) DO NOTHING`,
		jti, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Revoke вставляет запись об отзыве, если её ещё нет.
func (s *PostgresStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error) {
	const op = "revocation.PostgresStore.Revoke"
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at)
		 VALUES ($1, $2)
		 ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// IsRevoked проверяет наличие записи об отзыве.
func (s *PostgresStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const op = "revocation.PostgresStore.IsRevoked"
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// FlushExpired удаляет истёкшие записи обеих таблиц.
func (s *PostgresStore) FlushExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "revocation.PostgresStore.FlushExpired"
	var total int64
	for _, query := range []string{
		`DELETE FROM revoked_tokens WHERE expires_at <= $1`,
		`DELETE FROM outstanding_tokens WHERE expires_at <= $1`,
	} {
		res, err := s.db.ExecContext(ctx, query, now)
		if err != nil {
			return total, fmt.Errorf("%s: %w", op, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("%s: %w", op, err)
		}
		total += n
	}
	return total, nil
}
