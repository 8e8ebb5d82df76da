package revocation

import (
	"context"
	"sync"
	"time"
)

type outstanding struct {
	userID    int64
	expiresAt time.Time
}

// MemoryStore хранит записи в памяти процесса.
type MemoryStore struct {
	mu          sync.Mutex
	outstanding map[string]outstanding
	revoked     map[string]time.Time
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		outstanding: make(map[string]outstanding),
		revoked:     make(map[string]time.Time),
	}
}

// Track запоминает выпущенный токен.
func (s *MemoryStore) Track(_ context.Context, jti string, userID int64, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outstanding[jti] = outstanding{userID: userID, expiresAt: expiresAt}
	return nil
}

// Revoke добавляет токен в список отозванных, если его там ещё нет.
func (s *MemoryStore) Revoke(_ context.Context, jti string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.revoked[jti]; ok {
		return false, nil
	}
	s.revoked[jti] = expiresAt
	return true, nil
}

// IsRevoked проверяет наличие токена в списке отозванных.
func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok, nil
}

// FlushExpired удаляет истёкшие записи обоих видов.
func (s *MemoryStore) FlushExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for jti, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, jti)
			n++
		}
	}
	for jti, o := range s.outstanding {
		if !o.expiresAt.After(now) {
			delete(s.outstanding, jti)
			n++
		}
	}
	return n, nil
}
