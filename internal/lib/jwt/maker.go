// Package jwt реализует выпуск и разбор JWT токенов автошколы.
//
// Maker выпускает пару access/refresh токенов с claims {user_id, email, role, token_type}
// и уникальным идентификатором jti, а также разбирает и проверяет токены.
package jwt

import (
	"time"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

// Subject — данные пользователя, которые попадают в токен.
type Subject struct {
	UserID int64
	Email  string
	Role   models.Role
}

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен указанного типа и возвращает его вместе с claims.
	GenerateToken(subject Subject, tokenType models.TokenType) (string, *CustomClaims, error)
	// ParseToken проверяет подпись, срок действия и тип токена.
	ParseToken(tokenStr string, expected models.TokenType) (*CustomClaims, error)
}

// MakerImpl реализует Maker на HMAC-SHA256.
type MakerImpl struct {
	secretKey  []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option настраивает MakerImpl.
type Option func(*MakerImpl)

// WithIssuer задаёт значение claim iss и включает его проверку.
func WithIssuer(issuer string) Option {
	return func(m *MakerImpl) { m.issuer = issuer }
}

// WithClock подменяет источник времени, используется в тестах.
func WithClock(now func() time.Time) Option {
	return func(m *MakerImpl) { m.now = now }
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL токенов.
func NewJWTMaker(secretKey string, accessTTL, refreshTTL time.Duration, opts ...Option) *MakerImpl {
	m := &MakerImpl{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL возвращает время жизни токена указанного типа.
func (j *MakerImpl) TTL(tokenType models.TokenType) time.Duration {
	if tokenType == models.TokenRefresh {
		return j.refreshTTL
	}
	return j.accessTTL
}
