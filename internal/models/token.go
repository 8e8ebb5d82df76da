package models

import "time"

// TokenType различает access и refresh токены.
type TokenType string

const (
	// TokenAccess — короткоживущий токен доступа.
	TokenAccess TokenType = "access"
	// TokenRefresh — токен обновления пары.
	TokenRefresh TokenType = "refresh"
)

// TokenPair — пара токенов, выдаваемая при входе и обновлении.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Claims — данные субъекта, извлечённые из проверенного токена.
type Claims struct {
	UserID    int64
	Email     string
	Role      Role
	TokenType TokenType
	JTI       string
	ExpiresAt time.Time
}

// ExternalIdentity — подтверждённые провайдером данные пользователя при внешнем входе.
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
}
