package jwt

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	UserID               int64            `json:"user_id"`
	Email                string           `json:"email"`
	Role                 models.Role      `json:"role"`
	TokenType            models.TokenType `json:"token_type"`
	jwt.RegisteredClaims                  // ID (jti), ExpiresAt, IssuedAt, Issuer, Subject
}

// Domain переводит claims токена в доменную структуру.
func (c *CustomClaims) Domain() models.Claims {
	out := models.Claims{
		UserID:    c.UserID,
		Email:     c.Email,
		Role:      c.Role,
		TokenType: c.TokenType,
		JTI:       c.ID,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

// GenerateToken создает JWT токен заданного типа, подписывая его секретным ключом.
func (j *MakerImpl) GenerateToken(subject Subject, tokenType models.TokenType) (string, *CustomClaims, error) {
	const op = "jwt.GenerateToken"
	now := j.now()
	claims := &CustomClaims{
		UserID:    subject.UserID,
		Email:     subject.Email,
		Role:      subject.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(subject.UserID, 10),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL(tokenType))),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return signed, claims, nil
}

// ParseToken парсит JWT токен, проверяет подпись, срок действия и тип.
//
// Истёкший токен даёт models.ErrTokenExpired, любая другая проблема даёт models.ErrTokenMalformed.
func (j *MakerImpl) ParseToken(tokenStr string, expected models.TokenType) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrTokenMalformed, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, models.ErrTokenMalformed)
	}
	if claims.ID == "" || claims.UserID == 0 {
		return nil, fmt.Errorf("%s: %w: missing jti or user_id", op, models.ErrTokenMalformed)
	}
	if expected != "" && claims.TokenType != expected {
		return nil, fmt.Errorf("%s: %w: token has wrong type", op, models.ErrTokenMalformed)
	}
	return claims, nil
}
