// Package middlewarectx содержит HTTP middleware аутентификации и авторизации.
//
// Authenticate проверяет access-токен из заголовка Authorization и кладёт
// субъекта запроса в контекст. Заголовок необязателен: без него запрос
// продолжается как анонимный, а решение принимает Authorize.
//
// Authorize вычисляет access.Allow до вызова обработчика: анонимный запрос к
// закрытому ресурсу получает 401, при недостаточной роли 403.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/driving-school/internal/access"
	"github.com/magabrotheeeer/driving-school/internal/http/response"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// SubjectKey — ключ субъекта запроса в контексте.
const SubjectKey Key = "subject"

// TokenVerifier описывает сервис проверки токенов.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Claims, error)
}

// WithSubject возвращает контекст с субъектом запроса.
func WithSubject(ctx context.Context, subject *access.Subject) context.Context {
	return context.WithValue(ctx, SubjectKey, subject)
}

// SubjectFrom возвращает субъекта запроса или nil для анонимного запроса.
func SubjectFrom(ctx context.Context) *access.Subject {
	subject, _ := ctx.Value(SubjectKey).(*access.Subject)
	return subject
}

// Authenticate возвращает middleware, который разбирает Bearer access-токен.
//
// Неверный, просроченный токен или refresh-токен вместо access дают 401
// с кодом token_not_valid.
func Authenticate(verifier TokenVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("invalid authorization header")
				response.RenderError(w, r, models.ErrTokenMalformed)
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := verifier.Verify(r.Context(), tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				response.RenderError(w, r, err)
				return
			}
			if claims.TokenType != models.TokenAccess {
				log.Info("refresh token used as access token", slog.Int64("user_id", claims.UserID))
				response.RenderError(w, r, models.ErrTokenMalformed)
				return
			}

			subject := &access.Subject{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

// Authorize возвращает middleware, пропускающий запрос только при разрешении access.Allow.
// Для ресурса собственного профиля субъект всегда считается владельцем.
func Authorize(kind access.ResourceKind, action access.Action, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := SubjectFrom(r.Context())
			isSelf := kind == access.ResourceSelfProfile && subject != nil

			if access.Allow(subject, isSelf, kind, action) {
				next.ServeHTTP(w, r)
				return
			}

			log := log.With(
				slog.String("op", "middlewarectx.Authorize"),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("resource", string(kind)),
				slog.String("action", string(action)),
			)
			if subject == nil {
				log.Info("anonymous request rejected")
				response.NotAuthenticated(w, r)
				return
			}
			log.Info("permission denied", slog.Int64("user_id", subject.UserID), slog.String("role", string(subject.Role)))
			response.Forbidden(w, r)
		})
	}
}
