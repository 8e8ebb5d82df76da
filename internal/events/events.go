// Package events описывает доменные события пользователей, публикуемые в брокер.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

const (
	// UserRegistered публикуется после создания учётной записи.
	UserRegistered = "user.registered"
	// UserDeleted публикуется после удаления учётной записи.
	UserDeleted = "user.deleted"
)

// UserEvent — полезная нагрузка событий пользователя.
type UserEvent struct {
	UserID     int64       `json:"user_id"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	Source     string      `json:"source,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NewUserEvent собирает событие по пользователю.
func NewUserEvent(u *models.User, source string) UserEvent {
	return UserEvent{
		UserID:     u.ID,
		Email:      u.Email,
		Role:       u.Role,
		Source:     source,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher отправляет событие с ключом маршрутизации.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Noop отбрасывает события. Используется, когда брокер не настроен.
type Noop struct{}

// Publish ничего не делает.
func (Noop) Publish(context.Context, string, any) error { return nil }

// Emit публикует событие и только логирует ошибку: сбой брокера не отменяет
// уже выполненную запись.
func Emit(ctx context.Context, log *slog.Logger, p Publisher, routingKey string, ev UserEvent) {
	if err := p.Publish(ctx, routingKey, ev); err != nil {
		log.Warn("failed to publish event",
			slog.String("routing_key", routingKey),
			slog.Int64("user_id", ev.UserID),
			sl.Err(err),
		)
	}
}
