// Package logout реализует отзыв refresh-токена текущего пользователя.
package logout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/driving-school/internal/http/middlewarectx"
	"github.com/magabrotheeeer/driving-school/internal/http/response"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

// Request — refresh-токен для отзыва.
type Request struct {
	Refresh string `json:"refresh" validate:"required"`
}

// Service описывает отзыв токена.
type Service interface {
	Logout(ctx context.Context, userID int64, refreshToken string) error
}

// Handler обрабатывает выход из системы.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: response.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Отзывает refresh-токен текущего пользователя. Повторный отзыв не является ошибкой.
// @Tags Auth
// @Accept  json
// @Security BearerAuth
// @Param request body Request true "Refresh-токен"
// @Success 205 "Токен отозван"
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subject := middlewarectx.SubjectFrom(r.Context())
	if subject == nil {
		response.NotAuthenticated(w, r)
		return
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Logout(r.Context(), subject.UserID, req.Refresh); err != nil {
		log.Warn("logout failed", slog.Int64("user_id", subject.UserID), sl.Err(err))
		// Негодный токен при выходе считается ошибкой запроса.
		if errors.Is(err, models.ErrTokenExpired) || errors.Is(err, models.ErrTokenMalformed) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ErrorWithCode("Token is invalid or expired", response.CodeTokenNotValid))
			return
		}
		response.RenderError(w, r, err)
		return
	}

	log.Info("refresh token revoked", slog.Int64("user_id", subject.UserID))
	w.WriteHeader(http.StatusResetContent)
}
