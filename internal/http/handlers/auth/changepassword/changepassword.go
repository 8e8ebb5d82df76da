// Package changepassword реализует смену пароля текущим пользователем.
package changepassword

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/driving-school/internal/http/middlewarectx"
	"github.com/magabrotheeeer/driving-school/internal/http/response"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
)

// Request — текущий и новый пароль.
type Request struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Service описывает смену пароля.
type Service interface {
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

// Handler обрабатывает смену пароля.
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
// @Summary Смена пароля
// @Description Меняет пароль после проверки текущего. Новый пароль не короче 8 символов и не только из цифр.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Пароли"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Ошибки по полям"
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/change-password [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.changepassword"

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

	if err := h.service.ChangePassword(r.Context(), subject.UserID, req.OldPassword, req.NewPassword); err != nil {
		log.Info("password change rejected", slog.Int64("user_id", subject.UserID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("password changed", slog.Int64("user_id", subject.UserID))
	render.JSON(w, r, response.Detail("Password updated successfully"))
}
