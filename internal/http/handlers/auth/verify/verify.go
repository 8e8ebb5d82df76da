// Package verify реализует проверку токена по запросу клиента.
package verify

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/driving-school/internal/http/response"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

// Request — токен для проверки.
type Request struct {
	Token string `json:"token" validate:"required"`
}

// ClaimsResponse — данные проверенного токена.
type ClaimsResponse struct {
	UserID    int64            `json:"user_id"`
	Email     string           `json:"email"`
	Role      models.Role      `json:"role"`
	TokenType models.TokenType `json:"token_type"`
}

// Service описывает проверку токена.
type Service interface {
	Verify(ctx context.Context, token string) (*models.Claims, error)
}

// Handler обрабатывает запросы проверки токена.
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
// @Summary Проверка токена
// @Description Проверяет подпись и срок действия access или refresh токена.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Токен"
// @Success 200 {object} response.Response{data=ClaimsResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse "code=token_not_valid"
// @Router /auth/token/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	claims, err := h.service.Verify(r.Context(), req.Token)
	if err != nil {
		log.Info("token rejected", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(ClaimsResponse{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		TokenType: claims.TokenType,
	}))
}
