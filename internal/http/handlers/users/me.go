package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/driving-school/internal/http/middlewarectx"
	"github.com/magabrotheeeer/driving-school/internal/http/response"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

// SelfService описывает операции над собственной учётной записью.
type SelfService interface {
	GetSelf(ctx context.Context, subjectID int64) (*models.User, error)
	UpdateSelf(ctx context.Context, subjectID int64, patch models.UserPatch) (*models.User, error)
}

// MeHandler обслуживает /users/me.
type MeHandler struct {
	log     *slog.Logger
	service SelfService
}

// NewMe создает новый экземпляр MeHandler.
func NewMe(log *slog.Logger, service SelfService) *MeHandler {
	return &MeHandler{log: log, service: service}
}

// Get godoc
// @Summary Собственный профиль
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.PublicUser}
// @Failure 401 {object} response.ErrorResponse
// @Router /users/me [get]
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.me.Get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subject := middlewarectx.SubjectFrom(r.Context())
	if subject == nil {
		response.NotAuthenticated(w, r)
		return
	}

	u, err := h.service.GetSelf(r.Context(), subject.UserID)
	if err != nil {
		log.Error("failed to load own account", slog.Int64("user_id", subject.UserID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(u.Public()))
}

// Update godoc
// @Summary Изменение собственного профиля
// @Description Меняет имя, фамилию и пароль. Email изменить нельзя: попытка даёт 400. PUT требует email, first_name и last_name.
// @Tags Users
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body PatchRequest true "Изменения"
// @Success 200 {object} response.Response{data=models.PublicUser}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /users/me [put]
// @Router /users/me [patch]
func (h *MeHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.me.Update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subject := middlewarectx.SubjectFrom(r.Context())
	if subject == nil {
		response.NotAuthenticated(w, r)
		return
	}

	var req PatchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if r.Method == http.MethodPut {
		if verr := req.requireFull(); verr != nil {
			response.RenderError(w, r, verr)
			return
		}
	}
	patch, verr := req.Patch()
	if verr != nil {
		response.RenderError(w, r, verr)
		return
	}

	u, err := h.service.UpdateSelf(r.Context(), subject.UserID, patch)
	if err != nil {
		log.Info("self update rejected", slog.Int64("user_id", subject.UserID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("own account updated", slog.Int64("user_id", subject.UserID))
	render.JSON(w, r, response.StatusOKWithData(u.Public()))
}
