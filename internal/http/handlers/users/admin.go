package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/driving-school/internal/http/request"
	"github.com/magabrotheeeer/driving-school/internal/http/response"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

// Service описывает администрирование пользователей.
type Service interface {
	Create(ctx context.Context, in models.NewUser) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, role models.Role, limit, offset int) ([]*models.User, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// AdminHandler обслуживает /admin/users и список /users.
type AdminHandler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// NewAdmin создает новый экземпляр AdminHandler.
func NewAdmin(log *slog.Logger, service Service) *AdminHandler {
	return &AdminHandler{
		log:      log,
		service:  service,
		validate: response.NewValidator(),
	}
}

func (h *AdminHandler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Create godoc
// @Summary Создание пользователя
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body CreateRequest true "Пользователь"
// @Success 201 {object} response.Response{data=models.User}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/users [post]
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.admin.Create")

	var req CreateRequest
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
	in, verr := req.NewUser()
	if verr != nil {
		response.RenderError(w, r, verr)
		return
	}

	u, err := h.service.Create(r.Context(), in)
	if err != nil {
		log.Info("failed to create user", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user created", slog.Int64("user_id", u.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(u))
}

// Get godoc
// @Summary Пользователь по ID
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [get]
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.admin.Get")

	id, err := request.ID(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Info("failed to get user", slog.Int64("user_id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(u))
}

// List godoc
// @Summary Список пользователей
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param role query string false "Фильтр по роли" Enums(admin, teacher, student)
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=[]models.User}
// @Failure 403 {object} response.ErrorResponse
// @Router /users [get]
// @Router /admin/users [get]
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.admin.List")

	limit, offset, err := request.Page(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	role := models.Role(r.URL.Query().Get("role"))

	list, err := h.service.List(r.Context(), role, limit, offset)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.User{}
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Update godoc
// @Summary Изменение пользователя
// @Description Email изменить нельзя. PUT требует email, first_name и last_name.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Param request body PatchRequest true "Изменения"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [put]
// @Router /admin/users/{id} [patch]
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.admin.Update")

	id, err := request.ID(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
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

	u, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		log.Info("failed to update user", slog.Int64("user_id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user updated", slog.Int64("user_id", id))
	render.JSON(w, r, response.StatusOKWithData(u))
}

// Delete godoc
// @Summary Удаление пользователя
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 204 "Удалено"
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.users.admin.Delete")

	id, err := request.ID(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Info("failed to delete user", slog.Int64("user_id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("user deleted", slog.Int64("user_id", id))
	w.WriteHeader(http.StatusNoContent)
}
