// Package crud реализует типовые HTTP-обработчики создания, чтения, списка,
// изменения и удаления сущности.
//
// T задаёт модель записи (тело запроса), V представление для чтения. Для
// большинства справочников это один и тот же тип; группа отдаётся с
// вложенными сущностями.
//
// PUT перезаписывает сущность телом запроса, PATCH накладывает тело на
// текущее состояние: отсутствующие поля сохраняют прежние значения.
package crud

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/driving-school/internal/http/request"
	"github.com/magabrotheeeer/driving-school/internal/http/response"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
)

// Service описывает операции над сущностью.
type Service[T, V any] interface {
	Create(ctx context.Context, item *T) (*V, error)
	Get(ctx context.Context, id int64) (*V, error)
	// Load возвращает сущность в форме записи, на неё накладывается PATCH.
	Load(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, limit, offset int) ([]*V, error)
	Update(ctx context.Context, item *T) (*V, error)
	Delete(ctx context.Context, id int64) error
}

// Handler обслуживает коллекцию сущностей одного вида.
type Handler[T, V any] struct {
	log      *slog.Logger
	resource string
	service  Service[T, V]
	setID    func(item *T, id int64)
}

// New создает новый экземпляр Handler. setID записывает идентификатор из пути в сущность.
func New[T, V any](log *slog.Logger, resource string, service Service[T, V], setID func(*T, int64)) *Handler[T, V] {
	return &Handler[T, V]{
		log:      log,
		resource: resource,
		service:  service,
		setID:    setID,
	}
}

func (h *Handler[T, V]) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("resource", h.resource),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Create создаёт сущность и отвечает 201.
func (h *Handler[T, V]) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.crud.Create")

	item := new(T)
	if err := render.DecodeJSON(r.Body, item); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	h.setID(item, 0)

	created, err := h.service.Create(r.Context(), item)
	if err != nil {
		log.Info("failed to create", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("created")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(created))
}

// Get отдаёт сущность по ID.
func (h *Handler[T, V]) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.crud.Get")

	id, ok := h.id(w, r)
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Info("failed to get", slog.Int64("id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(item))
}

// List отдаёт коллекцию. Без limit возвращаются все записи.
func (h *Handler[T, V]) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.crud.List")

	limit, offset, err := request.Page(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	items, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	if items == nil {
		items = []*V{}
	}
	render.JSON(w, r, response.StatusOKWithData(items))
}

// Update обрабатывает PUT и PATCH.
func (h *Handler[T, V]) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.crud.Update")

	id, ok := h.id(w, r)
	if !ok {
		return
	}

	item := new(T)
	if r.Method == http.MethodPatch {
		current, err := h.service.Load(r.Context(), id)
		if err != nil {
			log.Info("failed to load for patch", slog.Int64("id", id), sl.Err(err))
			response.RenderError(w, r, err)
			return
		}
		item = current
	}
	if err := render.DecodeJSON(r.Body, item); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	h.setID(item, id)

	updated, err := h.service.Update(r.Context(), item)
	if err != nil {
		log.Info("failed to update", slog.Int64("id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("updated", slog.Int64("id", id))
	render.JSON(w, r, response.StatusOKWithData(updated))
}

// Delete удаляет сущность и отвечает 204.
func (h *Handler[T, V]) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.crud.Delete")

	id, ok := h.id(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Info("failed to delete", slog.Int64("id", id), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("deleted", slog.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler[T, V]) id(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := request.ID(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return 0, false
	}
	return id, true
}
