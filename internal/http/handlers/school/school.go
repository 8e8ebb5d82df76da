// Package school связывает справочники автошколы (филиалы, категории прав,
// группы) с типовыми CRUD-обработчиками.
package school

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/driving-school/internal/http/handlers/crud"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

// FilialService описывает операции над филиалами.
type FilialService interface {
	CreateFilial(ctx context.Context, f *models.Filial) error
	GetFilial(ctx context.Context, id int64) (*models.Filial, error)
	ListFilials(ctx context.Context, limit, offset int) ([]*models.Filial, error)
	UpdateFilial(ctx context.Context, f *models.Filial) error
	DeleteFilial(ctx context.Context, id int64) error
}

// CategoryService описывает операции над категориями прав.
type CategoryService interface {
	CreateDrivingCategory(ctx context.Context, c *models.DrivingCategory) error
	GetDrivingCategory(ctx context.Context, id int64) (*models.DrivingCategory, error)
	ListDrivingCategories(ctx context.Context, limit, offset int) ([]*models.DrivingCategory, error)
	UpdateDrivingCategory(ctx context.Context, c *models.DrivingCategory) error
	DeleteDrivingCategory(ctx context.Context, id int64) error
}

// GroupService описывает операции над группами.
type GroupService interface {
	CreateGroup(ctx context.Context, g *models.Group) (*models.GroupView, error)
	GetGroup(ctx context.Context, id int64) (*models.GroupView, error)
	GetGroupRaw(ctx context.Context, id int64) (*models.Group, error)
	ListGroups(ctx context.Context, limit, offset int) ([]*models.GroupView, error)
	UpdateGroup(ctx context.Context, g *models.Group) (*models.GroupView, error)
	DeleteGroup(ctx context.Context, id int64) error
}

// NewFilials возвращает обработчики /filials.
func NewFilials(log *slog.Logger, svc FilialService) *crud.Handler[models.Filial, models.Filial] {
	return crud.New[models.Filial, models.Filial](log, "filial", filials{svc}, func(f *models.Filial, id int64) { f.ID = id })
}

// NewDrivingCategories возвращает обработчики /driving-categories.
func NewDrivingCategories(log *slog.Logger, svc CategoryService) *crud.Handler[models.DrivingCategory, models.DrivingCategory] {
	return crud.New[models.DrivingCategory, models.DrivingCategory](log, "driving_category", categories{svc}, func(c *models.DrivingCategory, id int64) { c.ID = id })
}

// NewGroups возвращает обработчики /groups. Чтение отдаёт группу с вложенными сущностями.
func NewGroups(log *slog.Logger, svc GroupService) *crud.Handler[models.Group, models.GroupView] {
	return crud.New[models.Group, models.GroupView](log, "group", groups{svc}, func(g *models.Group, id int64) { g.ID = id })
}

type filials struct{ svc FilialService }

func (a filials) Create(ctx context.Context, f *models.Filial) (*models.Filial, error) {
	if err := a.svc.CreateFilial(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (a filials) Get(ctx context.Context, id int64) (*models.Filial, error) {
	return a.svc.GetFilial(ctx, id)
}

func (a filials) Load(ctx context.Context, id int64) (*models.Filial, error) {
	return a.svc.GetFilial(ctx, id)
}

func (a filials) List(ctx context.Context, limit, offset int) ([]*models.Filial, error) {
	return a.svc.ListFilials(ctx, limit, offset)
}

func (a filials) Update(ctx context.Context, f *models.Filial) (*models.Filial, error) {
	if err := a.svc.UpdateFilial(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (a filials) Delete(ctx context.Context, id int64) error {
	return a.svc.DeleteFilial(ctx, id)
}

type categories struct{ svc CategoryService }

func (a categories) Create(ctx context.Context, c *models.DrivingCategory) (*models.DrivingCategory, error) {
	if err := a.svc.CreateDrivingCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (a categories) Get(ctx context.Context, id int64) (*models.DrivingCategory, error) {
	return a.svc.GetDrivingCategory(ctx, id)
}

func (a categories) Load(ctx context.Context, id int64) (*models.DrivingCategory, error) {
	return a.svc.GetDrivingCategory(ctx, id)
}

func (a categories) List(ctx context.Context, limit, offset int) ([]*models.DrivingCategory, error) {
	return a.svc.ListDrivingCategories(ctx, limit, offset)
}

func (a categories) Update(ctx context.Context, c *models.DrivingCategory) (*models.DrivingCategory, error) {
	if err := a.svc.UpdateDrivingCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (a categories) Delete(ctx context.Context, id int64) error {
	return a.svc.DeleteDrivingCategory(ctx, id)
}

type groups struct{ svc GroupService }

func (a groups) Create(ctx context.Context, g *models.Group) (*models.GroupView, error) {
	return a.svc.CreateGroup(ctx, g)
}

func (a groups) Get(ctx context.Context, id int64) (*models.GroupView, error) {
	return a.svc.GetGroup(ctx, id)
}

func (a groups) Load(ctx context.Context, id int64) (*models.Group, error) {
	return a.svc.GetGroupRaw(ctx, id)
}

func (a groups) List(ctx context.Context, limit, offset int) ([]*models.GroupView, error) {
	return a.svc.ListGroups(ctx, limit, offset)
}

func (a groups) Update(ctx context.Context, g *models.Group) (*models.GroupView, error) {
	return a.svc.UpdateGroup(ctx, g)
}

func (a groups) Delete(ctx context.Context, id int64) error {
	return a.svc.DeleteGroup(ctx, id)
}
