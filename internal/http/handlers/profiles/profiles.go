// Package profiles связывает профили студентов и преподавателей с типовыми
// CRUD-обработчиками.
package profiles

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/driving-school/internal/http/handlers/crud"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

// TeacherService описывает операции над профилями преподавателей.
type TeacherService interface {
	CreateTeacher(ctx context.Context, p *models.TeacherProfile) error
	GetTeacher(ctx context.Context, id int64) (*models.TeacherProfile, error)
	ListTeachers(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error)
	UpdateTeacher(ctx context.Context, p *models.TeacherProfile) error
	DeleteTeacher(ctx context.Context, id int64) error
}

// StudentService описывает операции над профилями студентов.
type StudentService interface {
	CreateStudent(ctx context.Context, p *models.StudentProfile) error
	GetStudent(ctx context.Context, id int64) (*models.StudentProfile, error)
	ListStudents(ctx context.Context, limit, offset int) ([]*models.StudentProfile, error)
	UpdateStudent(ctx context.Context, p *models.StudentProfile) error
	DeleteStudent(ctx context.Context, id int64) error
}

// NewTeachers возвращает обработчики /profiles/teachers.
func NewTeachers(log *slog.Logger, svc TeacherService) *crud.Handler[models.TeacherProfile, models.TeacherProfile] {
	return crud.New[models.TeacherProfile, models.TeacherProfile](log, "teacher_profile", teachers{svc}, func(p *models.TeacherProfile, id int64) { p.ID = id })
}

// NewStudents возвращает обработчики /profiles/students.
func NewStudents(log *slog.Logger, svc StudentService) *crud.Handler[models.StudentProfile, models.StudentProfile] {
	return crud.New[models.StudentProfile, models.StudentProfile](log, "student_profile", students{svc}, func(p *models.StudentProfile, id int64) { p.ID = id })
}

type teachers struct{ svc TeacherService }

func (a teachers) Create(ctx context.Context, p *models.TeacherProfile) (*models.TeacherProfile, error) {
	if err := a.svc.CreateTeacher(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (a teachers) Get(ctx context.Context, id int64) (*models.TeacherProfile, error) {
	return a.svc.GetTeacher(ctx, id)
}

func (a teachers) Load(ctx context.Context, id int64) (*models.TeacherProfile, error) {
	return a.svc.GetTeacher(ctx, id)
}

func (a teachers) List(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error) {
	return a.svc.ListTeachers(ctx, limit, offset)
}

func (a teachers) Update(ctx context.Context, p *models.TeacherProfile) (*models.TeacherProfile, error) {
	if err := a.svc.UpdateTeacher(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (a teachers) Delete(ctx context.Context, id int64) error {
	return a.svc.DeleteTeacher(ctx, id)
}

type students struct{ svc StudentService }

func (a students) Create(ctx context.Context, p *models.StudentProfile) (*models.StudentProfile, error) {
	if err := a.svc.CreateStudent(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (a students) Get(ctx context.Context, id int64) (*models.StudentProfile, error) {
	return a.svc.GetStudent(ctx, id)
}

func (a students) Load(ctx context.Context, id int64) (*models.StudentProfile, error) {
	return a.svc.GetStudent(ctx, id)
}

func (a students) List(ctx context.Context, limit, offset int) ([]*models.StudentProfile, error) {
	return a.svc.ListStudents(ctx, limit, offset)
}

func (a students) Update(ctx context.Context, p *models.StudentProfile) (*models.StudentProfile, error) {
	if err := a.svc.UpdateStudent(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (a students) Delete(ctx context.Context, id int64) error {
	return a.svc.DeleteStudent(ctx, id)
}
