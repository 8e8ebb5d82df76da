package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

// Repository определяет методы хранилища профилей.
type Repository interface {
	// GetUserByID нужен для проверки роли владельца профиля.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// GetGroup нужен для проверки ссылки студента на группу.
	GetGroup(ctx context.Context, id int64) (*models.Group, error)

	CreateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error
	GetTeacherProfile(ctx context.Context, id int64) (*models.TeacherProfile, error)
	ListTeacherProfiles(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error)
	UpdateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error
	DeleteTeacherProfile(ctx context.Context, id int64) error

	CreateStudentProfile(ctx context.Context, p *models.StudentProfile) error
	GetStudentProfile(ctx context.Context, id int64) (*models.StudentProfile, error)
	ListStudentProfiles(ctx context.Context, limit, offset int) ([]*models.StudentProfile, error)
	UpdateStudentProfile(ctx context.Context, p *models.StudentProfile) error
	DeleteStudentProfile(ctx context.Context, id int64) error
}

// ProfileService управляет профилями преподавателей и студентов.
type ProfileService struct {
	repo Repository
	log  *slog.Logger
}

// NewProfileService создает новый экземпляр ProfileService.
func NewProfileService(repo Repository, log *slog.Logger) *ProfileService {
	return &ProfileService{repo: repo, log: log}
}

// CreateTeacher создаёт профиль преподавателя для пользователя с ролью teacher.
func (s *ProfileService) CreateTeacher(ctx context.Context, p *models.TeacherProfile) error {
	const op = "services.profile.CreateTeacher"
	if err := s.validateTeacher(ctx, p); err != nil {
		return err
	}
	if err := s.repo.CreateTeacherProfile(ctx, p); err != nil {
		return profileError(op, "teacher profile", err)
	}
	s.log.Info("teacher profile created", slog.Int64("profile_id", p.ID), slog.Int64("user_id", p.UserID))
	return nil
}

// GetTeacher возвращает профиль преподавателя.
func (s *ProfileService) GetTeacher(ctx context.Context, id int64) (*models.TeacherProfile, error) {
	const op = "services.profile.GetTeacher"
	p, err := s.repo.GetTeacherProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListTeachers возвращает профили преподавателей.
func (s *ProfileService) ListTeachers(ctx context.Context, limit, offset int) ([]*models.TeacherProfile, error) {
	const op = "services.profile.ListTeachers"
	list, err := s.repo.ListTeacherProfiles(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// UpdateTeacher перезаписывает профиль преподавателя.
func (s *ProfileService) UpdateTeacher(ctx context.Context, p *models.TeacherProfile) error {
	const op = "services.profile.UpdateTeacher"
	if err := s.validateTeacher(ctx, p); err != nil {
		return err
	}
	if err := s.repo.UpdateTeacherProfile(ctx, p); err != nil {
		return profileError(op, "teacher profile", err)
	}
	return nil
}

// DeleteTeacher удаляет профиль преподавателя; его группы остаются без преподавателя.
func (s *ProfileService) DeleteTeacher(ctx context.Context, id int64) error {
	const op = "services.profile.DeleteTeacher"
	if err := s.repo.DeleteTeacherProfile(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateStudent создаёт профиль студента для пользователя с ролью student.
func (s *ProfileService) CreateStudent(ctx context.Context, p *models.StudentProfile) error {
	const op = "services.profile.CreateStudent"
	if err := s.validateStudent(ctx, p); err != nil {
		return err
	}
	if err := s.repo.CreateStudentProfile(ctx, p); err != nil {
		return profileError(op, "student profile", err)
	}
	s.log.Info("student profile created", slog.Int64("profile_id", p.ID), slog.Int64("user_id", p.UserID))
	return nil
}

// GetStudent возвращает профиль студента.
func (s *ProfileService) GetStudent(ctx context.Context, id int64) (*models.StudentProfile, error) {
	const op = "services.profile.GetStudent"
	p, err := s.repo.GetStudentProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListStudents возвращает профили студентов.
func (s *ProfileService) ListStudents(ctx context.Context, limit, offset int) ([]*models.StudentProfile, error) {
	const op = "services.profile.ListStudents"
	list, err := s.repo.ListStudentProfiles(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// UpdateStudent перезаписывает профиль студента.
func (s *ProfileService) UpdateStudent(ctx context.Context, p *models.StudentProfile) error {
	const op = "services.profile.UpdateStudent"
	if err := s.validateStudent(ctx, p); err != nil {
		return err
	}
	if err := s.repo.UpdateStudentProfile(ctx, p); err != nil {
		return profileError(op, "student profile", err)
	}
	return nil
}

// DeleteStudent удаляет профиль студента.
func (s *ProfileService) DeleteStudent(ctx context.Context, id int64) error {
	const op = "services.profile.DeleteStudent"
	if err := s.repo.DeleteStudentProfile(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *ProfileService) validateTeacher(ctx context.Context, p *models.TeacherProfile) error {
	verr := &models.ValidationError{}
	if !p.Type.Valid() {
		verr.Add("type", fmt.Sprintf("%q is not a valid choice.", p.Type))
	}
	if err := s.checkOwner(ctx, verr, p.UserID, models.RoleTeacher); err != nil {
		return err
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

func (s *ProfileService) validateStudent(ctx context.Context, p *models.StudentProfile) error {
	verr := &models.ValidationError{}
	if err := s.checkOwner(ctx, verr, p.UserID, models.RoleStudent); err != nil {
		return err
	}
	if p.GroupID != nil {
		_, err := s.repo.GetGroup(ctx, *p.GroupID)
		switch {
		case err == nil:
		case errors.Is(err, models.ErrNotFound):
			verr.Add("group", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *p.GroupID))
		default:
			return err
		}
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

// checkOwner проверяет, что пользователь существует и имеет нужную роль.
func (s *ProfileService) checkOwner(ctx context.Context, verr *models.ValidationError, userID int64, role models.Role) error {
	if userID == 0 {
		verr.Add("user", "This field is required.")
		return nil
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		verr.Add("user", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", userID))
		return nil
	default:
		return err
	}
	if u.Role != role {
		verr.Add("user", fmt.Sprintf("user must have role %s.", role))
	}
	return nil
}

func profileError(op, entity string, err error) error {
	if errors.Is(err, models.ErrDuplicate) {
		return models.NewValidationError("user", entity+" with this user already exists.")
	}
	return fmt.Errorf("%s: %w", op, err)
}
