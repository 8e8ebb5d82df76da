package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/driving-school/internal/events"
	"github.com/magabrotheeeer/driving-school/internal/lib/password"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

const (
	msgEmailImmutable = "Email address cannot be changed."
	msgEmailTaken     = "user with this email already exists."
	msgRequired       = "This field is required."
	msgBlank          = "This field may not be blank."
	msgInvalidEmail   = "Enter a valid email address."
	msgInvalidRole    = "is not a valid choice."

	maxNameLength  = 50
	maxPhoneLength = 20
)

// UserRepository определяет методы хранилища для управления пользователями.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и заполняет его ID.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByID возвращает пользователя по ID.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// GetUserByEmail возвращает пользователя по email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// ListUsers возвращает пользователей, при непустой роли только с этой ролью.
	ListUsers(ctx context.Context, role models.Role, limit, offset int) ([]*models.User, error)
	// UpdateUser перезаписывает изменяемые поля пользователя.
	UpdateUser(ctx context.Context, u *models.User) error
	// DeleteUser удаляет пользователя вместе с его профилями.
	DeleteUser(ctx context.Context, id int64) error
}

// UserService управляет учётными записями: администрирование и самообслуживание.
type UserService struct {
	repo      UserRepository
	publisher events.Publisher
	log       *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
// publisher может быть nil, тогда события не публикуются.
func NewUserService(repo UserRepository, publisher events.Publisher, log *slog.Logger) *UserService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &UserService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Create создаёт пользователя от имени администратора.
func (s *UserService) Create(ctx context.Context, in models.NewUser) (*models.User, error) {
	const op = "services.user.Create"

	verr := validateNewUser(in)
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := password.GetHash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u := &models.User{
		Email:        models.NormalizeEmail(in.Email),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		BirthDate:    in.BirthDate,
		Phone:        in.Phone,
		Address:      in.Address,
		IsActive:     true,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
		IsPaid:       in.IsPaid,
	}
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, models.NewValidationError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user created", slog.Int64("user_id", u.ID), slog.String("role", string(u.Role)))
	events.Emit(ctx, s.log, s.publisher, events.UserRegistered, events.NewUserEvent(u, "admin"))
	return u, nil
}

// Get возвращает пользователя по ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	const op = "services.user.Get"
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// List возвращает пользователей, опционально отфильтрованных по роли.
func (s *UserService) List(ctx context.Context, role models.Role, limit, offset int) ([]*models.User, error) {
	const op = "services.user.List"
	if role != "" && !role.Valid() {
		return nil, models.NewValidationError("role", fmt.Sprintf("%q %s", role, msgInvalidRole))
	}
	users, err := s.repo.ListUsers(ctx, role, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// Update применяет изменения администратора. Email изменить нельзя.
func (s *UserService) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	const op = "services.user.Update"

	current, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	updated, err := s.apply(ctx, current, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// Delete удаляет пользователя.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	const op = "services.user.Delete"

	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deleted", slog.Int64("user_id", id))
	events.Emit(ctx, s.log, s.publisher, events.UserDeleted, events.NewUserEvent(u, "admin"))
	return nil
}

// GetSelf возвращает учётную запись субъекта запроса.
func (s *UserService) GetSelf(ctx context.Context, subjectID int64) (*models.User, error) {
	const op = "services.user.GetSelf"
	u, err := s.repo.GetUserByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateSelf обновляет собственную учётную запись. Учитываются только email,
// пароль, имя и фамилия; email должен совпадать с текущим.
func (s *UserService) UpdateSelf(ctx context.Context, subjectID int64, patch models.UserPatch) (*models.User, error) {
	const op = "services.user.UpdateSelf"

	current, err := s.repo.GetUserByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	allowed := models.UserPatch{
		Email:     patch.Email,
		Password:  patch.Password,
		FirstName: patch.FirstName,
		LastName:  patch.LastName,
	}
	updated, err := s.apply(ctx, current, allowed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// EnsureAdmin создаёт администратора, если пользователя с таким email ещё нет.
// Возвращает true, если учётная запись была создана.
func (s *UserService) EnsureAdmin(ctx context.Context, email, pass string) (bool, error) {
	const op = "services.user.EnsureAdmin"

	_, err := s.repo.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.Create(ctx, models.NewUser{
		Email:       email,
		Password:    pass,
		FirstName:   "Admin",
		LastName:    "Admin",
		Role:        models.RoleAdmin,
		IsStaff:     true,
		IsSuperuser: true,
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// apply проверяет изменения целиком и только затем сохраняет их.
// При любой ошибке проверки пользователь не изменяется.
func (s *UserService) apply(ctx context.Context, current *models.User, patch models.UserPatch) (*models.User, error) {
	verr := &models.ValidationError{}
	next := *current

	if patch.Email != nil && *patch.Email != current.Email {
		verr.Add("email", msgEmailImmutable)
		verr.Cause = models.ErrImmutableField
	}
	if patch.Password != nil {
		for _, err := range password.Validate(*patch.Password) {
			verr.Add("password", err.Error())
		}
	}
	if patch.FirstName != nil {
		validateName(verr, "first_name", *patch.FirstName)
		next.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		validateName(verr, "last_name", *patch.LastName)
		next.LastName = *patch.LastName
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			verr.Add("role", fmt.Sprintf("%q %s", *patch.Role, msgInvalidRole))
		}
		next.Role = *patch.Role
	}
	if patch.Phone != nil {
		if len(*patch.Phone) > maxPhoneLength {
			verr.Add("phone", fmt.Sprintf("Ensure this field has no more than %d characters.", maxPhoneLength))
		}
		next.Phone = patch.Phone
	}
	if patch.BirthDate != nil {
		next.BirthDate = patch.BirthDate
	}
	if patch.Address != nil {
		next.Address = patch.Address
	}
	if patch.IsActive != nil {
		next.IsActive = *patch.IsActive
	}
	if patch.IsStaff != nil {
		next.IsStaff = *patch.IsStaff
	}
	if patch.IsSuperuser != nil {
		next.IsSuperuser = *patch.IsSuperuser
	}
	if patch.IsPaidSet {
		next.IsPaid = patch.IsPaid
	}
	if !verr.Empty() {
		return nil, verr
	}

	if patch.Password != nil {
		hash, err := password.GetHash(*patch.Password)
		if err != nil {
			return nil, err
		}
		next.PasswordHash = hash
	}
	if err := s.repo.UpdateUser(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

var emailValidator = validator.New()

func validateNewUser(in models.NewUser) *models.ValidationError {
	verr := &models.ValidationError{}
	switch {
	case in.Email == "":
		verr.Add("email", msgRequired)
	default:
		if err := emailValidator.Var(in.Email, "email"); err != nil {
			verr.Add("email", msgInvalidEmail)
		}
	}
	for _, err := range password.Validate(in.Password) {
		verr.Add("password", err.Error())
	}
	validateName(verr, "first_name", in.FirstName)
	validateName(verr, "last_name", in.LastName)
	if in.Role != "" && !in.Role.Valid() {
		verr.Add("role", fmt.Sprintf("%q %s", in.Role, msgInvalidRole))
	}
	if in.Phone != nil && len(*in.Phone) > maxPhoneLength {
		verr.Add("phone", fmt.Sprintf("Ensure this field has no more than %d characters.", maxPhoneLength))
	}
	return verr
}

func validateName(verr *models.ValidationError, field, value string) {
	switch {
	case value == "":
		verr.Add(field, msgBlank)
	case len([]rune(value)) > maxNameLength:
		verr.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
}
