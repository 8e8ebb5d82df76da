package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/driving-school/internal/events"
	"github.com/magabrotheeeer/driving-school/internal/lib/jwt"
	"github.com/magabrotheeeer/driving-school/internal/lib/password"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/models"
	"github.com/magabrotheeeer/driving-school/internal/revocation"
)

// Способы получения пары токенов, используются как метка метрик.
const (
	GrantPassword = "password"
	GrantRefresh  = "refresh"
	GrantGoogle   = "google"
)

const (
	msgEmailTaken       = "user with this email already exists."
	msgWrongOldPassword = "Your old password was entered incorrectly. Please enter it again."
)

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и заполняет его ID.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByEmail возвращает пользователя по email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID возвращает пользователя по ID.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// UpdatePassword заменяет хэш пароля пользователя.
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// Recorder собирает метрики аутентификации.
type Recorder interface {
	TokenIssued(grant string)
	AuthFailed(reason string)
}

type noopRecorder struct{}

func (noopRecorder) TokenIssued(string) {}
func (noopRecorder) AuthFailed(string)  {}

// AuthService реализует регистрацию, вход, обновление и отзыв токенов.
type AuthService struct {
	users     UserRepository
	jwtMaker  jwt.Maker
	tokens    revocation.Store
	publisher events.Publisher
	metrics   Recorder
	compare   func(hash, pass string) error
	log       *slog.Logger
}

// Option настраивает AuthService.
type Option func(*AuthService)

// WithPublisher включает публикацию событий регистрации.
func WithPublisher(p events.Publisher) Option {
	return func(s *AuthService) { s.publisher = p }
}

// WithMetrics подключает сбор метрик.
func WithMetrics(r Recorder) Option {
	return func(s *AuthService) { s.metrics = r }
}

// WithPasswordComparer подменяет проверку пароля, используется в тестах.
func WithPasswordComparer(compare func(hash, pass string) error) Option {
	return func(s *AuthService) { s.compare = compare }
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, tokens revocation.Store, log *slog.Logger, opts ...Option) *AuthService {
	s := &AuthService{
		users:     users,
		jwtMaker:  jwtMaker,
		tokens:    tokens,
		publisher: events.Noop{},
		metrics:   noopRecorder{},
		compare:   password.CompareHash,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register создаёт учётную запись студента. Роль при самостоятельной
// регистрации всегда student, флаги персонала сброшены.
func (s *AuthService) Register(ctx context.Context, email, pass, firstName, lastName string) (*models.User, error) {
	const op = "services.auth.Register"

	verr := &models.ValidationError{}
	for _, err := range password.Validate(pass) {
		verr.Add("password", err.Error())
	}
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := password.GetHash(pass)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u := &models.User{
		Email:        models.NormalizeEmail(email),
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, models.NewValidationError("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	events.Emit(ctx, s.log, s.publisher, events.UserRegistered, events.NewUserEvent(u, "register"))
	return u, nil
}

// Authenticate проверяет email и пароль и выпускает пару токенов.
// Неизвестный email, неактивный пользователь и неверный пароль неразличимы
// для вызывающего: все дают models.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, pass string) (*models.TokenPair, error) {
	const op = "services.auth.Authenticate"

	u, err := s.users.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Сравнение с фиктивным хэшем, чтобы время ответа не выдавало отсутствие email.
			_ = s.compare(password.DummyHash(), pass)
			s.metrics.AuthFailed("invalid_credentials")
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.compare(u.PasswordHash, pass); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Warn("stored password hash is unusable", slog.Int64("user_id", u.ID), sl.Err(err))
		}
		s.metrics.AuthFailed("invalid_credentials")
		return nil, models.ErrInvalidCredentials
	}
	if !u.IsActive {
		s.metrics.AuthFailed("inactive")
		return nil, models.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, u, GrantPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

// Refresh обменивает refresh-токен на новую пару. Предъявленный токен
// отзывается после проверки пользователя и до выпуска новой пары;
// повторное предъявление того же токена даёт models.ErrTokenRevoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "services.auth.Refresh"

	claims, err := s.jwtMaker.ParseToken(refreshToken, models.TokenRefresh)
	if err != nil {
		s.metrics.AuthFailed("token_not_valid")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Пользователь загружается до отзыва: сбой хранилища не должен сжигать токен.
	u, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !u.IsActive {
		return nil, models.ErrInvalidCredentials
	}

	inserted, err := s.tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !inserted {
		s.metrics.AuthFailed("token_revoked")
		return nil, fmt.Errorf("%s: %w", op, models.ErrTokenRevoked)
	}

	pair, err := s.issuePair(ctx, u, GrantRefresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

// Verify проверяет подпись и срок действия токена любого типа.
// Для refresh-токена дополнительно проверяется отзыв.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.Claims, error) {
	const op = "services.auth.Verify"

	claims, err := s.jwtMaker.ParseToken(token, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.TokenType == models.TokenRefresh {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if revoked {
			return nil, fmt.Errorf("%s: %w", op, models.ErrTokenRevoked)
		}
	}
	out := claims.Domain()
	return &out, nil
}

// Logout отзывает refresh-токен субъекта. Повторный отзыв не считается ошибкой.
// Токен другого пользователя отклоняется с models.ErrPermissionDenied.
func (s *AuthService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	const op = "services.auth.Logout"

	claims, err := s.jwtMaker.ParseToken(refreshToken, models.TokenRefresh)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if claims.UserID != userID {
		return fmt.Errorf("%s: %w", op, models.ErrPermissionDenied)
	}
	if _, err := s.tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	const op = "services.auth.ChangePassword"

	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.compare(u.PasswordHash, oldPassword); err != nil {
		return models.NewValidationError("old_password", msgWrongOldPassword)
	}

	verr := &models.ValidationError{}
	for _, err := range password.Validate(newPassword) {
		verr.Add("new_password", err.Error())
	}
	if !verr.Empty() {
		return verr
	}

	hash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LoginWithGoogle выпускает пару токенов по подтверждённой внешней личности.
// Если пользователя с таким email нет, создаётся студент без пароля.
func (s *AuthService) LoginWithGoogle(ctx context.Context, identity models.ExternalIdentity) (*models.TokenPair, error) {
	const op = "services.auth.LoginWithGoogle"

	if identity.Email == "" || !identity.EmailVerified {
		s.metrics.AuthFailed("email_not_verified")
		return nil, models.ErrInvalidCredentials
	}
	email := models.NormalizeEmail(identity.Email)

	u, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		u, err = s.createExternal(ctx, email, identity)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !u.IsActive {
		s.metrics.AuthFailed("inactive")
		return nil, models.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, u, GrantGoogle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

func (s *AuthService) createExternal(ctx context.Context, email string, identity models.ExternalIdentity) (*models.User, error) {
	hash, err := password.Unusable()
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    identity.FirstName,
		LastName:     identity.LastName,
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created from external identity",
		slog.Int64("user_id", u.ID),
		slog.String("provider", identity.Provider),
	)
	events.Emit(ctx, s.log, s.publisher, events.UserRegistered, events.NewUserEvent(u, identity.Provider))
	return u, nil
}

func (s *AuthService) issuePair(ctx context.Context, u *models.User, grant string) (*models.TokenPair, error) {
	subject := jwt.Subject{UserID: u.ID, Email: u.Email, Role: u.Role}

	access, _, err := s.jwtMaker.GenerateToken(subject, models.TokenAccess)
	if err != nil {
		return nil, err
	}
	refresh, claims, err := s.jwtMaker.GenerateToken(subject, models.TokenRefresh)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Track(ctx, claims.ID, u.ID, claims.ExpiresAt.Time); err != nil {
		return nil, err
	}

	s.metrics.TokenIssued(grant)
	return &models.TokenPair{Access: access, Refresh: refresh}, nil
}
