package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

const (
	maxCityLength      = 100
	maxAddressLength   = 255
	maxCategoryLength  = 5
	maxGroupNameLength = 100

	filialsKey    = "filials"
	categoriesKey = "driving_categories"
)

// Repository определяет методы хранилища для справочников и групп.
type Repository interface {
	CreateFilial(ctx context.Context, f *models.Filial) error
	GetFilial(ctx context.Context, id int64) (*models.Filial, error)
	ListFilials(ctx context.Context, limit, offset int) ([]*models.Filial, error)
	UpdateFilial(ctx context.Context, f *models.Filial) error
	DeleteFilial(ctx context.Context, id int64) error

	CreateDrivingCategory(ctx context.Context, c *models.DrivingCategory) error
	GetDrivingCategory(ctx context.Context, id int64) (*models.DrivingCategory, error)
	ListDrivingCategories(ctx context.Context, limit, offset int) ([]*models.DrivingCategory, error)
	UpdateDrivingCategory(ctx context.Context, c *models.DrivingCategory) error
	DeleteDrivingCategory(ctx context.Context, id int64) error

	CreateGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	GetGroupView(ctx context.Context, id int64) (*models.GroupView, error)
	ListGroupViews(ctx context.Context, limit, offset int) ([]*models.GroupView, error)
	UpdateGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, id int64) error

	// GetTeacherProfile нужен для проверки ссылки группы на преподавателя.
	GetTeacherProfile(ctx context.Context, id int64) (*models.TeacherProfile, error)
}

// Cache описывает методы для кэширования справочников.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// SchoolService управляет филиалами, категориями прав и группами.
type SchoolService struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewSchoolService создает новый экземпляр SchoolService.
func NewSchoolService(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *SchoolService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SchoolService{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

func filialKey(id int64) string   { return fmt.Sprintf("filial:%d", id) }
func categoryKey(id int64) string { return fmt.Sprintf("driving_category:%d", id) }

// CreateFilial создаёт филиал.
func (s *SchoolService) CreateFilial(ctx context.Context, f *models.Filial) error {
	const op = "services.school.CreateFilial"
	if verr := validateFilial(f); !verr.Empty() {
		return verr
	}
	if err := s.repo.CreateFilial(ctx, f); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, filialsKey)
	return nil
}

// GetFilial возвращает филиал, сначала пытаясь прочитать его из кэша.
func (s *SchoolService) GetFilial(ctx context.Context, id int64) (*models.Filial, error) {
	const op = "services.school.GetFilial"

	var cached models.Filial
	if s.fromCache(ctx, filialKey(id), &cached) {
		return &cached, nil
	}
	f, err := s.repo.GetFilial(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(ctx, filialKey(id), f)
	return f, nil
}

// ListFilials возвращает филиалы. Полный список без пагинации кэшируется.
func (s *SchoolService) ListFilials(ctx context.Context, limit, offset int) ([]*models.Filial, error) {
	const op = "services.school.ListFilials"

	cacheable := limit <= 0 && offset == 0
	if cacheable {
		var cached []*models.Filial
		if s.fromCache(ctx, filialsKey, &cached) {
			return cached, nil
		}
	}
	filials, err := s.repo.ListFilials(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cacheable {
		s.toCache(ctx, filialsKey, filials)
	}
	return filials, nil
}

// UpdateFilial перезаписывает филиал.
func (s *SchoolService) UpdateFilial(ctx context.Context, f *models.Filial) error {
	const op = "services.school.UpdateFilial"
	if verr := validateFilial(f); !verr.Empty() {
		return verr
	}
	if err := s.repo.UpdateFilial(ctx, f); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, filialsKey, filialKey(f.ID))
	return nil
}

// DeleteFilial удаляет филиал вместе с его группами.
func (s *SchoolService) DeleteFilial(ctx context.Context, id int64) error {
	const op = "services.school.DeleteFilial"
	if err := s.repo.DeleteFilial(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, filialsKey, filialKey(id))
	return nil
}

// CreateDrivingCategory создаёт категорию прав. Имя уникально.
func (s *SchoolService) CreateDrivingCategory(ctx context.Context, c *models.DrivingCategory) error {
	const op = "services.school.CreateDrivingCategory"
	if verr := validateCategory(c); !verr.Empty() {
		return verr
	}
	if err := s.repo.CreateDrivingCategory(ctx, c); err != nil {
		return categoryError(op, err)
	}
	s.invalidate(ctx, categoriesKey)
	return nil
}

// GetDrivingCategory возвращает категорию прав.
func (s *SchoolService) GetDrivingCategory(ctx context.Context, id int64) (*models.DrivingCategory, error) {
	const op = "services.school.GetDrivingCategory"

	var cached models.DrivingCategory
	if s.fromCache(ctx, categoryKey(id), &cached) {
		return &cached, nil
	}
	c, err := s.repo.GetDrivingCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(ctx, categoryKey(id), c)
	return c, nil
}

// ListDrivingCategories возвращает категории прав.
func (s *SchoolService) ListDrivingCategories(ctx context.Context, limit, offset int) ([]*models.DrivingCategory, error) {
	const op = "services.school.ListDrivingCategories"

	cacheable := limit <= 0 && offset == 0
	if cacheable {
		var cached []*models.DrivingCategory
		if s.fromCache(ctx, categoriesKey, &cached) {
			return cached, nil
		}
	}
	categories, err := s.repo.ListDrivingCategories(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cacheable {
		s.toCache(ctx, categoriesKey, categories)
	}
	return categories, nil
}

// UpdateDrivingCategory переименовывает категорию.
func (s *SchoolService) UpdateDrivingCategory(ctx context.Context, c *models.DrivingCategory) error {
	const op = "services.school.UpdateDrivingCategory"
	if verr := validateCategory(c); !verr.Empty() {
		return verr
	}
	if err := s.repo.UpdateDrivingCategory(ctx, c); err != nil {
		return categoryError(op, err)
	}
	s.invalidate(ctx, categoriesKey, categoryKey(c.ID))
	return nil
}

// DeleteDrivingCategory удаляет категорию вместе с её группами.
func (s *SchoolService) DeleteDrivingCategory(ctx context.Context, id int64) error {
	const op = "services.school.DeleteDrivingCategory"
	if err := s.repo.DeleteDrivingCategory(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, categoriesKey, categoryKey(id))
	return nil
}

// CreateGroup создаёт группу и возвращает её представление для чтения.
func (s *SchoolService) CreateGroup(ctx context.Context, g *models.Group) (*models.GroupView, error) {
	const op = "services.school.CreateGroup"
	if err := s.validateGroup(ctx, g); err != nil {
		return nil, err
	}
	if err := s.repo.CreateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.GetGroup(ctx, g.ID)
}

// GetGroup возвращает группу с вложенными категорией, филиалом и преподавателем.
func (s *SchoolService) GetGroup(ctx context.Context, id int64) (*models.GroupView, error) {
	const op = "services.school.GetGroup"
	g, err := s.repo.GetGroupView(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return g, nil
}

// GetGroupRaw возвращает группу со ссылками в виде ID, используется для частичного обновления.
func (s *SchoolService) GetGroupRaw(ctx context.Context, id int64) (*models.Group, error) {
	const op = "services.school.GetGroupRaw"
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return g, nil
}

// ListGroups возвращает группы.
func (s *SchoolService) ListGroups(ctx context.Context, limit, offset int) ([]*models.GroupView, error) {
	const op = "services.school.ListGroups"
	groups, err := s.repo.ListGroupViews(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return groups, nil
}

// UpdateGroup перезаписывает группу.
func (s *SchoolService) UpdateGroup(ctx context.Context, g *models.Group) (*models.GroupView, error) {
	const op = "services.school.UpdateGroup"
	if err := s.validateGroup(ctx, g); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.GetGroup(ctx, g.ID)
}

// DeleteGroup удаляет группу. Студенты группы остаются без группы.
func (s *SchoolService) DeleteGroup(ctx context.Context, id int64) error {
	const op = "services.school.DeleteGroup"
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SchoolService) validateGroup(ctx context.Context, g *models.Group) error {
	verr := &models.ValidationError{}
	checkLength(verr, "name", g.Name, maxGroupNameLength)
	if !g.Type.Valid() {
		verr.Add("type", fmt.Sprintf("%q is not a valid choice.", g.Type))
	}

	checks := []struct {
		field string
		id    *int64
		load  func(context.Context, int64) error
	}{
		{"driving_category", &g.DrivingCategoryID, func(ctx context.Context, id int64) error {
			_, err := s.repo.GetDrivingCategory(ctx, id)
			return err
		}},
		{"filial", &g.FilialID, func(ctx context.Context, id int64) error {
			_, err := s.repo.GetFilial(ctx, id)
			return err
		}},
		{"teacher", g.TeacherID, func(ctx context.Context, id int64) error {
			_, err := s.repo.GetTeacherProfile(ctx, id)
			return err
		}},
	}
	for _, c := range checks {
		if c.id == nil {
			continue
		}
		if *c.id == 0 {
			verr.Add(c.field, "This field is required.")
			continue
		}
		err := c.load(ctx, *c.id)
		switch {
		case err == nil:
		case errors.Is(err, models.ErrNotFound):
			verr.Add(c.field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *c.id))
		default:
			return err
		}
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

func (s *SchoolService) fromCache(ctx context.Context, key string, result any) bool {
	found, err := s.cache.Get(ctx, key, result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
		return false
	}
	return found
}

func (s *SchoolService) toCache(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
}

func (s *SchoolService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to remove from cache", slog.Any("keys", keys), sl.Err(err))
	}
}

func validateFilial(f *models.Filial) *models.ValidationError {
	verr := &models.ValidationError{}
	checkLength(verr, "city", f.City, maxCityLength)
	checkLength(verr, "address", f.Address, maxAddressLength)
	return verr
}

func validateCategory(c *models.DrivingCategory) *models.ValidationError {
	verr := &models.ValidationError{}
	checkLength(verr, "name", c.Name, maxCategoryLength)
	return verr
}

func categoryError(op string, err error) error {
	if errors.Is(err, models.ErrDuplicate) {
		return models.NewValidationError("name", "driving category with this name already exists.")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func checkLength(verr *models.ValidationError, field, value string, maxLen int) {
	switch {
	case value == "":
		verr.Add(field, "This field may not be blank.")
	case utf8.RuneCountInString(value) > maxLen:
		verr.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxLen))
	}
}
