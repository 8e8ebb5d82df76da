package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/driving-school/internal/cache"
	"github.com/magabrotheeeer/driving-school/internal/models"
	services "github.com/magabrotheeeer/driving-school/internal/services/school"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Мок для Repository
type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateFilial(ctx context.Context, f *models.Filial) error {
	return m.Called(ctx, f).Error(0)
}

func (m *RepoMock) GetFilial(ctx context.Context, id int64) (*models.Filial, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Filial), args.Error(1)
}

func (m *RepoMock) ListFilials(ctx context.Context, limit, offset int) ([]*models.Filial, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Filial), args.Error(1)
}

func (m *RepoMock) UpdateFilial(ctx context.Context, f *models.Filial) error {
	return m.Called(ctx, f).Error(0)
}

func (m *RepoMock) DeleteFilial(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) CreateDrivingCategory(ctx context.Context, c *models.DrivingCategory) error {
	return m.Called(ctx, c).Error(0)
}

func (m *RepoMock) GetDrivingCategory(ctx context.Context, id int64) (*models.DrivingCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DrivingCategory), args.Error(1)
}

func (m *RepoMock) ListDrivingCategories(ctx context.Context, limit, offset int) ([]*models.DrivingCategory, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DrivingCategory), args.Error(1)
}

func (m *RepoMock) UpdateDrivingCategory(ctx context.Context, c *models.DrivingCategory) error {
	return m.Called(ctx, c).Error(0)
}

func (m *RepoMock) DeleteDrivingCategory(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) CreateGroup(ctx context.Context, g *models.Group) error {
	return m.Called(ctx, g).Error(0)
}

func (m *RepoMock) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *RepoMock) GetGroupView(ctx context.Context, id int64) (*models.GroupView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GroupView), args.Error(1)
}

func (m *RepoMock) ListGroupViews(ctx context.Context, limit, offset int) ([]*models.GroupView, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GroupView), args.Error(1)
}

func (m *RepoMock) UpdateGroup(ctx context.Context, g *models.Group) error {
	return m.Called(ctx, g).Error(0)
}

func (m *RepoMock) DeleteGroup(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) GetTeacherProfile(ctx context.Context, id int64) (*models.TeacherProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeacherProfile), args.Error(1)
}

func newRedisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &cache.Cache{Db: client}, mr
}

func TestSchoolService_GetFilial_UsesCache(t *testing.T) {
	repo := new(RepoMock)
	c, _ := newRedisCache(t)
	svc := services.NewSchoolService(repo, c, time.Minute, newNoopLogger())
	ctx := context.Background()

	repo.On("GetFilial", mock.Anything, int64(1)).
		Return(&models.Filial{ID: 1, City: "Kyiv", Address: "Main 1"}, nil).Once()

	first, err := svc.GetFilial(ctx, 1)
	require.NoError(t, err)
	second, err := svc.GetFilial(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "GetFilial", 1)
}

func TestSchoolService_UpdateFilial_InvalidatesCache(t *testing.T) {
	repo := new(RepoMock)
	c, mr := newRedisCache(t)
	svc := services.NewSchoolService(repo, c, time.Minute, newNoopLogger())
	ctx := context.Background()

	repo.On("ListFilials", mock.Anything, 0, 0).
		Return([]*models.Filial{{ID: 1, City: "Kyiv", Address: "Main 1"}}, nil).Once()
	_, err := svc.ListFilials(ctx, 0, 0)
	require.NoError(t, err)
	assert.True(t, mr.Exists("filials"))

	repo.On("UpdateFilial", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, svc.UpdateFilial(ctx, &models.Filial{ID: 1, City: "Lviv", Address: "Rynok 1"}))
	assert.False(t, mr.Exists("filials"))
	assert.False(t, mr.Exists("filial:1"))
	repo.AssertExpectations(t)
}

func TestSchoolService_ListFilials_PagedNotCached(t *testing.T) {
	repo := new(RepoMock)
	c, mr := newRedisCache(t)
	svc := services.NewSchoolService(repo, c, time.Minute, newNoopLogger())

	repo.On("ListFilials", mock.Anything, 10, 10).Return([]*models.Filial{}, nil).Twice()
	for i := 0; i < 2; i++ {
		_, err := svc.ListFilials(context.Background(), 10, 10)
		require.NoError(t, err)
	}
	assert.False(t, mr.Exists("filials"))
	repo.AssertExpectations(t)
}

func TestSchoolService_Filial_Validation(t *testing.T) {
	svc := services.NewSchoolService(new(RepoMock), cache.Noop{}, 0, newNoopLogger())

	err := svc.CreateFilial(context.Background(), &models.Filial{City: "", Address: string(make([]byte, 300))})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "city")
	assert.Contains(t, verr.Fields, "address")
}

func TestSchoolService_CreateDrivingCategory(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		setupMocks func(r *RepoMock)
		wantField  bool
	}{
		{
			name:     "created",
			category: "B",
			setupMocks: func(r *RepoMock) {
				r.On("CreateDrivingCategory", mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{name: "too long", category: "ABCDEF", setupMocks: func(*RepoMock) {}, wantField: true},
		{
			name:     "duplicate",
			category: "B",
			setupMocks: func(r *RepoMock) {
				r.On("CreateDrivingCategory", mock.Anything, mock.Anything).Return(models.ErrDuplicate).Once()
			},
			wantField: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := services.NewSchoolService(repo, cache.Noop{}, 0, newNoopLogger())

			err := svc.CreateDrivingCategory(context.Background(), &models.DrivingCategory{Name: tt.category})
			if tt.wantField {
				var verr *models.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Contains(t, verr.Fields, "name")
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestSchoolService_CreateGroup(t *testing.T) {
	teacherID := int64(5)
	missingTeacher := int64(6)

	tests := []struct {
		name       string
		group      models.Group
		setupMocks func(r *RepoMock)
		wantFields []string
	}{
		{
			name:  "created with teacher",
			group: models.Group{Name: "B-1", DrivingCategoryID: 1, FilialID: 2, TeacherID: &teacherID, Type: models.TeachingPractice},
			setupMocks: func(r *RepoMock) {
				r.On("GetDrivingCategory", mock.Anything, int64(1)).Return(&models.DrivingCategory{ID: 1, Name: "B"}, nil).Once()
				r.On("GetFilial", mock.Anything, int64(2)).Return(&models.Filial{ID: 2}, nil).Once()
				r.On("GetTeacherProfile", mock.Anything, int64(5)).Return(&models.TeacherProfile{ID: 5}, nil).Once()
				r.On("CreateGroup", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					args.Get(1).(*models.Group).ID = 9
				}).Return(nil).Once()
				r.On("GetGroupView", mock.Anything, int64(9)).Return(&models.GroupView{ID: 9, Name: "B-1"}, nil).Once()
			},
		},
		{
			name:  "missing references",
			group: models.Group{Name: "B-1", DrivingCategoryID: 1, FilialID: 2, TeacherID: &missingTeacher, Type: "online"},
			setupMocks: func(r *RepoMock) {
				r.On("GetDrivingCategory", mock.Anything, int64(1)).Return(nil, models.ErrNotFound).Once()
				r.On("GetFilial", mock.Anything, int64(2)).Return(&models.Filial{ID: 2}, nil).Once()
				r.On("GetTeacherProfile", mock.Anything, int64(6)).Return(nil, models.ErrNotFound).Once()
			},
			wantFields: []string{"driving_category", "teacher", "type"},
		},
		{
			name:       "required fields",
			group:      models.Group{Type: models.TeachingTheory},
			setupMocks: func(*RepoMock) {},
			wantFields: []string{"name", "driving_category", "filial"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := services.NewSchoolService(repo, cache.Noop{}, 0, newNoopLogger())

			g := tt.group
			view, err := svc.CreateGroup(context.Background(), &g)
			if len(tt.wantFields) > 0 {
				var verr *models.ValidationError
				require.True(t, errors.As(err, &verr))
				for _, f := range tt.wantFields {
					assert.Contains(t, verr.Fields, f)
				}
				repo.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(9), view.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestSchoolService_DeleteGroup_NotFound(t *testing.T) {
	repo := new(RepoMock)
	repo.On("DeleteGroup", mock.Anything, int64(4)).Return(models.ErrNotFound).Once()
	svc := services.NewSchoolService(repo, cache.Noop{}, 0, newNoopLogger())

	assert.ErrorIs(t, svc.DeleteGroup(context.Background(), 4), models.ErrNotFound)
}
