package school

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

type GroupServiceMock struct {
	mock.Mock
}

func (m *GroupServiceMock) CreateGroup(ctx context.Context, g *models.Group) (*models.GroupView, error) {
	args := m.Called(ctx, g)
	v, _ := args.Get(0).(*models.GroupView)
	return v, args.Error(1)
}

func (m *GroupServiceMock) GetGroup(ctx context.Context, id int64) (*models.GroupView, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.GroupView)
	return v, args.Error(1)
}

func (m *GroupServiceMock) GetGroupRaw(ctx context.Context, id int64) (*models.Group, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(*models.Group)
	return g, args.Error(1)
}

func (m *GroupServiceMock) ListGroups(ctx context.Context, limit, offset int) ([]*models.GroupView, error) {
	args := m.Called(ctx, limit, offset)
	v, _ := args.Get(0).([]*models.GroupView)
	return v, args.Error(1)
}

func (m *GroupServiceMock) UpdateGroup(ctx context.Context, g *models.Group) (*models.GroupView, error) {
	args := m.Called(ctx, g)
	v, _ := args.Get(0).(*models.GroupView)
	return v, args.Error(1)
}

func (m *GroupServiceMock) DeleteGroup(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type FilialServiceMock struct {
	mock.Mock
}

func (m *FilialServiceMock) CreateFilial(ctx context.Context, f *models.Filial) error {
	args := m.Called(ctx, f)
	f.ID = 11
	return args.Error(0)
}

func (m *FilialServiceMock) GetFilial(ctx context.Context, id int64) (*models.Filial, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*models.Filial)
	return f, args.Error(1)
}

func (m *FilialServiceMock) ListFilials(ctx context.Context, limit, offset int) ([]*models.Filial, error) {
	args := m.Called(ctx, limit, offset)
	f, _ := args.Get(0).([]*models.Filial)
	return f, args.Error(1)
}

func (m *FilialServiceMock) UpdateFilial(ctx context.Context, f *models.Filial) error {
	return m.Called(ctx, f).Error(0)
}

func (m *FilialServiceMock) DeleteFilial(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGroups_PatchKeepsReferences(t *testing.T) {
	teacher := int64(4)
	svc := new(GroupServiceMock)
	svc.On("GetGroupRaw", mock.Anything, int64(2)).Return(&models.Group{
		ID: 2, Name: "B-1", DrivingCategoryID: 1, TeacherID: &teacher, FilialID: 3, Type: models.TeachingTheory,
	}, nil).Once()
	svc.On("UpdateGroup", mock.Anything, mock.MatchedBy(func(g *models.Group) bool {
		return g.ID == 2 && g.Name == "B-2" && g.FilialID == 3 && g.TeacherID != nil && *g.TeacherID == 4
	})).Return(&models.GroupView{ID: 2, Name: "B-2", Type: models.TeachingTheory}, nil).Once()

	h := NewGroups(newNoopLogger(), svc)
	r := chi.NewRouter()
	r.Patch("/groups/{id}", h.Update)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/groups/2", strings.NewReader(`{"name":"B-2"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestGroups_CreateInvalidReference(t *testing.T) {
	svc := new(GroupServiceMock)
	svc.On("CreateGroup", mock.Anything, mock.Anything).
		Return(nil, models.NewValidationError("filial", `Invalid pk "9" - object does not exist.`)).Once()

	rec := httptest.NewRecorder()
	NewGroups(newNoopLogger(), svc).Create(rec, httptest.NewRequest(http.MethodPost, "/groups",
		strings.NewReader(`{"name":"B-1","driving_category":1,"filial":9,"type":"practice"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var got struct {
		Fields map[string][]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{`Invalid pk "9" - object does not exist.`}, got.Fields["filial"])
}

func TestFilials_CreateReturnsStoredEntity(t *testing.T) {
	svc := new(FilialServiceMock)
	svc.On("CreateFilial", mock.Anything, mock.Anything).Return(nil).Once()

	rec := httptest.NewRecorder()
	NewFilials(newNoopLogger(), svc).Create(rec, httptest.NewRequest(http.MethodPost, "/filials",
		strings.NewReader(`{"city":"Kazan","address":"Lenina 1"}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var got struct {
		Data models.Filial `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(11), got.Data.ID)
	assert.Equal(t, "Kazan", got.Data.City)
}

func TestFilials_DeleteMissing(t *testing.T) {
	svc := new(FilialServiceMock)
	svc.On("DeleteFilial", mock.Anything, int64(5)).Return(models.ErrNotFound).Once()

	r := chi.NewRouter()
	r.Delete("/filials/{id}", NewFilials(newNoopLogger(), svc).Delete)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/filials/5", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
