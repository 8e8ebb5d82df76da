package crud

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Note string `json:"note"`
}

type fakeService struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]item
}

func newFakeService() *fakeService {
	return &fakeService{items: make(map[int64]item)}
}

func (s *fakeService) Create(_ context.Context, it *item) (*item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.Name == "" {
		return nil, models.NewValidationError("name", "This field may not be blank.")
	}
	s.nextID++
	it.ID = s.nextID
	s.items[it.ID] = *it
	return it, nil
}

func (s *fakeService) Get(_ context.Context, id int64) (*item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &it, nil
}

func (s *fakeService) Load(ctx context.Context, id int64) (*item, error) {
	return s.Get(ctx, id)
}

func (s *fakeService) List(_ context.Context, _, _ int) ([]*item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*item
	for _, it := range s.items {
		it := it
		out = append(out, &it)
	}
	return out, nil
}

func (s *fakeService) Update(_ context.Context, it *item) (*item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; !ok {
		return nil, models.ErrNotFound
	}
	s.items[it.ID] = *it
	return it, nil
}

func (s *fakeService) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func newRouter(svc Service[item, item]) http.Handler {
	h := New[item, item](slog.New(slog.NewTextHandler(io.Discard, nil)), "item", svc, func(it *item, id int64) { it.ID = id })
	r := chi.NewRouter()
	r.Get("/items", h.List)
	r.Post("/items", h.Create)
	r.Get("/items/{id}", h.Get)
	r.Put("/items/{id}", h.Update)
	r.Patch("/items/{id}", h.Update)
	r.Delete("/items/{id}", h.Delete)
	return r
}

func do(t *testing.T, h http.Handler, method, url, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, url, rd))
	var got map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	}
	return rec, got
}

func TestHandler_Lifecycle(t *testing.T) {
	h := newRouter(newFakeService())

	rec, got := do(t, h, http.MethodPost, "/items", `{"id":42,"name":"a","note":"first"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	data := got["data"].(map[string]any)
	assert.Equal(t, float64(1), data["id"], "client-supplied id is ignored")

	rec, got = do(t, h, http.MethodPatch, "/items/1", `{"name":"b"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data = got["data"].(map[string]any)
	assert.Equal(t, "b", data["name"])
	assert.Equal(t, "first", data["note"], "patch keeps absent fields")

	rec, got = do(t, h, http.MethodPut, "/items/1", `{"name":"c"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data = got["data"].(map[string]any)
	assert.Equal(t, "", data["note"], "put replaces the entity")

	rec, got = do(t, h, http.MethodGet, "/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, got["data"], 1)

	rec, _ = do(t, h, http.MethodDelete, "/items/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, got = do(t, h, http.MethodGet, "/items/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", got["code"])
}

func TestHandler_Errors(t *testing.T) {
	h := newRouter(newFakeService())

	tests := []struct {
		name       string
		method     string
		url        string
		body       string
		wantStatus int
	}{
		{name: "validation", method: http.MethodPost, url: "/items", body: `{"note":"x"}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", method: http.MethodPost, url: "/items", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "bad id", method: http.MethodGet, url: "/items/0", wantStatus: http.StatusBadRequest},
		{name: "patch missing", method: http.MethodPatch, url: "/items/7", body: `{}`, wantStatus: http.StatusNotFound},
		{name: "delete missing", method: http.MethodDelete, url: "/items/7", wantStatus: http.StatusNotFound},
		{name: "bad page", method: http.MethodGet, url: "/items?limit=-1", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, h, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_EmptyListIsArray(t *testing.T) {
	rec, got := do(t, newRouter(newFakeService()), http.MethodGet, "/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, got["data"])
}
