package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/driving-school/internal/models"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, error) {
	args := m.Called(ctx, email, password, firstName, lastName)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := Request{Email: "user1@example.com", Password: "password123", FirstName: "Ivan", LastName: "Petrov"}

	tests := []struct {
		name           string
		requestBody    any
		callService    bool
		mockUser       *models.User
		mockErr        error
		wantStatusCode int
		wantStatus     string
		wantFields     []string
	}{
		{
			name:        "valid registration",
			requestBody: valid,
			callService: true,
			mockUser: &models.User{
				ID: 1, Email: "user1@example.com", FirstName: "Ivan", LastName: "Petrov", Role: models.RoleStudent,
			},
			wantStatusCode: http.StatusCreated,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name:           "missing fields",
			requestBody:    Request{Email: "bad"},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantFields:     []string{"email", "password", "first_name", "last_name"},
		},
		{
			name:           "duplicate email",
			requestBody:    valid,
			callService:    true,
			mockErr:        models.NewValidationError("email", "user with this email already exists."),
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantFields:     []string{"email"},
		},
		{
			name:           "weak password",
			requestBody:    valid,
			callService:    true,
			mockErr:        models.NewValidationError("password", "This password is too short. It must contain at least 8 characters."),
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantFields:     []string{"password"},
		},
		{
			name:           "storage failure",
			requestBody:    valid,
			callService:    true,
			mockErr:        errors.New("connection refused"),
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if tt.callService {
				authMock.On("Register", mock.Anything, valid.Email, valid.Password, valid.FirstName, valid.LastName).
					Return(tt.mockUser, tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(v)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), authMock).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantStatusCode == http.StatusCreated {
				data := got["data"].(map[string]any)
				assert.Equal(t, "user1@example.com", data["email"])
				assert.NotContains(t, data, "password")
				assert.NotContains(t, data, "role")
			}
			for _, f := range tt.wantFields {
				fields := got["fields"].(map[string]any)
				assert.Contains(t, fields, f)
			}
			authMock.AssertExpectations(t)
		})
	}
}
