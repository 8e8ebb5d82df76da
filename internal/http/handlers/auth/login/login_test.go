package login

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

func (m *AuthServiceMock) Authenticate(ctx context.Context, email, password string) (*models.TokenPair, error) {
	args := m.Called(ctx, email, password)
	resp, _ := args.Get(0).(*models.TokenPair)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockResp       *models.TokenPair
		mockErr        error
		wantStatusCode int
		wantStatus     string
		wantCode       string
	}{
		{
			name:           "valid login",
			requestBody:    Request{Email: "a@x.com", Password: "testpass123"},
			mockResp:       &models.TokenPair{Access: "acc", Refresh: "ref"},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing password",
			requestBody:    Request{Email: "a@x.com"},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantCode:       "invalid",
		},
		{
			name:           "invalid credentials",
			requestBody:    Request{Email: "a@x.com", Password: "wrong-pass"},
			mockErr:        models.ErrInvalidCredentials,
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
			wantCode:       "invalid_credentials",
		},
		{
			name:           "storage failure",
			requestBody:    Request{Email: "a@x.com", Password: "testpass123"},
			mockErr:        errors.New("db down"),
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			handler := New(newNoopLogger(), svc)
			if tt.mockResp != nil || tt.mockErr != nil {
				req := tt.requestBody.(Request)
				svc.On("Authenticate", mock.Anything, req.Email, req.Password).Return(tt.mockResp, tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, got["code"])
			}
			if tt.mockResp != nil {
				data, ok := got["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "acc", data["access"])
				assert.Equal(t, "ref", data["refresh"])
			}
			svc.AssertExpectations(t)
		})
	}
}
