package logout

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/driving-school/internal/access"
	"github.com/magabrotheeeer/driving-school/internal/http/middlewarectx"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Logout(ctx context.Context, userID int64, refreshToken string) error {
	return m.Called(ctx, userID, refreshToken).Error(0)
}

func TestLogoutHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	subject := &access.Subject{UserID: 4, Role: models.RoleStudent}

	tests := []struct {
		name       string
		subject    *access.Subject
		body       string
		mockErr    error
		callSvc    bool
		wantStatus int
	}{
		{name: "revoked", subject: subject, body: `{"refresh":"r"}`, callSvc: true, wantStatus: http.StatusResetContent},
		{name: "invalid token", subject: subject, body: `{"refresh":"r"}`, callSvc: true, mockErr: models.ErrTokenMalformed, wantStatus: http.StatusBadRequest},
		{name: "foreign token", subject: subject, body: `{"refresh":"r"}`, callSvc: true, mockErr: models.ErrPermissionDenied, wantStatus: http.StatusForbidden},
		{name: "missing refresh", subject: subject, body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "anonymous", body: `{"refresh":"r"}`, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callSvc {
				svc.On("Logout", mock.Anything, int64(4), "r").Return(tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(tt.body))
			if tt.subject != nil {
				req = req.WithContext(middlewarectx.WithSubject(req.Context(), tt.subject))
			}
			rec := httptest.NewRecorder()
			New(log, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
