package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/driving-school/internal/lib/jwt"
	"github.com/magabrotheeeer/driving-school/internal/lib/password"
	"github.com/magabrotheeeer/driving-school/internal/models"
	"github.com/magabrotheeeer/driving-school/internal/revocation"
	services "github.com/magabrotheeeer/driving-school/internal/services/auth"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdatePassword(ctx context.Context, id int64, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

// Мок для events.Publisher
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	args := m.Called(ctx, routingKey, message)
	return args.Error(0)
}

type recorderStub struct {
	mu       sync.Mutex
	issued   []string
	failures []string
}

func (r *recorderStub) TokenIssued(grant string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued = append(r.issued, grant)
}

func (r *recorderStub) AuthFailed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, reason)
}

type fixture struct {
	users   *UserRepoMock
	maker   *jwt.MakerImpl
	store   *revocation.MemoryStore
	metrics *recorderStub
	svc     *services.AuthService
}

func newFixture(t *testing.T, opts ...services.Option) *fixture {
	t.Helper()
	f := &fixture{
		users:   new(UserRepoMock),
		maker:   jwt.NewJWTMaker("test-secret", 5*time.Minute, 24*time.Hour, jwt.WithIssuer("driving-school")),
		store:   revocation.NewMemoryStore(),
		metrics: &recorderStub{},
	}
	opts = append([]services.Option{services.WithMetrics(f.metrics)}, opts...)
	f.svc = services.NewAuthService(f.users, f.maker, f.store, newNoopLogger(), opts...)
	return f
}

func activeUser(t *testing.T, pass string) *models.User {
	t.Helper()
	hash, err := password.GetHash(pass)
	require.NoError(t, err)
	return &models.User{
		ID: 7, Email: "student@example.com", PasswordHash: hash,
		FirstName: "Ivan", LastName: "Petrov", Role: models.RoleStudent, IsActive: true,
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock, p *PublisherMock)
		wantErr    bool
		wantFields []string
	}{
		{
			name:     "successful registration",
			email:    "  New@Example.com ",
			password: "s3cret-pass",
			setupMocks: func(r *UserRepoMock, p *PublisherMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Email == "new@example.com" &&
						u.Role == models.RoleStudent &&
						u.IsActive && !u.IsStaff && !u.IsSuperuser &&
						u.PasswordHash != "" && u.PasswordHash != "s3cret-pass"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*models.User).ID = 42
				}).Return(nil).Once()
				p.On("Publish", mock.Anything, "user.registered", mock.Anything).Return(nil).Once()
			},
		},
		{
			name:       "weak password",
			email:      "a@example.com",
			password:   "12345",
			setupMocks: func(*UserRepoMock, *PublisherMock) {},
			wantErr:    true,
			wantFields: []string{"password"},
		},
		{
			name:     "email already taken",
			email:    "taken@example.com",
			password: "s3cret-pass",
			setupMocks: func(r *UserRepoMock, _ *PublisherMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).Return(models.ErrDuplicate).Once()
			},
			wantErr:    true,
			wantFields: []string{"email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := new(PublisherMock)
			f := newFixture(t, services.WithPublisher(pub))
			tt.setupMocks(f.users, pub)

			u, err := f.svc.Register(context.Background(), tt.email, tt.password, "New", "User")
			if tt.wantErr {
				require.Error(t, err)
				var verr *models.ValidationError
				require.True(t, errors.As(err, &verr))
				for _, field := range tt.wantFields {
					assert.Contains(t, verr.Fields, field)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(42), u.ID)
				assert.Equal(t, "new@example.com", u.Public().Email)
			}
			f.users.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		setupMocks func(t *testing.T, r *UserRepoMock)
		wantErr    error
	}{
		{
			name:     "valid credentials",
			password: "correct-horse",
			setupMocks: func(t *testing.T, r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "student@example.com").Return(activeUser(t, "correct-horse"), nil).Once()
			},
		},
		{
			name:     "unknown email",
			password: "correct-horse",
			setupMocks: func(_ *testing.T, r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "student@example.com").Return(nil, models.ErrNotFound).Once()
			},
			wantErr: models.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			password: "wrong-horse",
			setupMocks: func(t *testing.T, r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "student@example.com").Return(activeUser(t, "correct-horse"), nil).Once()
			},
			wantErr: models.ErrInvalidCredentials,
		},
		{
			name:     "inactive user",
			password: "correct-horse",
			setupMocks: func(t *testing.T, r *UserRepoMock) {
				u := activeUser(t, "correct-horse")
				u.IsActive = false
				r.On("GetUserByEmail", mock.Anything, "student@example.com").Return(u, nil).Once()
			},
			wantErr: models.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMocks(t, f.users)

			pair, err := f.svc.Authenticate(context.Background(), "Student@Example.com", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pair)
				assert.NotEmpty(t, f.metrics.failures)
				return
			}
			require.NoError(t, err)

			access, err := f.maker.ParseToken(pair.Access, models.TokenAccess)
			require.NoError(t, err)
			assert.Equal(t, int64(7), access.UserID)
			assert.Equal(t, models.RoleStudent, access.Role)

			refresh, err := f.maker.ParseToken(pair.Refresh, models.TokenRefresh)
			require.NoError(t, err)
			assert.NotEqual(t, access.ID, refresh.ID)
			assert.Equal(t, []string{services.GrantPassword}, f.metrics.issued)
		})
	}
}

type comparerSpy struct {
	mu     sync.Mutex
	hashes []string
}

func (c *comparerSpy) compare(hash, pass string) error {
	c.mu.Lock()
	c.hashes = append(c.hashes, hash)
	c.mu.Unlock()
	return password.CompareHash(hash, pass)
}

func TestAuthService_Authenticate_UnknownEmailComparesHash(t *testing.T) {
	spy := &comparerSpy{}
	f := newFixture(t, services.WithPasswordComparer(spy.compare))
	f.users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, models.ErrNotFound).Once()

	_, err := f.svc.Authenticate(context.Background(), "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	require.Len(t, spy.hashes, 1)
	assert.Equal(t, password.DummyHash(), spy.hashes[0])
}

func TestAuthService_Authenticate_UnknownAndWrongPasswordBothHash(t *testing.T) {
	spy := &comparerSpy{}
	f := newFixture(t, services.WithPasswordComparer(spy.compare))
	u := activeUser(t, "correct-horse")
	f.users.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil).Once()
	f.users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, models.ErrNotFound).Once()
	ctx := context.Background()

	_, errKnown := f.svc.Authenticate(ctx, u.Email, "wrong-horse")
	_, errUnknown := f.svc.Authenticate(ctx, "nobody@example.com", "wrong-horse")

	assert.ErrorIs(t, errKnown, models.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, models.ErrInvalidCredentials)
	assert.Len(t, spy.hashes, 2)
}

func TestAuthService_Refresh_StorageFailureKeepsToken(t *testing.T) {
	f := newFixture(t)
	u := activeUser(t, "correct-horse")
	f.users.On("GetUserByID", mock.Anything, u.ID).Return(nil, errors.New("connection reset")).Once()
	f.users.On("GetUserByID", mock.Anything, u.ID).Return(u, nil)
	ctx := context.Background()

	token, _, err := f.maker.GenerateToken(jwt.Subject{UserID: u.ID, Email: u.Email, Role: u.Role}, models.TokenRefresh)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrTokenRevoked)

	pair, err := f.svc.Refresh(ctx, token)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Refresh)

	_, err = f.svc.Refresh(ctx, token)
	assert.ErrorIs(t, err, models.ErrTokenRevoked)
}

func TestAuthService_Refresh_RotatesAndRevokes(t *testing.T) {
	f := newFixture(t)
	u := activeUser(t, "correct-horse")
	f.users.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil)
	f.users.On("GetUserByID", mock.Anything, u.ID).Return(u, nil)
	ctx := context.Background()

	pair, err := f.svc.Authenticate(ctx, u.Email, "correct-horse")
	require.NoError(t, err)

	rotated, err := f.svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, rotated.Refresh)

	_, err = f.svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, models.ErrTokenRevoked)

	_, err = f.svc.Verify(ctx, pair.Refresh)
	assert.ErrorIs(t, err, models.ErrTokenRevoked)

	claims, err := f.svc.Verify(ctx, rotated.Refresh)
	require.NoError(t, err)
	assert.Equal(t, models.TokenRefresh, claims.TokenType)
}

func TestAuthService_Refresh_ConcurrentUseSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	u := activeUser(t, "correct-horse")
	f.users.On("GetUserByEmail", mock.Anything, u.Email).Return(u, nil)
	f.users.On("GetUserByID", mock.Anything, u.ID).Return(u, nil)
	ctx := context.Background()

	pair, err := f.svc.Authenticate(ctx, u.Email, "correct-horse")
	require.NoError(t, err)

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		revoked int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Refresh(ctx, pair.Refresh)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, models.ErrTokenRevoked):
				revoked++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, attempts-1, revoked)
}

func TestAuthService_Refresh_Rejects(t *testing.T) {
	t.Run("access token", func(t *testing.T) {
		f := newFixture(t)
		token, _, err := f.maker.GenerateToken(jwt.Subject{UserID: 1, Role: models.RoleStudent}, models.TokenAccess)
		require.NoError(t, err)

		_, err = f.svc.Refresh(context.Background(), token)
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newFixture(t)
		past := jwt.NewJWTMaker("test-secret", time.Minute, time.Minute,
			jwt.WithIssuer("driving-school"),
			jwt.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
		token, _, err := past.GenerateToken(jwt.Subject{UserID: 1, Role: models.RoleStudent}, models.TokenRefresh)
		require.NoError(t, err)

		_, err = f.svc.Refresh(context.Background(), token)
		assert.ErrorIs(t, err, models.ErrTokenExpired)
	})

	t.Run("deleted user", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("GetUserByID", mock.Anything, int64(3)).Return(nil, models.ErrNotFound).Once()
		token, _, err := f.maker.GenerateToken(jwt.Subject{UserID: 3, Role: models.RoleStudent}, models.TokenRefresh)
		require.NoError(t, err)

		_, err = f.svc.Refresh(context.Background(), token)
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}

func TestAuthService_Verify_AccessToken(t *testing.T) {
	f := newFixture(t)
	token, _, err := f.maker.GenerateToken(jwt.Subject{UserID: 9, Email: "a@x.com", Role: models.RoleAdmin}, models.TokenAccess)
	require.NoError(t, err)

	claims, err := f.svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = f.svc.Verify(context.Background(), token+"x")
	assert.ErrorIs(t, err, models.ErrTokenMalformed)
}

func TestAuthService_Logout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, claims, err := f.maker.GenerateToken(jwt.Subject{UserID: 5, Role: models.RoleStudent}, models.TokenRefresh)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Logout(ctx, 6, token), models.ErrPermissionDenied)

	require.NoError(t, f.svc.Logout(ctx, 5, token))
	require.NoError(t, f.svc.Logout(ctx, 5, token))

	revoked, err := f.store.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_ChangePassword(t *testing.T) {
	tests := []struct {
		name       string
		oldPass    string
		newPass    string
		setupMocks func(r *UserRepoMock)
		wantField  string
	}{
		{
			name: "changed", oldPass: "correct-horse", newPass: "battery-staple",
			setupMocks: func(r *UserRepoMock) {
				r.On("UpdatePassword", mock.Anything, int64(7), mock.MatchedBy(func(h string) bool {
					return password.CompareHash(h, "battery-staple") == nil
				})).Return(nil).Once()
			},
		},
		{name: "wrong old password", oldPass: "nope-nope", newPass: "battery-staple", setupMocks: func(*UserRepoMock) {}, wantField: "old_password"},
		{name: "weak new password", oldPass: "correct-horse", newPass: "123", setupMocks: func(*UserRepoMock) {}, wantField: "new_password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.users.On("GetUserByID", mock.Anything, int64(7)).Return(activeUser(t, "correct-horse"), nil).Once()
			tt.setupMocks(f.users)

			err := f.svc.ChangePassword(context.Background(), 7, tt.oldPass, tt.newPass)
			if tt.wantField == "" {
				require.NoError(t, err)
			} else {
				var verr *models.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Contains(t, verr.Fields, tt.wantField)
			}
			f.users.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginWithGoogle(t *testing.T) {
	identity := models.ExternalIdentity{
		Provider: "google", Subject: "1234", Email: "G.User@Gmail.com",
		EmailVerified: true, FirstName: "G", LastName: "User",
	}

	t.Run("creates student on first login", func(t *testing.T) {
		pub := new(PublisherMock)
		f := newFixture(t, services.WithPublisher(pub))
		f.users.On("GetUserByEmail", mock.Anything, "g.user@gmail.com").Return(nil, models.ErrNotFound).Once()
		f.users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "g.user@gmail.com" && u.Role == models.RoleStudent &&
				password.CompareHash(u.PasswordHash, "") != nil
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 11
		}).Return(nil).Once()
		pub.On("Publish", mock.Anything, "user.registered", mock.Anything).Return(errors.New("broker down")).Once()

		pair, err := f.svc.LoginWithGoogle(context.Background(), identity)
		require.NoError(t, err)

		claims, err := f.maker.ParseToken(pair.Access, models.TokenAccess)
		require.NoError(t, err)
		assert.Equal(t, int64(11), claims.UserID)
		assert.Equal(t, []string{services.GrantGoogle}, f.metrics.issued)
		f.users.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("existing user", func(t *testing.T) {
		f := newFixture(t)
		f.users.On("GetUserByEmail", mock.Anything, "g.user@gmail.com").Return(activeUser(t, "x-password"), nil).Once()

		_, err := f.svc.LoginWithGoogle(context.Background(), identity)
		require.NoError(t, err)
		f.users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("unverified email", func(t *testing.T) {
		f := newFixture(t)
		unverified := identity
		unverified.EmailVerified = false

		_, err := f.svc.LoginWithGoogle(context.Background(), unverified)
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}
