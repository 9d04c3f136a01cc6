package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stellar/internal/auth"
	"stellar/internal/cache"
	"stellar/internal/config"
	"stellar/internal/errors"
	"stellar/internal/logging"
	"stellar/internal/model"
	"stellar/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter) ([]model.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

// MockRefreshTokenRepository is a mock implementation of RefreshTokenRepository.
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID, replacedBy *uuid.UUID) error {
	args := m.Called(ctx, id, replacedBy)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) RecordSecurityEvent(ctx context.Context, entry *model.SecurityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) RecordLogin(ctx context.Context, entry *model.LoginHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) TrimSecurityLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditRepository) TrimLoginHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockTokenStore is a mock implementation of BlacklistStore.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func newTestCache(t *testing.T) *cache.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return cache.NewFromClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
		RememberMeTTL:    30 * 24 * time.Hour,
		LockoutThreshold: 3,
		LockoutWindow:    15 * time.Minute,
		LockoutDuration:  30 * time.Minute,
	}
}

type authFixture struct {
	userRepo    *MockUserRepository
	refreshRepo *MockRefreshTokenRepository
	auditRepo   *MockAuditRepository
	tokenStore  *MockTokenStore
	service     AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := testConfig()
	f := &authFixture{
		userRepo:    new(MockUserRepository),
		refreshRepo: new(MockRefreshTokenRepository),
		auditRepo:   new(MockAuditRepository),
		tokenStore:  new(MockTokenStore),
	}
	f.service = NewAuthService(
		f.userRepo,
		f.refreshRepo,
		f.auditRepo,
		auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL),
		f.tokenStore,
		newTestCache(t),
		logging.NewSecurityLogger(f.auditRepo),
		cfg,
	)
	return f
}

func activeUser(password string) *model.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return &model.User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: string(hashed),
		Role:         model.RoleUser,
		Active:       true,
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		email         string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful registration",
			username: "alice",
			email:    "alice@example.com",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByIdentifier", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:     "email already taken",
			username: "alice",
			email:    "taken@example.com",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{Email: "taken@example.com"}, nil)
			},
			expectedError: errors.ErrUserAlreadyExists,
		},
		{
			name:     "username already taken",
			username: "taken",
			email:    "alice@example.com",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("FindByIdentifier", mock.Anything, "taken").Return(&model.User{Username: "taken"}, nil)
			},
			expectedError: errors.ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			tt.setupMock(f.userRepo)

			user, verifyToken, err := f.service.Register(context.Background(),
				tt.username, tt.email, "password123", "", "", ClientMeta{})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.NotEmpty(t, verifyToken)
				assert.Equal(t, tt.email, user.Email)
				assert.Equal(t, model.RoleUser, user.Role)
				assert.NotEqual(t, "password123", user.PasswordHash)
			}
			f.userRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Run("successful login returns token pair", func(t *testing.T) {
		f := newAuthFixture(t)
		user := activeUser("password123")
		f.userRepo.On("FindByIdentifier", mock.Anything, "alice").Return(user, nil)
		f.userRepo.On("Update", mock.Anything, user).Return(nil)
		f.refreshRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.RefreshToken")).Return(nil)
		f.auditRepo.On("RecordLogin", mock.Anything, mock.AnythingOfType("*model.LoginHistory")).Return(nil)
		f.auditRepo.On("RecordSecurityEvent", mock.Anything, mock.AnythingOfType("*model.SecurityLog")).Return(nil)

		result, err := f.service.Login(context.Background(), "alice", "password123", false, ClientMeta{IP: "10.0.0.1"})

		assert.NoError(t, err)
		assert.False(t, result.TwoFactorRequired)
		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.NotEmpty(t, result.Tokens.RefreshToken)
		assert.NotNil(t, user.LastLoginAt)
		f.refreshRepo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		user := activeUser("password123")
		f.userRepo.On("FindByIdentifier", mock.Anything, "alice").Return(user, nil)
		f.auditRepo.On("RecordLogin", mock.Anything, mock.AnythingOfType("*model.LoginHistory")).Return(nil)
		f.auditRepo.On("RecordSecurityEvent", mock.Anything, mock.AnythingOfType("*model.SecurityLog")).Return(nil)

		result, err := f.service.Login(context.Background(), "alice", "wrong", false, ClientMeta{})

		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
		assert.Nil(t, result)
	})

	t.Run("unknown identifier reads as invalid credentials", func(t *testing.T) {
		f := newAuthFixture(t)
		f.userRepo.On("FindByIdentifier", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

		_, err := f.service.Login(context.Background(), "ghost", "password123", false, ClientMeta{})

		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		f := newAuthFixture(t)
		user := activeUser("password123")
		user.Active = false
		f.userRepo.On("FindByIdentifier", mock.Anything, "alice").Return(user, nil)

		_, err := f.service.Login(context.Background(), "alice", "password123", false, ClientMeta{})

		assert.ErrorIs(t, err, errors.ErrAccountInactive)
	})

	t.Run("2fa enabled returns pending token", func(t *testing.T) {
		f := newAuthFixture(t)
		user := activeUser("password123")
		user.TwoFactorEnabled = true
		user.TwoFactorSecret = "JBSWY3DPEHPK3PXP"
		f.userRepo.On("FindByIdentifier", mock.Anything, "alice").Return(user, nil)

		result, err := f.service.Login(context.Background(), "alice", "password123", false, ClientMeta{})

		assert.NoError(t, err)
		assert.True(t, result.TwoFactorRequired)
		assert.NotEmpty(t, result.PendingToken)
		assert.Nil(t, result.Tokens)
	})
}

func TestAuthService_Lockout(t *testing.T) {
	f := newAuthFixture(t)
	user := activeUser("password123")
	f.userRepo.On("FindByIdentifier", mock.Anything, "alice").Return(user, nil)
	f.auditRepo.On("RecordLogin", mock.Anything, mock.AnythingOfType("*model.LoginHistory")).Return(nil)
	f.auditRepo.On("RecordSecurityEvent", mock.Anything, mock.AnythingOfType("*model.SecurityLog")).Return(nil)

	// Threshold is 3 in the test config.
	for i := 0; i < 3; i++ {
		_, err := f.service.Login(context.Background(), "alice", "wrong", false, ClientMeta{})
		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	}

	// Even the correct password is rejected while the lock holds.
	_, err := f.service.Login(context.Background(), "alice", "password123", false, ClientMeta{})
	assert.ErrorIs(t, err, errors.ErrAccountLocked)
}

func TestAuthService_Refresh(t *testing.T) {
	t.Run("rotation revokes the presented token", func(t *testing.T) {
		f := newAuthFixture(t)
		user := activeUser("password123")
		row := &model.RefreshToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		f.refreshRepo.On("FindByHash", mock.Anything, auth.HashSecret("old-secret")).Return(row, nil)
		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.refreshRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.RefreshToken")).Return(nil)
		f.refreshRepo.On("Revoke", mock.Anything, row.ID, mock.AnythingOfType("*uuid.UUID")).Return(nil)

		pair, err := f.service.Refresh(context.Background(), "old-secret", ClientMeta{})

		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEqual(t, "old-secret", pair.RefreshToken)
		f.refreshRepo.AssertExpectations(t)
	})

	t.Run("replaying a rotated token revokes every session", func(t *testing.T) {
		f := newAuthFixture(t)
		userID := uuid.New()
		row := &model.RefreshToken{
			ID:        uuid.New(),
			UserID:    userID,
			Revoked:   true,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		f.refreshRepo.On("FindByHash", mock.Anything, auth.HashSecret("stolen")).Return(row, nil)
		f.refreshRepo.On("RevokeAllForUser", mock.Anything, userID).Return(nil)
		f.auditRepo.On("RecordSecurityEvent", mock.Anything, mock.MatchedBy(func(e *model.SecurityLog) bool {
			return e.Event == model.EventTokenReuse
		})).Return(nil)

		_, err := f.service.Refresh(context.Background(), "stolen", ClientMeta{})

		assert.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
		f.refreshRepo.AssertExpectations(t)
		f.auditRepo.AssertExpectations(t)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newAuthFixture(t)
		row := &model.RefreshToken{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			ExpiresAt: time.Now().Add(-time.Minute),
		}
		f.refreshRepo.On("FindByHash", mock.Anything, auth.HashSecret("expired")).Return(row, nil)

		_, err := f.service.Refresh(context.Background(), "expired", ClientMeta{})

		assert.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.refreshRepo.On("FindByHash", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

		_, err := f.service.Refresh(context.Background(), "nope", ClientMeta{})

		assert.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	row := &model.RefreshToken{ID: uuid.New(), UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}
	f.refreshRepo.On("FindByHash", mock.Anything, auth.HashSecret("current")).Return(row, nil)
	f.refreshRepo.On("Revoke", mock.Anything, row.ID, (*uuid.UUID)(nil)).Return(nil)
	f.tokenStore.On("BlacklistAccessToken", mock.Anything, "jti-1", 15*time.Minute).Return(nil)

	err := f.service.Logout(context.Background(), "current", "jti-1", 15*time.Minute)

	assert.NoError(t, err)
	f.refreshRepo.AssertExpectations(t)
	f.tokenStore.AssertExpectations(t)
}

func TestAuthService_PasswordReset(t *testing.T) {
	t.Run("forgot then reset revokes sessions", func(t *testing.T) {
		f := newAuthFixture(t)
		user := activeUser("old-password")
		f.userRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.userRepo.On("Update", mock.Anything, user).Return(nil)
		f.refreshRepo.On("RevokeAllForUser", mock.Anything, user.ID).Return(nil)
		f.auditRepo.On("RecordSecurityEvent", mock.Anything, mock.AnythingOfType("*model.SecurityLog")).Return(nil)

		token, err := f.service.ForgotPassword(context.Background(), user.Email, ClientMeta{})
		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		oldHash := user.PasswordHash
		err = f.service.ResetPassword(context.Background(), token, "new-password", ClientMeta{})
		assert.NoError(t, err)
		assert.NotEqual(t, oldHash, user.PasswordHash)
		f.refreshRepo.AssertExpectations(t)
	})

	t.Run("unknown email returns empty token without error", func(t *testing.T) {
		f := newAuthFixture(t)
		f.userRepo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

		token, err := f.service.ForgotPassword(context.Background(), "ghost@example.com", ClientMeta{})

		assert.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("bad reset token", func(t *testing.T) {
		f := newAuthFixture(t)

		err := f.service.ResetPassword(context.Background(), "not-a-token", "new-password", ClientMeta{})

		assert.ErrorIs(t, err, errors.ErrInvalidResetToken)
	})

	t.Run("reset token is single use", func(t *testing.T) {
		f := newAuthFixture(t)
		user := activeUser("old-password")
		f.userRepo.On("FindByEmail", mock.Anything, user.Email).Return(user, nil)
		f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.userRepo.On("Update", mock.Anything, user).Return(nil)
		f.refreshRepo.On("RevokeAllForUser", mock.Anything, user.ID).Return(nil)
		f.auditRepo.On("RecordSecurityEvent", mock.Anything, mock.AnythingOfType("*model.SecurityLog")).Return(nil)

		token, err := f.service.ForgotPassword(context.Background(), user.Email, ClientMeta{})
		assert.NoError(t, err)
		assert.NoError(t, f.service.ResetPassword(context.Background(), token, "new-password", ClientMeta{}))

		err = f.service.ResetPassword(context.Background(), token, "another-password", ClientMeta{})
		assert.ErrorIs(t, err, errors.ErrInvalidResetToken)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.userRepo.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	f.userRepo.On("FindByIdentifier", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
	f.userRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	user, verifyToken, err := f.service.Register(context.Background(),
		"alice", "alice@example.com", "password123", "", "", ClientMeta{})
	assert.NoError(t, err)

	f.userRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.userRepo.On("Update", mock.Anything, user).Return(nil)

	assert.NoError(t, f.service.VerifyEmail(context.Background(), verifyToken))
	assert.True(t, user.EmailVerified)

	// Consumed tokens do not verify twice.
	err = f.service.VerifyEmail(context.Background(), verifyToken)
	assert.ErrorIs(t, err, errors.ErrInvalidResetToken)
}
