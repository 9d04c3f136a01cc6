package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"stellar/internal/auth"
	"stellar/internal/errors"
	"stellar/internal/logging"
	"stellar/internal/model"
)

// MockApiKeyRepository is a mock implementation of ApiKeyRepository.
type MockApiKeyRepository struct {
	mock.Mock
}

func (m *MockApiKeyRepository) Create(ctx context.Context, key *model.ApiKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockApiKeyRepository) FindByHash(ctx context.Context, hash string) (*model.ApiKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApiKey), args.Error(1)
}

func (m *MockApiKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApiKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApiKey), args.Error(1)
}

func (m *MockApiKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ApiKey, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApiKey), args.Error(1)
}

func (m *MockApiKeyRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockApiKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockApiKeyRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func newApiKeyService() (*MockApiKeyRepository, *MockUserRepository, ApiKeyService) {
	keys := new(MockApiKeyRepository)
	users := new(MockUserRepository)
	return keys, users, NewApiKeyService(keys, users, logging.NewSecurityLogger(nil))
}

func TestApiKeyService_Create(t *testing.T) {
	keys, _, svc := newApiKeyService()
	keys.On("Create", mock.Anything, mock.AnythingOfType("*model.ApiKey")).Return(nil)

	userID := uuid.New()
	created, err := svc.Create(context.Background(), userID, "ci-pipeline", 60, nil, ClientMeta{})

	assert.NoError(t, err)
	assert.NotEmpty(t, created.Secret)
	assert.Equal(t, userID, created.Key.UserID)
	assert.Equal(t, auth.HashSecret(created.Secret), created.Key.KeyHash)
	assert.Equal(t, created.Secret[:auth.APIKeyPrefixLen], created.Key.Prefix)
	assert.Equal(t, 60, created.Key.RateLimit)
}

func TestApiKeyService_Revoke(t *testing.T) {
	t.Run("owner revokes", func(t *testing.T) {
		keys, _, svc := newApiKeyService()
		userID := uuid.New()
		key := &model.ApiKey{ID: uuid.New(), UserID: userID}
		keys.On("FindByID", mock.Anything, key.ID).Return(key, nil)
		keys.On("Revoke", mock.Anything, key.ID).Return(nil)

		assert.NoError(t, svc.Revoke(context.Background(), userID, key.ID, ClientMeta{}))
		keys.AssertExpectations(t)
	})

	t.Run("cannot revoke another user's key", func(t *testing.T) {
		keys, _, svc := newApiKeyService()
		key := &model.ApiKey{ID: uuid.New(), UserID: uuid.New()}
		keys.On("FindByID", mock.Anything, key.ID).Return(key, nil)

		err := svc.Revoke(context.Background(), uuid.New(), key.ID, ClientMeta{})

		assert.ErrorIs(t, err, errors.ErrForbidden)
		keys.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})

	t.Run("missing key", func(t *testing.T) {
		keys, _, svc := newApiKeyService()
		id := uuid.New()
		keys.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

		err := svc.Revoke(context.Background(), uuid.New(), id, ClientMeta{})

		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestApiKeyService_Authenticate(t *testing.T) {
	rawKey := "raw-api-key-secret"
	hash := auth.HashSecret(rawKey)

	t.Run("valid key resolves the user", func(t *testing.T) {
		keys, users, svc := newApiKeyService()
		user := &model.User{ID: uuid.New(), Active: true}
		key := &model.ApiKey{ID: uuid.New(), UserID: user.ID, KeyHash: hash}
		keys.On("FindByHash", mock.Anything, hash).Return(key, nil)
		users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		keys.On("TouchLastUsed", mock.Anything, key.ID, mock.AnythingOfType("time.Time")).Return(nil)

		gotKey, gotUser, err := svc.Authenticate(context.Background(), rawKey)

		assert.NoError(t, err)
		assert.Equal(t, key.ID, gotKey.ID)
		assert.Equal(t, user.ID, gotUser.ID)
		keys.AssertExpectations(t)
	})

	t.Run("unknown key", func(t *testing.T) {
		keys, _, svc := newApiKeyService()
		keys.On("FindByHash", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

		_, _, err := svc.Authenticate(context.Background(), "nope")

		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("revoked key", func(t *testing.T) {
		keys, _, svc := newApiKeyService()
		key := &model.ApiKey{ID: uuid.New(), UserID: uuid.New(), KeyHash: hash, Revoked: true}
		keys.On("FindByHash", mock.Anything, hash).Return(key, nil)

		_, _, err := svc.Authenticate(context.Background(), rawKey)

		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("expired key", func(t *testing.T) {
		keys, _, svc := newApiKeyService()
		expired := time.Now().Add(-time.Hour)
		key := &model.ApiKey{ID: uuid.New(), UserID: uuid.New(), KeyHash: hash, ExpiresAt: &expired}
		keys.On("FindByHash", mock.Anything, hash).Return(key, nil)

		_, _, err := svc.Authenticate(context.Background(), rawKey)

		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("inactive owner", func(t *testing.T) {
		keys, users, svc := newApiKeyService()
		user := &model.User{ID: uuid.New(), Active: false}
		key := &model.ApiKey{ID: uuid.New(), UserID: user.ID, KeyHash: hash}
		keys.On("FindByHash", mock.Anything, hash).Return(key, nil)
		users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		_, _, err := svc.Authenticate(context.Background(), rawKey)

		assert.ErrorIs(t, err, errors.ErrAccountInactive)
	})
}
