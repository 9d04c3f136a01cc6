package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stellar/internal/auth"
	"stellar/internal/errors"
	"stellar/internal/logging"
	"stellar/internal/model"
	"stellar/internal/repository"
)

// CreatedApiKey pairs the stored record with the raw key, which is shown to
// the caller exactly once.
type CreatedApiKey struct {
	Key    *model.ApiKey `json:"key"`
	Secret string        `json:"secret"`
}

// ApiKeyService manages API key credentials.
type ApiKeyService interface {
	Create(ctx context.Context, userID uuid.UUID, name string, rateLimit int, expiresAt *time.Time, meta ClientMeta) (*CreatedApiKey, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.ApiKey, error)
	Revoke(ctx context.Context, userID, keyID uuid.UUID, meta ClientMeta) error
	// Authenticate resolves a raw key to its owning user. Used by the
	// API-key middleware.
	Authenticate(ctx context.Context, rawKey string) (*model.ApiKey, *model.User, error)
}

type apiKeyService struct {
	keyRepo  repository.ApiKeyRepository
	userRepo repository.UserRepository
	secLog   *logging.SecurityLogger
}

// NewApiKeyService creates a new API key service.
func NewApiKeyService(keyRepo repository.ApiKeyRepository, userRepo repository.UserRepository, secLog *logging.SecurityLogger) ApiKeyService {
	return &apiKeyService{keyRepo: keyRepo, userRepo: userRepo, secLog: secLog}
}

func (s *apiKeyService) Create(ctx context.Context, userID uuid.UUID, name string, rateLimit int, expiresAt *time.Time, meta ClientMeta) (*CreatedApiKey, error) {
	secret, err := auth.GenerateSecret()
	if err != nil {
		return nil, err
	}

	key := &model.ApiKey{
		UserID:    userID,
		Name:      name,
		KeyHash:   auth.HashSecret(secret),
		Prefix:    secret[:auth.APIKeyPrefixLen],
		RateLimit: rateLimit,
		ExpiresAt: expiresAt,
	}
	if err := s.keyRepo.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}

	s.secLog.Event(ctx, userID, model.EventAPIKeyCreated, meta.IP, meta.UserAgent, key.Prefix)
	return &CreatedApiKey{Key: key, Secret: secret}, nil
}

func (s *apiKeyService) List(ctx context.Context, userID uuid.UUID) ([]model.ApiKey, error) {
	return s.keyRepo.ListByUser(ctx, userID)
}

func (s *apiKeyService) Revoke(ctx context.Context, userID, keyID uuid.UUID, meta ClientMeta) error {
	key, err := s.keyRepo.FindByID(ctx, keyID)
	if err != nil {
		return mapNotFound(err)
	}
	if key.UserID != userID {
		return errors.ErrForbidden
	}
	if err := s.keyRepo.Revoke(ctx, keyID); err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	s.secLog.Event(ctx, userID, model.EventAPIKeyRevoked, meta.IP, meta.UserAgent, key.Prefix)
	return nil
}

func (s *apiKeyService) Authenticate(ctx context.Context, rawKey string) (*model.ApiKey, *model.User, error) {
	key, err := s.keyRepo.FindByHash(ctx, auth.HashSecret(rawKey))
	if err != nil {
		return nil, nil, errors.ErrInvalidCredentials
	}
	now := time.Now()
	if !key.Usable(now) {
		return nil, nil, errors.ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByID(ctx, key.UserID)
	if err != nil {
		return nil, nil, errors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, nil, errors.ErrAccountInactive
	}

	_ = s.keyRepo.TouchLastUsed(ctx, key.ID, now)
	return key, user, nil
}
