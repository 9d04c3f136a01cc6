package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stellar/internal/model"
)

// ApiKeyRepository defines API key persistence operations.
type ApiKeyRepository interface {
	Create(ctx context.Context, key *model.ApiKey) error
	FindByHash(ctx context.Context, hash string) (*model.ApiKey, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApiKey, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ApiKey, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type apiKeyRepository struct {
	db *gorm.DB
}

// NewApiKeyRepository creates a new API key repository.
func NewApiKeyRepository(db *gorm.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *model.ApiKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

func (r *apiKeyRepository) FindByHash(ctx context.Context, hash string) (*model.ApiKey, error) {
	var key model.ApiKey
	if err := r.db.WithContext(ctx).Where("key_hash = ?", hash).First(&key).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApiKey, error) {
	var key model.ApiKey
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&key).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ApiKey, error) {
	var keys []model.ApiKey
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *apiKeyRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.ApiKey{}).
		Where("id = ?", id).
		Update("revoked", true).Error
}

func (r *apiKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.ApiKey{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at).Error
}

func (r *apiKeyRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Delete(&model.ApiKey{})
	return res.RowsAffected, res.Error
}
