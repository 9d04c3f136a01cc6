package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"stellar/internal/model"
)

// AuditRepository persists the append-only security and login trails.
type AuditRepository interface {
	RecordSecurityEvent(ctx context.Context, entry *model.SecurityLog) error
	RecordLogin(ctx context.Context, entry *model.LoginHistory) error
	TrimSecurityLogs(ctx context.Context, cutoff time.Time) (int64, error)
	TrimLoginHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) RecordSecurityEvent(ctx context.Context, entry *model.SecurityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) RecordLogin(ctx context.Context, entry *model.LoginHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) TrimSecurityLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.SecurityLog{})
	return res.RowsAffected, res.Error
}

func (r *auditRepository) TrimLoginHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.LoginHistory{})
	return res.RowsAffected, res.Error
}
