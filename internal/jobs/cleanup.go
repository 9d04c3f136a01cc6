package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"stellar/internal/repository"
)

// Audit rows older than this are trimmed by the daily job.
const auditRetention = 90 * 24 * time.Hour

const jobTimeout = 5 * time.Minute

// Cleanup runs the scheduled maintenance jobs: expired token and API key
// removal hourly, audit table trimming daily.
type Cleanup struct {
	refreshTokens repository.RefreshTokenRepository
	apiKeys       repository.ApiKeyRepository
	audit         repository.AuditRepository
	cron          *cron.Cron
}

// NewCleanup creates the maintenance scheduler.
func NewCleanup(
	refreshTokens repository.RefreshTokenRepository,
	apiKeys repository.ApiKeyRepository,
	audit repository.AuditRepository,
) *Cleanup {
	return &Cleanup{
		refreshTokens: refreshTokens,
		apiKeys:       apiKeys,
		audit:         audit,
		cron:          cron.New(),
	}
}

// Start registers and starts the schedules.
func (j *Cleanup) Start() error {
	if _, err := j.cron.AddFunc("@hourly", j.purgeExpired); err != nil {
		return err
	}
	if _, err := j.cron.AddFunc("@daily", j.trimAudit); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (j *Cleanup) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Cleanup) purgeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	now := time.Now()
	tokens, err := j.refreshTokens.DeleteExpired(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("failed to purge expired refresh tokens")
	}
	keys, err := j.apiKeys.DeleteExpired(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("failed to purge expired api keys")
	}
	if tokens > 0 || keys > 0 {
		logrus.WithFields(logrus.Fields{
			"refresh_tokens": tokens,
			"api_keys":       keys,
		}).Info("purged expired credentials")
	}
}

func (j *Cleanup) trimAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := time.Now().Add(-auditRetention)
	security, err := j.audit.TrimSecurityLogs(ctx, cutoff)
	if err != nil {
		logrus.WithError(err).Error("failed to trim security logs")
	}
	logins, err := j.audit.TrimLoginHistory(ctx, cutoff)
	if err != nil {
		logrus.WithError(err).Error("failed to trim login history")
	}
	if security > 0 || logins > 0 {
		logrus.WithFields(logrus.Fields{
			"security_logs": security,
			"login_history": logins,
		}).Info("trimmed audit tables")
	}
}
