package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stellar/internal/model"
)

// Recorder persists audit rows. Implemented by the security log repository.
type Recorder interface {
	RecordSecurityEvent(ctx context.Context, entry *model.SecurityLog) error
}

// SecurityLogger emits structured security events to the process log and to
// the append-only SecurityLog table. Persistence failures are logged, never
// propagated: audit writes must not fail the request.
type SecurityLogger struct {
	log      *logrus.Logger
	recorder Recorder
}

// NewSecurityLogger creates a security logger. recorder may be nil in tests.
func NewSecurityLogger(recorder Recorder) *SecurityLogger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	return &SecurityLogger{log: log, recorder: recorder}
}

// Event records a security event for a known user.
func (l *SecurityLogger) Event(ctx context.Context, userID uuid.UUID, event, clientIP, userAgent, detail string) {
	l.record(ctx, &userID, event, clientIP, userAgent, detail)
}

// AnonymousEvent records a security event with no associated user.
func (l *SecurityLogger) AnonymousEvent(ctx context.Context, event, clientIP, userAgent, detail string) {
	l.record(ctx, nil, event, clientIP, userAgent, detail)
}

func (l *SecurityLogger) record(ctx context.Context, userID *uuid.UUID, event, clientIP, userAgent, detail string) {
	fields := logrus.Fields{
		"event":     event,
		"client_ip": clientIP,
	}
	if userID != nil {
		fields["user_id"] = userID.String()
	}
	if detail != "" {
		fields["detail"] = detail
	}
	l.log.WithFields(fields).Info("security event")

	if l.recorder == nil {
		return
	}
	entry := &model.SecurityLog{
		UserID:    userID,
		Event:     event,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		Detail:    detail,
	}
	if err := l.recorder.RecordSecurityEvent(ctx, entry); err != nil {
		l.log.WithError(err).Warn("persist security event")
	}
}
