package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"stellar/internal/auth"
	"stellar/internal/errors"
	"stellar/internal/logging"
	"stellar/internal/model"
	"stellar/internal/repository"
)

// TwoFactorService manages TOTP enrollment.
type TwoFactorService interface {
	// Setup provisions a secret; 2FA stays disabled until Enable verifies a code.
	Setup(ctx context.Context, userID uuid.UUID) (*auth.TOTPProvisioning, error)
	Enable(ctx context.Context, userID uuid.UUID, code string, meta ClientMeta) error
	Disable(ctx context.Context, userID uuid.UUID, password, code string, meta ClientMeta) error
}

type twoFactorService struct {
	userRepo repository.UserRepository
	secLog   *logging.SecurityLogger
}

// NewTwoFactorService creates a new 2FA service.
func NewTwoFactorService(userRepo repository.UserRepository, secLog *logging.SecurityLogger) TwoFactorService {
	return &twoFactorService{userRepo: userRepo, secLog: secLog}
}

func (s *twoFactorService) Setup(ctx context.Context, userID uuid.UUID) (*auth.TOTPProvisioning, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if user.TwoFactorEnabled {
		return nil, errors.ErrConflict
	}

	prov, err := auth.GenerateTOTPSecret(user.Email)
	if err != nil {
		return nil, err
	}

	user.TwoFactorSecret = prov.Secret
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("store totp secret: %w", err)
	}
	return prov, nil
}

func (s *twoFactorService) Enable(ctx context.Context, userID uuid.UUID, code string, meta ClientMeta) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return mapNotFound(err)
	}
	if user.TwoFactorSecret == "" {
		return errors.ErrTwoFactorNotEnabled
	}
	if !auth.ValidateTOTPCode(code, user.TwoFactorSecret) {
		return errors.ErrInvalidTOTPCode
	}

	user.TwoFactorEnabled = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("enable 2fa: %w", err)
	}
	s.secLog.Event(ctx, userID, model.EventTwoFactorEnabled, meta.IP, meta.UserAgent, "")
	return nil
}

// Disable requires both the password and a valid code so a stolen session
// alone cannot weaken the account.
func (s *twoFactorService) Disable(ctx context.Context, userID uuid.UUID, password, code string, meta ClientMeta) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return mapNotFound(err)
	}
	if !user.TwoFactorEnabled {
		return errors.ErrTwoFactorNotEnabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return errors.ErrInvalidCredentials
	}
	if !auth.ValidateTOTPCode(code, user.TwoFactorSecret) {
		return errors.ErrInvalidTOTPCode
	}

	user.TwoFactorEnabled = false
	user.TwoFactorSecret = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("disable 2fa: %w", err)
	}
	s.secLog.Event(ctx, userID, model.EventTwoFactorDisabled, meta.IP, meta.UserAgent, "")
	return nil
}
