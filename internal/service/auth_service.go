package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
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

const bcryptCost = 10

const (
	lockoutKeyPrefix    = "lockout:"
	failureKeyPrefix    = "login_failures:"
	passwordResetPrefix = "password_reset:"
	emailVerifyPrefix   = "email_verify:"
	emailVerifyTTL      = 24 * time.Hour
	passwordResetTTL    = time.Hour
)

// ClientMeta carries request origin details into the audit trail.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// TokenPair is the credential set returned on successful authentication.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginResult is the outcome of a password login. When the account has 2FA
// enabled, Tokens is nil and PendingToken must be exchanged via Verify2FA.
type LoginResult struct {
	TwoFactorRequired bool
	PendingToken      string
	Tokens            *TokenPair
	User              *model.User
}

// AuthService handles the authentication/session lifecycle.
type AuthService interface {
	Register(ctx context.Context, username, email, password, firstName, lastName string, meta ClientMeta) (*model.User, string, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, identifier, password string, rememberMe bool, meta ClientMeta) (*LoginResult, error)
	Verify2FA(ctx context.Context, pendingToken, code string, meta ClientMeta) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken, accessTokenID string, accessTTL time.Duration) error
	ForgotPassword(ctx context.Context, email string, meta ClientMeta) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string, meta ClientMeta) error
}

type authService struct {
	userRepo    repository.UserRepository
	refreshRepo repository.RefreshTokenRepository
	auditRepo   repository.AuditRepository
	jwtService  *auth.JWTService
	tokenStore  auth.BlacklistStore
	cache       *cache.Client
	secLog      *logging.SecurityLogger
	cfg         *config.Config
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	refreshRepo repository.RefreshTokenRepository,
	auditRepo repository.AuditRepository,
	jwtService *auth.JWTService,
	tokenStore auth.BlacklistStore,
	cacheClient *cache.Client,
	secLog *logging.SecurityLogger,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		auditRepo:   auditRepo,
		jwtService:  jwtService,
		tokenStore:  tokenStore,
		cache:       cacheClient,
		secLog:      secLog,
		cfg:         cfg,
	}
}

// Register creates a new user and returns an email verification token. The
// token is handed to the caller for delivery; it is never persisted in clear.
func (s *authService) Register(ctx context.Context, username, email, password, firstName, lastName string, meta ClientMeta) (*model.User, string, error) {
	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, "", errors.ErrUserAlreadyExists
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return nil, "", fmt.Errorf("check email: %w", err)
	}
	if existing, err := s.userRepo.FindByIdentifier(ctx, username); err == nil && existing != nil {
		return nil, "", errors.ErrUserAlreadyExists
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return nil, "", fmt.Errorf("check username: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         model.RoleUser,
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	verifyToken, err := auth.GenerateSecret()
	if err != nil {
		return nil, "", err
	}
	key := emailVerifyPrefix + auth.HashSecret(verifyToken)
	_ = s.cache.Set(ctx, key, []byte(user.ID.String()), emailVerifyTTL)

	return user, verifyToken, nil
}

// VerifyEmail consumes a verification token and marks the user verified.
func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	key := emailVerifyPrefix + auth.HashSecret(token)
	data, _ := s.cache.Get(ctx, key)
	if data == nil {
		return errors.ErrInvalidResetToken
	}
	userID, err := uuid.Parse(string(data))
	if err != nil {
		return errors.ErrInvalidResetToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return errors.ErrInvalidResetToken
	}
	user.EmailVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	_ = s.cache.Delete(ctx, key)
	return nil
}

// Login authenticates by email or username. Accounts lock after the
// configured number of failures inside the failure window.
func (s *authService) Login(ctx context.Context, identifier, password string, rememberMe bool, meta ClientMeta) (*LoginResult, error) {
	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		// Unknown identifier is indistinguishable from a bad password.
		return nil, errors.ErrInvalidCredentials
	}

	if locked, _ := s.cache.Exists(ctx, lockoutKeyPrefix+user.ID.String()); locked {
		return nil, errors.ErrAccountLocked
	}
	if !user.Active {
		return nil, errors.ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLogin(ctx, user.ID, meta, false)
		s.registerFailure(ctx, user.ID, meta)
		return nil, errors.ErrInvalidCredentials
	}

	// Success clears the failure window.
	_ = s.cache.Delete(ctx, failureKeyPrefix+user.ID.String())

	if user.TwoFactorEnabled {
		pending, _, err := s.jwtService.GeneratePendingToken(user.ID, user.Role)
		if err != nil {
			return nil, fmt.Errorf("generate pending token: %w", err)
		}
		return &LoginResult{TwoFactorRequired: true, PendingToken: pending, User: user}, nil
	}

	return s.completeLogin(ctx, user, rememberMe, meta)
}

// Verify2FA exchanges a pending token plus TOTP code for real tokens.
func (s *authService) Verify2FA(ctx context.Context, pendingToken, code string, meta ClientMeta) (*LoginResult, error) {
	claims, err := s.jwtService.ValidatePendingToken(pendingToken)
	if err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, errors.ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	if !user.TwoFactorEnabled || !auth.ValidateTOTPCode(code, user.TwoFactorSecret) {
		s.recordLogin(ctx, user.ID, meta, false)
		s.registerFailure(ctx, user.ID, meta)
		return nil, errors.ErrInvalidTOTPCode
	}

	return s.completeLogin(ctx, user, false, meta)
}

func (s *authService) completeLogin(ctx context.Context, user *model.User, rememberMe bool, meta ClientMeta) (*LoginResult, error) {
	pair, err := s.issueTokens(ctx, user, rememberMe, meta)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	s.recordLogin(ctx, user.ID, meta, true)
	s.secLog.Event(ctx, user.ID, model.EventLoginSuccess, meta.IP, meta.UserAgent, "")

	return &LoginResult{Tokens: pair, User: user}, nil
}

func (s *authService) issueTokens(ctx context.Context, user *model.User, rememberMe bool, meta ClientMeta) (*TokenPair, error) {
	accessToken, _, err := s.jwtService.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return nil, err
	}
	ttl := s.cfg.RefreshTokenTTL
	if rememberMe {
		ttl = s.cfg.RememberMeTTL
	}
	row := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: auth.HashSecret(secret),
		ExpiresAt: time.Now().Add(ttl),
		ClientIP:  meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.refreshRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: secret,
		ExpiresIn:    int64(s.jwtService.AccessTokenTTL().Seconds()),
	}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and
// replaced. Presenting an already-rotated token is treated as theft and
// revokes every live session of the user.
func (s *authService) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*TokenPair, error) {
	row, err := s.refreshRepo.FindByHash(ctx, auth.HashSecret(refreshToken))
	if err != nil {
		return nil, errors.ErrInvalidRefreshToken
	}

	now := time.Now()
	if row.Revoked {
		_ = s.refreshRepo.RevokeAllForUser(ctx, row.UserID)
		s.secLog.Event(ctx, row.UserID, model.EventTokenReuse, meta.IP, meta.UserAgent,
			"rotated refresh token replayed; all sessions revoked")
		return nil, errors.ErrInvalidRefreshToken
	}
	if now.After(row.ExpiresAt) {
		return nil, errors.ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(ctx, row.UserID)
	if err != nil {
		return nil, errors.ErrInvalidRefreshToken
	}
	if !user.Active {
		return nil, errors.ErrAccountInactive
	}

	accessToken, _, err := s.jwtService.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return nil, err
	}
	next := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: auth.HashSecret(secret),
		ExpiresAt: row.ExpiresAt, // rotation keeps the original session horizon
		ClientIP:  meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.refreshRepo.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	if err := s.refreshRepo.Revoke(ctx, row.ID, &next.ID); err != nil {
		return nil, fmt.Errorf("revoke prior token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: secret,
		ExpiresIn:    int64(s.jwtService.AccessTokenTTL().Seconds()),
	}, nil
}

// Logout revokes the refresh token and blacklists the access token until its
// natural expiry.
func (s *authService) Logout(ctx context.Context, refreshToken, accessTokenID string, accessTTL time.Duration) error {
	row, err := s.refreshRepo.FindByHash(ctx, auth.HashSecret(refreshToken))
	if err != nil {
		return errors.ErrInvalidRefreshToken
	}
	if err := s.refreshRepo.Revoke(ctx, row.ID, nil); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if accessTokenID != "" {
		_ = s.tokenStore.BlacklistAccessToken(ctx, accessTokenID, accessTTL)
	}
	return nil
}

// ForgotPassword issues a reset token for the given email. To avoid account
// enumeration the caller responds identically whether or not the email exists;
// an empty token means no account matched.
func (s *authService) ForgotPassword(ctx context.Context, email string, meta ClientMeta) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	token, err := auth.GenerateSecret()
	if err != nil {
		return "", err
	}
	key := passwordResetPrefix + auth.HashSecret(token)
	_ = s.cache.Set(ctx, key, []byte(user.ID.String()), passwordResetTTL)
	return token, nil
}

// ResetPassword consumes a reset token, rehashes the password, and revokes
// every live session.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string, meta ClientMeta) error {
	key := passwordResetPrefix + auth.HashSecret(token)
	data, _ := s.cache.Get(ctx, key)
	if data == nil {
		return errors.ErrInvalidResetToken
	}
	userID, err := uuid.Parse(string(data))
	if err != nil {
		return errors.ErrInvalidResetToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return errors.ErrInvalidResetToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	_ = s.cache.Delete(ctx, key)
	_ = s.refreshRepo.RevokeAllForUser(ctx, user.ID)
	s.secLog.Event(ctx, user.ID, model.EventPasswordReset, meta.IP, meta.UserAgent, "")
	return nil
}

// registerFailure bumps the failure counter and locks the account when the
// threshold is crossed inside the window.
func (s *authService) registerFailure(ctx context.Context, userID uuid.UUID, meta ClientMeta) {
	count, err := s.cache.IncrWithTTL(ctx, failureKeyPrefix+userID.String(), s.cfg.LockoutWindow)
	if err != nil {
		return // counters unavailable: no lockout, logins still work
	}
	s.secLog.Event(ctx, userID, model.EventLoginFailure, meta.IP, meta.UserAgent,
		"attempt "+strconv.FormatInt(count, 10))
	if count >= int64(s.cfg.LockoutThreshold) {
		_ = s.cache.Set(ctx, lockoutKeyPrefix+userID.String(), []byte("1"), s.cfg.LockoutDuration)
		_ = s.cache.Delete(ctx, failureKeyPrefix+userID.String())
		s.secLog.Event(ctx, userID, model.EventAccountLocked, meta.IP, meta.UserAgent, "")
	}
}

func (s *authService) recordLogin(ctx context.Context, userID uuid.UUID, meta ClientMeta, success bool) {
	_ = s.auditRepo.RecordLogin(ctx, &model.LoginHistory{
		UserID:    userID,
		ClientIP:  meta.IP,
		UserAgent: meta.UserAgent,
		Success:   success,
	})
}
