package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stellar/internal/cache"
	"stellar/internal/errors"
	"stellar/internal/logging"
	"stellar/internal/model"
	"stellar/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// ProfileUpdate carries the editable profile fields. Nil pointers leave the
// field untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Bio       *string
}

// UserService exposes profile and admin user operations.
type UserService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string, meta ClientMeta) error
	DeleteAccount(ctx context.Context, id uuid.UUID, password string, meta ClientMeta) error

	// Admin operations.
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, int64, error)
	SetRole(ctx context.Context, id uuid.UUID, role string) (*model.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, meta ClientMeta) (*model.User, error)
}

type userService struct {
	userRepo    repository.UserRepository
	refreshRepo repository.RefreshTokenRepository
	cache       *cache.Client
	secLog      *logging.SecurityLogger
}

// NewUserService builds a UserService.
func NewUserService(
	userRepo repository.UserRepository,
	refreshRepo repository.RefreshTokenRepository,
	cacheClient *cache.Client,
	secLog *logging.SecurityLogger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		cache:       cacheClient,
		secLog:      secLog,
	}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) GetProfile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return user, nil
}

// ChangePassword verifies the current password, rehashes, and revokes every
// live refresh token.
func (s *userService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string, meta ClientMeta) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return errors.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	_ = s.refreshRepo.RevokeAllForUser(ctx, id)
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	s.secLog.Event(ctx, id, model.EventPasswordChanged, meta.IP, meta.UserAgent, "")
	return nil
}

// DeleteAccount soft deletes the user after password confirmation and revokes
// all sessions.
func (s *userService) DeleteAccount(ctx context.Context, id uuid.UUID, password string, meta ClientMeta) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return errors.ErrInvalidCredentials
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	_ = s.refreshRepo.RevokeAllForUser(ctx, id)
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	s.secLog.Event(ctx, id, model.EventAccountDeactivated, meta.IP, meta.UserAgent, "account deleted")
	return nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, int64, error) {
	return s.userRepo.List(ctx, filter)
}

func (s *userService) SetRole(ctx context.Context, id uuid.UUID, role string) (*model.User, error) {
	switch role {
	case model.RoleUser, model.RoleModerator, model.RoleAdmin:
	default:
		return nil, errors.ErrValidation
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return user, nil
}

func (s *userService) SetActive(ctx context.Context, id uuid.UUID, active bool, meta ClientMeta) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	user.Active = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !active {
		_ = s.refreshRepo.RevokeAllForUser(ctx, id)
		s.secLog.Event(ctx, id, model.EventAccountDeactivated, meta.IP, meta.UserAgent, "")
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return user, nil
}

// mapNotFound converts gorm's missing-record error to the domain error.
func mapNotFound(err error) error {
	if err == gorm.ErrRecordNotFound {
		return errors.ErrNotFound
	}
	return err
}
