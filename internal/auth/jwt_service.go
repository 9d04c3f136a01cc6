package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Token purposes carried in the purpose claim. A pending token is issued after
// password verification on 2FA-enabled accounts and is only good for the
// TOTP verification exchange.
const (
	PurposeAccess     = "access"
	Purpose2FAPending = "2fa_pending"
)

// PendingTokenExpiry bounds the window between password check and TOTP entry.
const PendingTokenExpiry = 5 * time.Minute

// Claims represents JWT claims.
type Claims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret    []byte
	accessTTL time.Duration
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string, accessTTL time.Duration) *JWTService {
	return &JWTService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
	}
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// GenerateAccessToken generates a new access token for the user. The token ID
// (jti) is returned for blacklisting on logout.
func (s *JWTService) GenerateAccessToken(userID uuid.UUID, role string) (token string, tokenID string, err error) {
	return s.generate(userID, role, PurposeAccess, s.accessTTL)
}

// GeneratePendingToken generates a short-lived token used to complete a
// 2FA login.
func (s *JWTService) GeneratePendingToken(userID uuid.UUID, role string) (token string, tokenID string, err error) {
	return s.generate(userID, role, Purpose2FAPending, PendingTokenExpiry)
}

func (s *JWTService) generate(userID uuid.UUID, role, purpose string, ttl time.Duration) (string, string, error) {
	tokenID := uuid.New().String()
	now := time.Now()
	claims := &Claims{
		UserID:  userID.String(),
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return token, tokenID, err
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// ValidatePendingToken validates a 2FA pending token and returns its claims.
func (s *JWTService) ValidatePendingToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != Purpose2FAPending {
		return nil, errors.New("not a pending token")
	}
	return claims, nil
}
