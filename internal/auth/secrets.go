package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// APIKeyPrefixLen is the number of leading characters kept for display.
const APIKeyPrefixLen = 8

// GenerateSecret returns a 256-bit URL-safe opaque secret. Used for refresh
// tokens, API keys, and email/password-reset tokens.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashSecret returns the hex-encoded SHA-256 digest of a secret. Only the
// digest is stored; lookups hash the presented secret and compare.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
