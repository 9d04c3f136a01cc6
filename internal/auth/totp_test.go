package auth

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
)

func TestGenerateTOTPSecret(t *testing.T) {
	prov, err := GenerateTOTPSecret("alice@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, prov.Secret)
	assert.Contains(t, prov.URL, "otpauth://totp/")
	assert.Contains(t, prov.URL, "alice@example.com")
}

func TestValidateTOTPCode(t *testing.T) {
	prov, err := GenerateTOTPSecret("alice@example.com")
	assert.NoError(t, err)

	code, err := totp.GenerateCode(prov.Secret, time.Now())
	assert.NoError(t, err)

	assert.True(t, ValidateTOTPCode(code, prov.Secret))
	assert.False(t, ValidateTOTPCode("000000", prov.Secret))
	assert.False(t, ValidateTOTPCode(code, "JBSWY3DPEHPK3PXP"))
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	assert.NoError(t, err)
	b, err := GenerateSecret()
	assert.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, HashSecret(a), HashSecret(a))
	assert.NotEqual(t, HashSecret(a), HashSecret(b))
	assert.Len(t, HashSecret(a), 64)
}
