package auth

import (
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpIssuer = "Stellar API"

// TOTPProvisioning holds the secret and otpauth URL handed to the user during
// 2FA setup.
type TOTPProvisioning struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// GenerateTOTPSecret provisions a new TOTP secret for the given account name.
func GenerateTOTPSecret(accountName string) (*TOTPProvisioning, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}
	return &TOTPProvisioning{
		Secret: key.Secret(),
		URL:    key.URL(),
	}, nil
}

// ValidateTOTPCode verifies a 6-digit code against a secret.
func ValidateTOTPCode(code, secret string) bool {
	return totp.Validate(code, secret)
}
