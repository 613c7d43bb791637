package utils

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// GenerateTOTPSecret creates a new base32 secret for a rotating QR code.
func GenerateTOTPSecret(issuer, accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

func totpOpts(period uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    period,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// GenerateTOTPCode returns the code valid at t.
func GenerateTOTPCode(secret string, t time.Time, period uint) (string, error) {
	return totp.GenerateCodeCustom(secret, t, totpOpts(period))
}

// VerifyTOTP accepts the code for t and one period either side.
func VerifyTOTP(code, secret string, t time.Time, period uint) bool {
	ok, err := totp.ValidateCustom(code, secret, t, totpOpts(period))
	if err != nil {
		return false
	}
	return ok
}
