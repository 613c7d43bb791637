package employee

import (
	"crypto/rand"
	"math/big"

	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/validator"
)

const maxDeviceCodeAttempts = 10

func generateDeviceCode() (string, error) {
	alphabet := validator.DeviceCodeAlphabet
	max := big.NewInt(int64(len(alphabet)))

	code := make([]byte, validator.DeviceCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}
