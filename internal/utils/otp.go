package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

// GenerateOTP returns a uniformly random 6 digit code, zero padded.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", errors.Wrap(err, "generate otp")
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
