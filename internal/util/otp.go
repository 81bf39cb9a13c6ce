package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Codes outside this range are either guessable or longer than request
// bodies accept.
const (
	MinOTPDigits = 4
	MaxOTPDigits = 10
)

// GenerateNumericOTP draws a code uniformly from [0, 10^digits) using
// crypto/rand and left-pads it with zeros.
func GenerateNumericOTP(digits int) (string, error) {
	if digits < MinOTPDigits || digits > MaxOTPDigits {
		return "", fmt.Errorf("otp length %d outside %d..%d", digits, MinOTPDigits, MaxOTPDigits)
	}
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
