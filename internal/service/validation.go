package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	maxPasswordLength = 128
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// validatePhone accepts digits only, exactly length of them. No other
// normalization is applied, so lookups stay exact matches.
func validatePhone(phone string, length int) error {
	if len(phone) != length {
		return validationError("phone number must be %d digits", length)
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return validationError("phone number must contain digits only")
		}
	}
	return nil
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) != username {
		return validationError("username must not have surrounding spaces")
	}
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		return validationError("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return validationError("username may contain letters, digits and underscores only")
	}
	// Identifiers made only of digits are looked up as phone numbers first.
	if strings.Trim(username, "0123456789") == "" {
		return validationError("username must contain a letter or underscore")
	}
	return nil
}

func validatePassword(password, confirm string, minLength int) error {
	if utf8.RuneCountInString(password) < minLength {
		return validationError("password must be at least %d characters", minLength)
	}
	if len(password) > maxPasswordLength {
		return validationError("password must be at most %d bytes", maxPasswordLength)
	}
	if password != confirm {
		return validationError("passwords do not match")
	}
	return nil
}
