package service

import (
	"errors"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDuplicateKey        = ports.ErrDuplicateKey
	ErrOTPInvalidOrExpired = errors.New("otp invalid or expired")
	ErrOTPDeliveryFailed   = errors.New("otp delivery failed")
	ErrQRInvalidOrExpired  = errors.New("qr code invalid or expired")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrCSRFMismatch        = errors.New("csrf token mismatch")
	ErrValidation          = errors.New("validation failed")
	ErrUserNotFound        = errors.New("user not found")
)
