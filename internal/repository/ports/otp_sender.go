package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
)

// OTPMessage is everything a delivery channel needs to reach the user.
type OTPMessage struct {
	UserID      uuid.UUID         `json:"user_id"`
	PhoneNumber string            `json:"phone_number,omitempty"`
	Email       string            `json:"email,omitempty"`
	Code        string            `json:"code"`
	Purpose     domain.OTPPurpose `json:"purpose"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

type OTPSender interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}
