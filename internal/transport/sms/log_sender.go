package sms

import (
	"context"

	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
)

// LogSender writes codes to the log instead of delivering them. Development
// only; it pairs with OTP_EXPOSE_CODE.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOTP(_ context.Context, msg ports.OTPMessage) error {
	s.logger.Info("otp issued",
		zap.String("user_id", msg.UserID.String()),
		zap.String("purpose", string(msg.Purpose)),
		zap.String("code", msg.Code),
		zap.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}
