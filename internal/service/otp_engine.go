package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/metrics"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

type OTPEngineConfig struct {
	TTL             time.Duration
	Length          int
	DeliveryTimeout time.Duration
	MaxAttempts     int
}

const (
	defaultOTPTTL             = 5 * time.Minute
	defaultOTPLength          = 6
	defaultOTPDeliveryTimeout = 10 * time.Second
	defaultOTPMaxAttempts     = 5
)

// OTPEngine issues and verifies short numeric codes. Delivery is delegated to
// an OTPSender; a failed delivery leaves the issued code valid.
type OTPEngine struct {
	codes  ports.OneTimeCodeRepository
	sender ports.OTPSender
	logger *zap.Logger

	ttl         time.Duration
	length      int
	timeout     time.Duration
	maxAttempts int
	now         func() time.Time
	generate    func(digits int) (string, error)
}

func NewOTPEngine(codes ports.OneTimeCodeRepository, sender ports.OTPSender, logger *zap.Logger, cfg OTPEngineConfig) *OTPEngine {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultOTPTTL
	}
	switch {
	case cfg.Length <= 0:
		cfg.Length = defaultOTPLength
	case cfg.Length < util.MinOTPDigits:
		cfg.Length = util.MinOTPDigits
	case cfg.Length > util.MaxOTPDigits:
		cfg.Length = util.MaxOTPDigits
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = defaultOTPDeliveryTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultOTPMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OTPEngine{
		codes:       codes,
		sender:      sender,
		logger:      logger,
		ttl:         cfg.TTL,
		length:      cfg.Length,
		timeout:     cfg.DeliveryTimeout,
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
		generate:    util.GenerateNumericOTP,
	}
}

// Issue persists a fresh code for userID. Earlier codes stay valid until they
// expire or are used.
func (e *OTPEngine) Issue(ctx context.Context, userID uuid.UUID, purpose domain.OTPPurpose) (*domain.OneTimeCode, error) {
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		code, err := e.generate(e.length)
		if err != nil {
			return nil, fmt.Errorf("generate otp: %w", err)
		}
		now := e.now()
		otp := &domain.OneTimeCode{
			ID:        uuid.New(),
			UserID:    userID,
			Code:      code,
			Purpose:   purpose,
			CreatedAt: now,
			ExpiresAt: now.Add(e.ttl),
		}
		err = e.codes.Create(ctx, otp)
		if err == nil {
			metrics.OTPIssuedTotal.WithLabelValues(string(purpose)).Inc()
			return otp, nil
		}
		if !errors.Is(err, ports.ErrDuplicateKey) {
			return nil, fmt.Errorf("store otp: %w", err)
		}
		e.logger.Debug("otp collision, retrying", zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("store otp: no free code after %d attempts", e.maxAttempts)
}

// Verify consumes the code and returns its owner. Each code verifies at most
// once, including under concurrent attempts.
func (e *OTPEngine) Verify(ctx context.Context, userID uuid.UUID, code string, purpose domain.OTPPurpose) (*domain.User, error) {
	if !e.wellFormed(code) {
		metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), "failure").Inc()
		return nil, ErrOTPInvalidOrExpired
	}
	user, err := e.codes.Consume(ctx, userID, code, purpose, e.now())
	if err != nil {
		metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), "failure").Inc()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOTPInvalidOrExpired
		}
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), "success").Inc()
	return user, nil
}

func (e *OTPEngine) Deliver(ctx context.Context, user *domain.User, otp *domain.OneTimeCode) error {
	if e.sender == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	msg := ports.OTPMessage{
		UserID:      user.ID,
		PhoneNumber: user.Phone(),
		Code:        otp.Code,
		Purpose:     otp.Purpose,
		ExpiresAt:   otp.ExpiresAt,
	}
	if user.Email != nil {
		msg.Email = *user.Email
	}
	err := e.sender.SendOTP(ctx, msg)
	metrics.OTPDeliveryTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		e.logger.Warn("otp delivery failed",
			zap.String("user_id", user.ID.String()),
			zap.String("purpose", string(otp.Purpose)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrOTPDeliveryFailed, err)
	}
	return nil
}

func (e *OTPEngine) wellFormed(code string) bool {
	if len(code) != e.length {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
