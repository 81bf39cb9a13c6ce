package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/metrics"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

type AuthServiceConfig struct {
	PhoneNumberLength int
	PasswordMinLength int
	// ExposeOTP returns issued codes to the caller. Development only.
	ExposeOTP bool
}

const (
	defaultPhoneNumberLength = 10
	defaultPasswordMinLength = 6
	defaultListLimit         = 20
	maxListLimit             = 100
)

type RegisterInput struct {
	PhoneNumber     string
	Username        string
	Password        string
	ConfirmPassword string
	Email           *string
}

// OTPChallenge is what a caller learns after a code was issued. Code is only
// filled when codes are exposed for development.
type OTPChallenge struct {
	UserID    uuid.UUID
	Code      string
	ExpiresAt time.Time
}

type AuthService struct {
	users    ports.UserRepository
	hasher   *util.PasswordHasher
	otp      *OTPEngine
	sessions *SessionIssuer
	logger   *zap.Logger

	phoneLength       int
	passwordMinLength int
	exposeOTP         bool
}

func NewAuthService(users ports.UserRepository, hasher *util.PasswordHasher, otp *OTPEngine, sessions *SessionIssuer, logger *zap.Logger, cfg AuthServiceConfig) *AuthService {
	if cfg.PhoneNumberLength <= 0 {
		cfg.PhoneNumberLength = defaultPhoneNumberLength
	}
	if cfg.PasswordMinLength <= 0 {
		cfg.PasswordMinLength = defaultPasswordMinLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:             users,
		hasher:            hasher,
		otp:               otp,
		sessions:          sessions,
		logger:            logger,
		phoneLength:       cfg.PhoneNumberLength,
		passwordMinLength: cfg.PasswordMinLength,
		exposeOTP:         cfg.ExposeOTP,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := validatePhone(in.PhoneNumber, s.phoneLength); err != nil {
		return nil, err
	}
	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password, in.ConfirmPassword, s.passwordMinLength); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	phone := in.PhoneNumber
	var email *string
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		trimmed := strings.TrimSpace(*in.Email)
		email = &trimmed
	}
	user, err := s.users.Create(ctx, &domain.User{
		ID:           uuid.New(),
		Username:     in.Username,
		PasswordHash: hash,
		PhoneNumber:  &phone,
		Email:        email,
	})
	if err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// VerifyPassword never logs the plaintext or the stored hash.
func (s *AuthService) VerifyPassword(user *domain.User, plaintext string) bool {
	if user == nil {
		return false
	}
	return s.hasher.Verify(plaintext, user.PasswordHash)
}

// Login checks the password and, on success, issues and delivers a login
// OTP. A delivery failure is returned as ErrOTPDeliveryFailed together with
// the challenge; the code stays valid.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*OTPChallenge, error) {
	user, err := s.users.FindByPhoneOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !s.VerifyPassword(user, password) {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.upgradeLegacyHash(ctx, user, password)

	return s.issueAndDeliver(ctx, user, domain.OTPPurposeLogin)
}

// VerifyLoginOTP consumes a login code and mints a session for its owner.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, userID uuid.UUID, code string) (*domain.User, *domain.SessionToken, error) {
	user, err := s.otp.Verify(ctx, userID, code, domain.OTPPurposeLogin)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.sessions.Issue(user)
	if err != nil {
		return nil, nil, fmt.Errorf("issue session: %w", err)
	}
	return user, session, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset issues a reset code when identifier names a user. An
// unknown identifier yields (nil, nil), and a failed delivery is only logged,
// so the outcome looks the same whether or not the account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, identifier string) (*OTPChallenge, error) {
	user, err := s.users.FindByPhoneOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	challenge, err := s.issueAndDeliver(ctx, user, domain.OTPPurposePasswordReset)
	if errors.Is(err, ErrOTPDeliveryFailed) {
		s.logger.Warn("password reset otp delivery failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return challenge, nil
	}
	return challenge, err
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, identifier, code, newPassword, confirmPassword string) error {
	if err := validatePassword(newPassword, confirmPassword, s.passwordMinLength); err != nil {
		return err
	}
	user, err := s.users.FindByPhoneOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOTPInvalidOrExpired
		}
		return fmt.Errorf("find user: %w", err)
	}
	if _, err := s.otp.Verify(ctx, user.ID, code, domain.OTPPurposePasswordReset); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.Info("password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) ChangeUsername(ctx context.Context, userID uuid.UUID, username string) (*domain.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	user, err := s.users.UpdateUsername(ctx, userID, username)
	return s.mapUpdate(user, err)
}

func (s *AuthService) ChangePhone(ctx context.Context, userID uuid.UUID, phone string) (*domain.User, error) {
	if err := validatePhone(phone, s.phoneLength); err != nil {
		return nil, err
	}
	user, err := s.users.UpdatePhone(ctx, userID, phone)
	return s.mapUpdate(user, err)
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	limit, offset = NormalizePage(limit, offset)
	return s.users.List(ctx, limit, offset)
}

// NormalizePage applies the default and maximum page size.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *AuthService) mapUpdate(user *domain.User, err error) (*domain.User, error) {
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, ports.ErrDuplicateKey):
		return nil, ErrDuplicateKey
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrUserNotFound
	default:
		return nil, fmt.Errorf("update user: %w", err)
	}
}

func (s *AuthService) issueAndDeliver(ctx context.Context, user *domain.User, purpose domain.OTPPurpose) (*OTPChallenge, error) {
	otp, err := s.otp.Issue(ctx, user.ID, purpose)
	if err != nil {
		return nil, err
	}
	challenge := &OTPChallenge{UserID: user.ID, ExpiresAt: otp.ExpiresAt}
	if s.exposeOTP {
		challenge.Code = otp.Code
	}
	if err := s.otp.Deliver(ctx, user, otp); err != nil {
		return challenge, err
	}
	return challenge, nil
}

// upgradeLegacyHash rewrites a bcrypt hash as argon2id after a successful
// login. Failures are logged and otherwise ignored.
func (s *AuthService) upgradeLegacyHash(ctx context.Context, user *domain.User, password string) {
	if !util.IsLegacyHash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("rehash legacy password", zap.Error(err))
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Warn("store upgraded password hash", zap.String("user_id", user.ID.String()), zap.Error(err))
		return
	}
	user.PasswordHash = hash
}
