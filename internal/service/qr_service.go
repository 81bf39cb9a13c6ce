package service

import (
	"context"
	"crypto/subtle"
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

type QRServiceConfig struct {
	TTL         time.Duration
	MaxPollWait time.Duration
}

const (
	defaultQRTTL         = 5 * time.Minute
	defaultQRMaxPollWait = 25 * time.Second
	qrCodeBytes          = 32
	qrPollTokenBytes     = 32
)

// QRChallenge is returned once to the anonymous device. PollToken is never
// stored in the clear.
type QRChallenge struct {
	Code      string    `json:"code"`
	PollToken string    `json:"pollToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// QRService runs the cross-device login handshake: an anonymous device
// generates a code, an authenticated device binds its user to it, and the
// anonymous device claims the resulting session.
type QRService struct {
	sessions ports.QRSessionRepository
	users    ports.UserRepository
	notifier ports.QRNotifier
	logger   *zap.Logger

	ttl     time.Duration
	maxWait time.Duration
	now     func() time.Time
}

func NewQRService(sessions ports.QRSessionRepository, users ports.UserRepository, notifier ports.QRNotifier, logger *zap.Logger, cfg QRServiceConfig) *QRService {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultQRTTL
	}
	if cfg.MaxPollWait <= 0 {
		cfg.MaxPollWait = defaultQRMaxPollWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QRService{
		sessions: sessions,
		users:    users,
		notifier: notifier,
		logger:   logger,
		ttl:      cfg.TTL,
		maxWait:  cfg.MaxPollWait,
		now:      time.Now,
	}
}

func (s *QRService) Generate(ctx context.Context) (*QRChallenge, error) {
	code, err := util.GenerateToken(qrCodeBytes)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}
	pollToken, err := util.GenerateToken(qrPollTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate poll token: %w", err)
	}
	now := s.now()
	session := &domain.QRSession{
		ID:            uuid.New(),
		Code:          code,
		PollTokenHash: util.HashToken(pollToken),
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store qr session: %w", err)
	}
	metrics.QRSessionsTotal.WithLabelValues("generated").Inc()
	return &QRChallenge{Code: code, PollToken: pollToken, ExpiresAt: session.ExpiresAt}, nil
}

// Bind attaches userID to an open, unexpired code. Exactly one caller wins;
// every other caller, and any caller after expiry, gets ErrQRInvalidOrExpired.
func (s *QRService) Bind(ctx context.Context, code string, userID uuid.UUID) (*domain.QRSession, error) {
	if code == "" {
		return nil, ErrQRInvalidOrExpired
	}
	session, err := s.sessions.Bind(ctx, code, userID, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQRInvalidOrExpired
		}
		return nil, fmt.Errorf("bind qr session: %w", err)
	}
	metrics.QRSessionsTotal.WithLabelValues("bound").Inc()
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, code); err != nil {
			s.logger.Warn("publish qr bind", zap.Error(err))
		}
	}
	return session, nil
}

// Claim waits up to wait for the code to be bound and then hands its user to
// the anonymous device holding pollToken. A pending status with a nil error
// means the wait elapsed without a bind.
func (s *QRService) Claim(ctx context.Context, code, pollToken string, wait time.Duration) (*domain.User, domain.QRStatus, error) {
	session, err := s.lookup(ctx, code, pollToken)
	if err != nil {
		return nil, "", err
	}
	switch session.Status(s.now()) {
	case domain.QRStatusClaimed, domain.QRStatusExpired:
		return nil, "", ErrQRInvalidOrExpired
	case domain.QRStatusBound:
		return s.claim(ctx, code, pollToken)
	}

	if wait > s.maxWait {
		wait = s.maxWait
	}
	if wait <= 0 || s.notifier == nil {
		return nil, domain.QRStatusPending, nil
	}
	if remaining := session.ExpiresAt.Sub(s.now()); remaining < wait {
		wait = remaining
	}

	bound, cancel, err := s.notifier.Subscribe(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("subscribe qr session: %w", err)
	}
	defer cancel()

	// The bind may have landed between the first read and the subscription.
	session, err = s.lookup(ctx, code, pollToken)
	if err != nil {
		return nil, "", err
	}
	if session.Used {
		return s.claim(ctx, code, pollToken)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-bound:
		return s.claim(ctx, code, pollToken)
	case <-timer.C:
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}

	session, err = s.lookup(ctx, code, pollToken)
	if err != nil {
		return nil, "", err
	}
	switch session.Status(s.now()) {
	case domain.QRStatusBound:
		return s.claim(ctx, code, pollToken)
	case domain.QRStatusPending:
		return nil, domain.QRStatusPending, nil
	default:
		return nil, "", ErrQRInvalidOrExpired
	}
}

// Status reports the lifecycle state without blocking.
func (s *QRService) Status(ctx context.Context, code, pollToken string) (domain.QRStatus, error) {
	session, err := s.lookup(ctx, code, pollToken)
	if err != nil {
		return "", err
	}
	return session.Status(s.now()), nil
}

func (s *QRService) claim(ctx context.Context, code, pollToken string) (*domain.User, domain.QRStatus, error) {
	session, err := s.sessions.Claim(ctx, code, util.HashToken(pollToken), s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrQRInvalidOrExpired
		}
		return nil, "", fmt.Errorf("claim qr session: %w", err)
	}
	if session.UserID == nil {
		return nil, "", ErrQRInvalidOrExpired
	}
	user, err := s.users.FindByID(ctx, *session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("load qr user: %w", err)
	}
	metrics.QRSessionsTotal.WithLabelValues("claimed").Inc()
	return user, domain.QRStatusClaimed, nil
}

func (s *QRService) lookup(ctx context.Context, code, pollToken string) (*domain.QRSession, error) {
	if code == "" || pollToken == "" {
		return nil, ErrQRInvalidOrExpired
	}
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQRInvalidOrExpired
		}
		return nil, fmt.Errorf("find qr session: %w", err)
	}
	if subtle.ConstantTimeCompare(session.PollTokenHash, util.HashToken(pollToken)) != 1 {
		return nil, ErrQRInvalidOrExpired
	}
	return session, nil
}
