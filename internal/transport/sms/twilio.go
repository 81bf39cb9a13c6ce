package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
)

type TwilioConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	// MaxFailures consecutive upstream failures open the breaker for Timeout.
	MaxFailures uint32
	Timeout     time.Duration
}

// errRejected marks a 4xx answer. The provider is up, so it does not count
// against the breaker.
var errRejected = errors.New("sms provider rejected message")

// TwilioSender posts OTP messages to a Twilio compatible Messages endpoint
// through a circuit breaker.
type TwilioSender struct {
	client   *http.Client
	endpoint string
	sid      string
	token    string
	from     string
	cb       *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

func NewTwilioSender(cfg TwilioConfig, client *http.Client, logger *zap.Logger) *TwilioSender {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	st := gobreaker.Settings{
		Name:        "sms",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errRejected)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &TwilioSender{
		client:   client,
		endpoint: fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", base, url.PathEscape(cfg.AccountSID)),
		sid:      cfg.AccountSID,
		token:    cfg.AuthToken,
		from:     cfg.From,
		cb:       gobreaker.NewCircuitBreaker(st),
		logger:   logger,
	}
}

func (s *TwilioSender) SendOTP(ctx context.Context, msg ports.OTPMessage) error {
	if msg.PhoneNumber == "" {
		return errors.New("sms: user has no phone number")
	}
	form := url.Values{}
	form.Set("To", msg.PhoneNumber)
	form.Set("From", s.from)
	form.Set("Body", messageBody(msg))

	_, err := s.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(s.sid, s.token)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

		switch {
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("sms provider status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("%w: status %d", errRejected, resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		s.logger.Warn("sms delivery failed", zap.String("user_id", msg.UserID.String()), zap.Error(err))
		return err
	}
	return nil
}

func messageBody(msg ports.OTPMessage) string {
	minutes := int(time.Until(msg.ExpiresAt).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	action := "sign in"
	if msg.Purpose == domain.OTPPurposePasswordReset {
		action = "reset your password"
	}
	return fmt.Sprintf("Your code to %s is %s. It expires in %d minutes.", action, msg.Code, minutes)
}
