package service

import (
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/metrics"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

// SessionIssuer mints the signed session token and its paired CSRF token.
type SessionIssuer struct {
	jwt *util.JWTManager
}

func NewSessionIssuer(jwt *util.JWTManager) *SessionIssuer {
	return &SessionIssuer{jwt: jwt}
}

func (s *SessionIssuer) Issue(user *domain.User) (*domain.SessionToken, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Username, user.PhoneNumber)
	if err != nil {
		return nil, err
	}
	csrf, err := util.GenerateCSRFToken()
	if err != nil {
		return nil, err
	}
	metrics.SessionsIssuedTotal.Inc()
	return &domain.SessionToken{Token: token, CSRFToken: csrf, ExpiresAt: expiresAt}, nil
}

func (s *SessionIssuer) Validate(token string) (*util.Claims, error) {
	return s.jwt.Parse(token)
}
