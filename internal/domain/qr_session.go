package domain

import (
	"time"

	"github.com/google/uuid"
)

// QRSession backs the cross-device login handshake. The anonymous device
// holds Code (rendered as a QR image) and a poll token whose hash is stored
// here; the authenticated device binds its user to the code exactly once.
type QRSession struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Code          string     `db:"code" json:"code"`
	PollTokenHash []byte     `db:"poll_token_hash" json:"-"`
	UserID        *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt     time.Time  `db:"expires_at" json:"expires_at"`
	Used          bool       `db:"used" json:"used"`
	BoundAt       *time.Time `db:"bound_at" json:"bound_at,omitempty"`
	Claimed       bool       `db:"claimed" json:"claimed"`
}

func (s *QRSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

type QRStatus string

const (
	QRStatusPending QRStatus = "pending"
	QRStatusBound   QRStatus = "bound"
	QRStatusClaimed QRStatus = "claimed"
	QRStatusExpired QRStatus = "expired"
)

// Status reports where the session sits in its lifecycle at now.
func (s *QRSession) Status(now time.Time) QRStatus {
	switch {
	case s.Claimed:
		return QRStatusClaimed
	case s.Expired(now):
		return QRStatusExpired
	case s.Used:
		return QRStatusBound
	default:
		return QRStatusPending
	}
}
