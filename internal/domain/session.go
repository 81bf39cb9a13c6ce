package domain

import "time"

// SessionToken is handed to the client as two cookies and never stored
// server-side. Token and CSRFToken share one expiry.
type SessionToken struct {
	Token     string    `json:"-"`
	CSRFToken string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
