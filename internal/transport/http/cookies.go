package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
)

const (
	authCookieName = "auth-token"
	csrfCookieName = "X-CSRF-TOKEN"
	csrfHeaderName = "X-CSRF-TOKEN"
)

// CookieConfig controls the flags of the session cookies. Production serves
// a cross-site frontend, so it needs Secure plus SameSite=None.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
}

func NewCookieConfig(production bool) CookieConfig {
	if production {
		return CookieConfig{Secure: true, SameSite: http.SameSiteNoneMode}
	}
	return CookieConfig{Secure: false, SameSite: http.SameSiteLaxMode}
}

// setSessionCookies writes the bearer token (HttpOnly) and the CSRF token
// (readable by scripts so they can echo it in the header). Both share the
// session expiry.
func setSessionCookies(c echo.Context, cfg CookieConfig, session *domain.SessionToken) {
	c.SetCookie(&http.Cookie{
		Name:     authCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    session.CSRFToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: false,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

func clearSessionCookies(c echo.Context, cfg CookieConfig) {
	for _, name := range []string{authCookieName, csrfCookieName} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: name == authCookieName,
			Secure:   cfg.Secure,
			SameSite: cfg.SameSite,
		})
	}
}
