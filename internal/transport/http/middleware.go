package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/metrics"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/service"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

const contextClaimsKey = "auth.claims"

// defaultCSRFBypass lists the endpoints reachable before a session exists.
var defaultCSRFBypass = []string{
	"/auth/login",
	"/auth/logout",
	"/auth/verify-otp",
	"/user/register",
	"/auth/generate-qr-code",
	"/auth/claim-qr-code",
	"/auth/qr-code-status",
	"/user/otp-reset-password",
	"/user/reset-password",
}

// Authenticate reads the session cookie and, when it validates, stores the
// claims on the context. Requests without a valid cookie continue anonymously.
func Authenticate(sessions *service.SessionIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sessions == nil {
				return next(c)
			}
			cookie, err := c.Cookie(authCookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			claims, err := sessions.Validate(cookie.Value)
			if err == nil {
				c.Set(contextClaimsKey, claims)
			}
			return next(c)
		}
	}
}

func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentClaims(c); !ok {
				return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
			}
			return next(c)
		}
	}
}

// CSRF requires the X-CSRF-TOKEN cookie and an equal X-CSRF-TOKEN header on
// POST, PUT and DELETE requests outside bypass.
func CSRF(bypass []string, logger *zap.Logger) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(bypass))
	for _, p := range bypass {
		skip[strings.ToLower(p)] = struct{}{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodPost, http.MethodPut, http.MethodDelete:
			default:
				return next(c)
			}
			path := strings.ToLower(req.URL.Path)
			if _, ok := skip[path]; ok {
				return next(c)
			}

			cookie, err := c.Cookie(csrfCookieName)
			if err != nil || cookie.Value == "" {
				metrics.CSRFRejectionsTotal.Inc()
				logger.Warn("csrf cookie missing", zap.String("path", path))
				return c.JSON(http.StatusForbidden, util.Error("CSRF token is missing."))
			}
			header := req.Header.Get(csrfHeaderName)
			if !util.TokensEqual(cookie.Value, header) {
				metrics.CSRFRejectionsTotal.Inc()
				logger.Warn("csrf token mismatch", zap.String("path", path))
				return c.JSON(http.StatusForbidden, util.Error("CSRF token mismatch."))
			}
			return next(c)
		}
	}
}

func CurrentClaims(c echo.Context) (*util.Claims, bool) {
	claims, ok := c.Get(contextClaimsKey).(*util.Claims)
	return claims, ok && claims != nil
}
