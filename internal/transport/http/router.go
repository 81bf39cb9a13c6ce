package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/metrics"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/service"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

type RouterConfig struct {
	AllowOrigins []string
	Logger       *zap.Logger
	Sessions     *service.SessionIssuer
}

// NewRouter builds the echo instance with the shared middleware stack:
// recovery, access logging, CORS with credentials, metrics, session cookie
// authentication and the CSRF check.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	allowCredentials := true
	for _, origin := range cfg.AllowOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	e.Use(middleware.Recover())
	e.Use(Authenticate(cfg.Sessions))
	registerLogging(e, logger)

	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderOrigin,
			echo.HeaderXRequestedWith,
			csrfHeaderName,
		},
		AllowCredentials: allowCredentials,
	}))
	e.Use(metrics.Middleware())
	e.Use(CSRF(defaultCSRFBypass, logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, util.OK("ok", nil))
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	return e
}
