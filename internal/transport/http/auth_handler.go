package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/service"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

type AuthHandler struct {
	auth     *service.AuthService
	qr       *service.QRService
	sessions *service.SessionIssuer
	cookies  CookieConfig
	logger   *zap.Logger
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, qr *service.QRService, sessions *service.SessionIssuer, cookies CookieConfig, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &AuthHandler{
		auth:     auth,
		qr:       qr,
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}

	g := e.Group("/auth")
	g.POST("/login", h.login)
	g.POST("/verify-otp", h.verifyOTP)
	g.POST("/logout", h.logout)
	g.GET("/me", h.me, RequireAuth())
	g.POST("/generate-qr-code", h.generateQRCode)
	g.POST("/verify-qr-code", h.verifyQRCode, RequireAuth())
	g.POST("/claim-qr-code", h.claimQRCode)
	g.POST("/qr-code-status", h.qrCodeStatus)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	challenge, err := h.auth.Login(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrOTPDeliveryFailed) && challenge != nil {
			h.logger.Warn("login otp delivery failed", zap.String("user_id", challenge.UserID.String()), zap.Error(err))
			return c.JSON(http.StatusBadGateway, util.ErrorWithData("could not deliver OTP", util.Envelope{
				"userId": challenge.UserID.String(),
			}))
		}
		return writeServiceError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, util.OK("OTP sent", LoginResponse{
		RequiresOTP: true,
		UserID:      challenge.UserID.String(),
		ExpiresAt:   challenge.ExpiresAt,
		OTPCode:     challenge.Code,
	}))
}

func (h *AuthHandler) verifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("userId must be a valid UUID"))
	}

	user, session, err := h.auth.VerifyLoginOTP(c.Request().Context(), userID, req.OTPCode)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	setSessionCookies(c, h.cookies, session)
	return c.JSON(http.StatusOK, util.OK("login successful", toUserResponse(user)))
}

func (h *AuthHandler) logout(c echo.Context) error {
	clearSessionCookies(c, h.cookies)
	return c.JSON(http.StatusOK, util.OK("logged out", nil))
}

func (h *AuthHandler) me(c echo.Context) error {
	claims, _ := CurrentClaims(c)
	user, err := h.auth.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, util.OK("", toUserResponse(user)))
}

func (h *AuthHandler) generateQRCode(c echo.Context) error {
	challenge, err := h.qr.Generate(c.Request().Context())
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, util.OK("QR code generated", challenge))
}

// verifyQRCode is called by the signed-in device after scanning. It binds
// the code to the caller and refreshes the caller's own cookies.
func (h *AuthHandler) verifyQRCode(c echo.Context) error {
	claims, _ := CurrentClaims(c)
	var req QRBindRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.qr.Bind(ctx, req.QRCode, claims.UserID); err != nil {
		return writeServiceError(c, h.logger, err)
	}
	user, err := h.auth.CurrentUser(ctx, claims.UserID)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	session, err := h.sessions.Issue(user)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	setSessionCookies(c, h.cookies, session)
	return c.JSON(http.StatusOK, util.OK("QR code verified", toUserResponse(user)))
}

// claimQRCode long-polls on behalf of the anonymous device. A pending answer
// means the wait elapsed; the client simply polls again.
func (h *AuthHandler) claimQRCode(c echo.Context) error {
	var req QRClaimRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	wait := time.Duration(req.WaitSeconds) * time.Second
	user, status, err := h.qr.Claim(c.Request().Context(), req.QRCode, req.PollToken, wait)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	if status != domain.QRStatusClaimed {
		return c.JSON(http.StatusOK, util.OK("waiting for confirmation", QRClaimResponse{Status: string(status)}))
	}

	session, err := h.sessions.Issue(user)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	setSessionCookies(c, h.cookies, session)
	resp := toUserResponse(user)
	return c.JSON(http.StatusOK, util.OK("login successful", QRClaimResponse{
		Status: string(status),
		User:   &resp,
	}))
}

// qrCodeStatus lets the anonymous device check the handshake without holding
// a long poll open. It never claims the session.
func (h *AuthHandler) qrCodeStatus(c echo.Context) error {
	var req QRStatusRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	status, err := h.qr.Status(c.Request().Context(), req.QRCode, req.PollToken)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, util.OK("", QRClaimResponse{Status: string(status)}))
}
