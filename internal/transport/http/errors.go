package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/service"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

// bindAndValidate decodes the JSON body into req and runs its validate tags.
// On failure the 400 response has already been written and ok is false.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, util.Error(validationMessage(err)))
	}
	return true, nil
}

// writeServiceError maps service sentinels onto status codes. Unknown errors
// are logged and answered with a generic 500.
func writeServiceError(c echo.Context, logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
		return c.JSON(http.StatusBadRequest, util.Error(msg))
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, util.Error("invalid credentials"))
	case errors.Is(err, service.ErrOTPInvalidOrExpired):
		return c.JSON(http.StatusUnauthorized, util.Error("OTP is invalid or expired"))
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	case errors.Is(err, service.ErrCSRFMismatch):
		return c.JSON(http.StatusForbidden, util.Error("CSRF token mismatch."))
	case errors.Is(err, service.ErrQRInvalidOrExpired):
		return c.JSON(http.StatusNotFound, util.Error("QR code is invalid or expired"))
	case errors.Is(err, service.ErrDuplicateKey):
		return c.JSON(http.StatusConflict, util.Error("phone number or username already in use"))
	case errors.Is(err, service.ErrOTPDeliveryFailed):
		return c.JSON(http.StatusBadGateway, util.Error("could not deliver OTP"))
	default:
		logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, util.Error("internal server error"))
	}
}
