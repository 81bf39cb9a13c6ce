package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/service"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

type UserHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func RegisterUsers(e *echo.Echo, auth *service.AuthService, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &UserHandler{auth: auth, logger: logger}

	g := e.Group("/user")
	g.POST("/register", h.register)
	g.POST("/otp-reset-password", h.requestPasswordReset)
	g.POST("/reset-password", h.resetPassword)
	g.PUT("/username", h.changeUsername, RequireAuth())
	g.PUT("/phone", h.changePhone, RequireAuth())
	g.GET("", h.list, RequireAuth())
}

func (h *UserHandler) register(c echo.Context) error {
	var req RegisterRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.auth.Register(c.Request().Context(), service.RegisterInput{
		PhoneNumber:     req.Identifier,
		Username:        req.DisplayName,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Email:           req.Email,
	})
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, util.OK("registration successful", toUserResponse(user)))
}

func (h *UserHandler) requestPasswordReset(c echo.Context) error {
	var req ResetRequestRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	challenge, err := h.auth.RequestPasswordReset(c.Request().Context(), req.Identifier)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	var data any
	if challenge != nil && challenge.Code != "" {
		data = util.Envelope{"otpCode": challenge.Code, "expiresAt": challenge.ExpiresAt}
	}
	return c.JSON(http.StatusOK, util.OK("if the account exists, an OTP has been sent", data))
}

func (h *UserHandler) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	confirm := req.ConfirmPassword
	if confirm == "" {
		confirm = req.NewPassword
	}

	err := h.auth.ConfirmPasswordReset(c.Request().Context(), req.Identifier, req.OTPCode, req.NewPassword, confirm)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, util.OK("password updated", nil))
}

func (h *UserHandler) changeUsername(c echo.Context) error {
	claims, _ := CurrentClaims(c)
	var req ChangeUsernameRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.auth.ChangeUsername(c.Request().Context(), claims.UserID, req.NewUsername)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, util.OK("username updated", toUserResponse(user)))
}

func (h *UserHandler) changePhone(c echo.Context) error {
	claims, _ := CurrentClaims(c)
	var req ChangePhoneRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.auth.ChangePhone(c.Request().Context(), claims.UserID, req.PhoneNumber)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, util.OK("phone number updated", toUserResponse(user)))
}

func (h *UserHandler) list(c echo.Context) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("limit must be a number"))
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("offset must be a number"))
	}

	limit, offset = service.NormalizePage(limit, offset)
	users, err := h.auth.ListUsers(c.Request().Context(), limit, offset)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	resp := UsersListResponse{
		Users: make([]UserResponse, 0, len(users)),
		Meta:  UsersMeta{Limit: limit, Offset: offset, Count: len(users)},
	}
	for i := range users {
		resp.Users = append(resp.Users, toUserResponse(&users[i]))
	}
	return c.JSON(http.StatusOK, util.OK("", resp))
}

func parseQueryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
