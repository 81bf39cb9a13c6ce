package http

import (
	"time"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
)

// LoginRequest carries the first factor. Identifier is a phone number or a
// username.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=50" example:"0912345678"`
	Password   string `json:"password" validate:"required,max=128" example:"secret1"`
}

// LoginResponse tells the client a second factor is pending. OTPCode is only
// present in development deployments.
type LoginResponse struct {
	RequiresOTP bool      `json:"requiresOtp" example:"true"`
	UserID      string    `json:"userId" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	ExpiresAt   time.Time `json:"expiresAt" example:"2024-01-01T12:05:00Z"`
	OTPCode     string    `json:"otpCode,omitempty" example:"042917"`
}

type VerifyOTPRequest struct {
	UserID  string `json:"userId" validate:"required,uuid"`
	OTPCode string `json:"otpCode" validate:"required,numeric,max=10" example:"042917"`
}

type RegisterRequest struct {
	Identifier      string  `json:"identifier" validate:"required,numeric" example:"0912345678"`
	DisplayName     string  `json:"displayName" validate:"required,max=50" example:"alice_01"`
	Password        string  `json:"password" validate:"required,max=128"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required,max=128"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email" example:"alice@example.com"`
}

type QRBindRequest struct {
	QRCode string `json:"qrCode" validate:"required,max=128"`
}

type QRClaimRequest struct {
	QRCode      string `json:"qrCode" validate:"required,max=128"`
	PollToken   string `json:"pollToken" validate:"required,max=128"`
	WaitSeconds int    `json:"waitSeconds" validate:"min=0" example:"25"`
}

type QRStatusRequest struct {
	QRCode    string `json:"qrCode" validate:"required,max=128"`
	PollToken string `json:"pollToken" validate:"required,max=128"`
}

// QRClaimResponse reports the handshake state. User is set once claimed.
type QRClaimResponse struct {
	Status string        `json:"status" example:"pending"`
	User   *UserResponse `json:"user,omitempty"`
}

type ResetRequestRequest struct {
	Identifier string `json:"identifier" validate:"required,max=50"`
}

type ResetPasswordRequest struct {
	Identifier      string `json:"identifier" validate:"required,max=50"`
	OTPCode         string `json:"otpCode" validate:"required,numeric,max=10"`
	NewPassword     string `json:"newPassword" validate:"required,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"max=128"`
}

type ChangeUsernameRequest struct {
	NewUsername string `json:"newUsername" validate:"required,max=50"`
}

type ChangePhoneRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,numeric"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          string  `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Username    string  `json:"username" example:"alice_01"`
	PhoneNumber string  `json:"phoneNumber" example:"0912345678"`
	Email       *string `json:"email,omitempty"`
}

// UsersMeta describes pagination metadata for user listings.
type UsersMeta struct {
	Limit  int `json:"limit" example:"20"`
	Offset int `json:"offset" example:"0"`
	Count  int `json:"count" example:"2"`
}

type UsersListResponse struct {
	Users []UserResponse `json:"users"`
	Meta  UsersMeta      `json:"meta"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID.String(),
		Username:    user.Username,
		PhoneNumber: user.Phone(),
		Email:       user.Email,
	}
}
