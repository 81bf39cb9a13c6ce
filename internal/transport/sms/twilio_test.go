package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
)

func testMessage() ports.OTPMessage {
	return ports.OTPMessage{
		UserID:      uuid.New(),
		PhoneNumber: "0912345678",
		Code:        "042917",
		Purpose:     domain.OTPPurposeLogin,
		ExpiresAt:   time.Now().Add(5 * time.Minute),
	}
}

func TestTwilioSenderPostsForm(t *testing.T) {
	var gotPath, gotUser, gotPass, gotTo, gotFrom, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTo, gotFrom, gotBody = r.PostForm.Get("To"), r.PostForm.Get("From"), r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sender := NewTwilioSender(TwilioConfig{BaseURL: srv.URL + "/", AccountSID: "AC123", AuthToken: "tok", From: "+1555"}, srv.Client(), nil)
	require.NoError(t, sender.SendOTP(context.Background(), testMessage()))

	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "tok", gotPass)
	assert.Equal(t, "0912345678", gotTo)
	assert.Equal(t, "+1555", gotFrom)
	assert.Contains(t, gotBody, "042917")
	assert.Contains(t, gotBody, "5 minutes")
}

func TestTwilioSenderRequiresPhone(t *testing.T) {
	sender := NewTwilioSender(TwilioConfig{BaseURL: "http://127.0.0.1:1"}, nil, nil)
	msg := testMessage()
	msg.PhoneNumber = ""
	assert.Error(t, sender.SendOTP(context.Background(), msg))
}

func TestTwilioSenderBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender := NewTwilioSender(TwilioConfig{BaseURL: srv.URL, AccountSID: "AC1", MaxFailures: 2, Timeout: time.Minute}, srv.Client(), nil)
	for i := 0; i < 2; i++ {
		assert.Error(t, sender.SendOTP(context.Background(), testMessage()))
	}
	err := sender.SendOTP(context.Background(), testMessage())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTwilioSenderClientErrorsKeepBreakerClosed(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewTwilioSender(TwilioConfig{BaseURL: srv.URL, AccountSID: "AC1", MaxFailures: 1}, srv.Client(), nil)
	for i := 0; i < 3; i++ {
		err := sender.SendOTP(context.Background(), testMessage())
		assert.ErrorIs(t, err, errRejected)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestMessageBodyForReset(t *testing.T) {
	msg := testMessage()
	msg.Purpose = domain.OTPPurposePasswordReset
	assert.Contains(t, messageBody(msg), "reset your password")
}
