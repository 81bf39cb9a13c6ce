package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestOTPPublisherWritesKeyedEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newOTPPublisher(w, nil)
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	msg := ports.OTPMessage{
		UserID:      uuid.New(),
		PhoneNumber: "0912345678",
		Code:        "042917",
		Purpose:     domain.OTPPurposeLogin,
		ExpiresAt:   fixed.Add(5 * time.Minute),
	}
	require.NoError(t, p.SendOTP(context.Background(), msg))
	require.Len(t, w.msgs, 1)

	record := w.msgs[0]
	assert.Equal(t, msg.UserID.String(), string(record.Key))

	var event OTPEvent
	require.NoError(t, json.Unmarshal(record.Value, &event))
	assert.Equal(t, otpEventType, event.Type)
	assert.True(t, event.OccurredAt.Equal(fixed))
	assert.Equal(t, msg.Code, event.Data.Code)
	assert.Equal(t, msg.UserID, event.Data.UserID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestOTPPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := newOTPPublisher(&fakeWriter{err: boom}, nil)
	err := p.SendOTP(context.Background(), ports.OTPMessage{UserID: uuid.New(), Code: "1"})
	assert.ErrorIs(t, err, boom)
}
