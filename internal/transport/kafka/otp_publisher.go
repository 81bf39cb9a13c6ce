package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
)

const otpEventType = "auth.otp.issued"

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// OTPEvent is the record a downstream notification worker consumes.
type OTPEvent struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Data       ports.OTPMessage `json:"data"`
}

// OTPPublisher hands codes to a notification worker through Kafka. Records
// are keyed by user id so one user's codes stay ordered.
type OTPPublisher struct {
	writer messageWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewOTPPublisher(brokers []string, topic string, logger *zap.Logger) *OTPPublisher {
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return newOTPPublisher(writer, logger)
}

func newOTPPublisher(writer messageWriter, logger *zap.Logger) *OTPPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OTPPublisher{writer: writer, logger: logger, now: time.Now}
}

func (p *OTPPublisher) SendOTP(ctx context.Context, msg ports.OTPMessage) error {
	event := OTPEvent{
		ID:         uuid.NewString(),
		Type:       otpEventType,
		OccurredAt: p.now().UTC(),
		Data:       msg,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal otp event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(msg.UserID.String()),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(otpEventType)},
			{Key: "purpose", Value: []byte(msg.Purpose)},
		},
	})
	if err != nil {
		p.logger.Error("publish otp event", zap.String("user_id", msg.UserID.String()), zap.Error(err))
		return fmt.Errorf("publish otp event: %w", err)
	}
	p.logger.Debug("otp event published", zap.String("event_id", event.ID), zap.String("user_id", msg.UserID.String()))
	return nil
}

func (p *OTPPublisher) Close() error {
	return p.writer.Close()
}
