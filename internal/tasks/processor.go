// Package tasks handles notification messages read from the email stream.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"realty/api/internal/notify"
)

// Sender performs the actual delivery of an outgoing email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Processor struct {
	logger zerolog.Logger
	sender Sender
}

type NotificationPayload struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Code     string `json:"code"`
}

func NewProcessor(logger zerolog.Logger) *Processor {
	return &Processor{
		logger: logger,
		sender: logSender{logger: logger},
	}
}

// WithSender replaces the default log-only delivery.
func (p *Processor) WithSender(sender Sender) *Processor {
	p.sender = sender
	return p
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload NotificationPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case notify.KindVerificationCode:
		return p.handleVerificationCode(ctx, msg.ID, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown notification type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *NotificationPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) handleVerificationCode(ctx context.Context, messageID string, payload NotificationPayload) error {
	if payload.Email == "" || payload.Code == "" {
		p.logger.Warn().Str("message_id", messageID).Msg("verification message without recipient or code dropped")
		return nil
	}

	body := fmt.Sprintf("Hello %s,\n\nyour verification code is %s.\n", payload.Username, payload.Code)
	if err := p.sender.Send(ctx, payload.Email, "Confirm your email", body); err != nil {
		return fmt.Errorf("send verification code to user %s: %w", payload.UserID, err)
	}

	p.logger.Info().
		Str("message_id", messageID).
		Str("user_id", payload.UserID).
		Str("email", payload.Email).
		Msg("verification code delivered")
	return nil
}

type logSender struct {
	logger zerolog.Logger
}

func (s logSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Debug().Str("to", to).Str("subject", subject).Str("body", body).Msg("email")
	return nil
}
