// Package notify delivers outgoing user notifications. The API side only
// enqueues; cmd/worker drains the stream and performs delivery.
package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"realty/api/internal/models"
)

const KindVerificationCode = "verification_code"

// StreamNotifier appends notifications to a redis stream.
type StreamNotifier struct {
	client *redis.Client
	stream string
}

func NewStreamNotifier(client *redis.Client, stream string) *StreamNotifier {
	return &StreamNotifier{client: client, stream: stream}
}

func (n *StreamNotifier) SendVerificationCode(ctx context.Context, user models.User, code string) error {
	_, err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]any{
			"type":     KindVerificationCode,
			"userId":   strconv.FormatInt(user.ID, 10),
			"email":    user.Email,
			"username": user.Username,
			"code":     code,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", n.stream, err)
	}
	return nil
}

// LogNotifier writes notifications to the log. Used when redis is not configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendVerificationCode(_ context.Context, user models.User, code string) error {
	n.log.Info().
		Int64("user_id", user.ID).
		Str("email", user.Email).
		Str("code", code).
		Msg("verification code issued")
	return nil
}
