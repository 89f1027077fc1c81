package stream

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vivalab/interview-agent/internal/evaluate"
	"github.com/vivalab/interview-agent/internal/history"
	redisclient "github.com/vivalab/interview-agent/internal/redis"
	redisstream "github.com/vivalab/interview-agent/internal/stream/redis"
)

// NewConsumer builds the consumer for the configured provider. Redis Streams
// is the only supported backend today; the switch leaves room for more.
func NewConsumer(
	ctx context.Context,
	provider string,
	cfg *redisstream.StreamConfig,
	evaluator *evaluate.Evaluator,
	results *history.Store,
	logger *zerolog.Logger,
) (Consumer, error) {
	switch provider {
	case "redis", "":
		client, err := redisclient.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, 5)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstream.NewConsumer(
			client,
			cfg.Stream,
			cfg.Group,
			cfg.ConsumerName,
			evaluator,
			results,
			logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported stream provider: %s", provider)
	}
}
