package queue

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const (
	popTimeout   = 5 * time.Second
	errorBackoff = time.Second
)

type Consumer struct {
	client    *redis.Client
	queue     string
	dlqSuffix string
	log       zerolog.Logger
}

func NewConsumer(redisClient *RedisClient, queue, dlqSuffix string, log zerolog.Logger) *Consumer {
	return &Consumer{
		client:    redisClient.Client(),
		queue:     queue,
		dlqSuffix: dlqSuffix,
		log:       log.With().Str("queue", queue).Logger(),
	}
}

func (c *Consumer) DLQName() string {
	return c.queue + c.dlqSuffix
}

// Consume pops messages until ctx is cancelled. A message whose handler
// fails is pushed onto the dead-letter list.
func (c *Consumer) Consume(ctx context.Context, handler func(ctx context.Context, data []byte) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := c.client.BRPop(ctx, popTimeout, c.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // Timeout, continue polling
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error().Err(err).Msg("Failed to consume message")
			c.sleep(ctx, errorBackoff)
			continue
		}

		if len(result) < 2 {
			continue
		}

		message := result[1]
		if err := handler(ctx, []byte(message)); err != nil {
			c.log.Error().Err(err).Msg("Failed to process message")
			c.DeadLetter(ctx, message)
		}
	}
}

// DeadLetter pushes a message onto the dead-letter list.
func (c *Consumer) DeadLetter(ctx context.Context, message string) {
	dlqName := c.DLQName()
	if err := c.client.LPush(context.WithoutCancel(ctx), dlqName, message).Err(); err != nil {
		c.log.Error().Err(err).Str("dlq", dlqName).Msg("Failed to move message to DLQ")
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
