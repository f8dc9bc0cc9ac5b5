package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay forwards every domain event to a Redis pub/sub channel as JSON.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
}

// NewRedisRelay builds a relay. A nil logger is replaced by a no-op logger.
func NewRedisRelay(client redis.UniversalClient, channel string, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, channel: channel, logger: logger}
}

// Register subscribes the relay to all event types.
func (r *RedisRelay) Register(d Dispatcher) {
	SubscribeAll(d, r.Handle)
}

// Handle publishes one event. Failures are logged and swallowed so a Redis
// outage never fails the request that produced the event.
func (r *RedisRelay) Handle(ctx context.Context, event Event) error {
	if err := r.Forward(ctx, event); err != nil {
		r.logger.Warn("event relay failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}

// Forward publishes one event and reports the error.
func (r *RedisRelay) Forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, string(body)).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}
