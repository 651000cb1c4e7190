package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"muxlive/internal/core/domain"
	"muxlive/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event is the message published on the Redis channel. It never carries the
// stream key.
type Event struct {
	Type       string    `json:"type"`
	InstanceID string    `json:"instance_id"`
	Timestamp  time.Time `json:"timestamp"`
	StreamID   string    `json:"stream_id"`
	Status     string    `json:"status,omitempty"`
	PlaybackID string    `json:"playback_id,omitempty"`
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// EventBus publishes stream lifecycle events to Redis pub/sub.
type EventBus struct {
	client     redisPublisher
	channel    string
	instanceID string
	logger     *zap.SugaredLogger
}

func NewEventBus(client redisPublisher, channel, instanceID string, logger *zap.SugaredLogger) *EventBus {
	return &EventBus{
		client:     client,
		channel:    channel,
		instanceID: instanceID,
		logger:     logger,
	}
}

// PublishStreamEvent publishes an event describing stream.
func (eb *EventBus) PublishStreamEvent(ctx context.Context, eventType string, stream *domain.LiveStream) error {
	event := Event{
		Type:       eventType,
		InstanceID: eb.instanceID,
		Timestamp:  time.Now().UTC(),
		StreamID:   string(stream.ID),
		Status:     string(stream.Status),
		PlaybackID: stream.FirstPlaybackID(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := eb.client.Publish(ctx, eb.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	eb.logger.Debugw("published event",
		"type", event.Type,
		"stream_id", event.StreamID,
		"status", event.Status,
	)
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishStreamEvent(context.Context, string, *domain.LiveStream) error {
	return nil
}

// Publisher is what NewPublisher hands back: an event sink plus its cleanup.
type Publisher interface {
	PublishStreamEvent(ctx context.Context, eventType string, stream *domain.LiveStream) error
	Close() error
}

type busPublisher struct {
	*EventBus
	client *redis.Client
}

func (p busPublisher) Close() error { return p.client.Close() }

type nopCloser struct{ NopPublisher }

func (nopCloser) Close() error { return nil }

// NewPublisher connects to Redis when enabled and falls back to a no-op
// publisher if the connection cannot be established.
func NewPublisher(cfg *config.Config, instanceID string, logger *zap.SugaredLogger) Publisher {
	if !cfg.Redis.Enabled {
		logger.Info("event publishing disabled")
		return nopCloser{}
	}

	client, err := NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, logger)
	if err != nil {
		logger.Warnw("failed to connect to Redis, event publishing disabled", "error", err)
		return nopCloser{}
	}

	logger.Infow("publishing stream events", "channel", cfg.Redis.Channel)
	return busPublisher{
		EventBus: NewEventBus(client, cfg.Redis.Channel, instanceID, logger),
		client:   client,
	}
}

// RedisClient returns the underlying client when p publishes to Redis.
func RedisClient(p Publisher) (*redis.Client, bool) {
	bp, ok := p.(busPublisher)
	if !ok {
		return nil, false
	}
	return bp.client, true
}
