package notify

import (
	"context"
	"encoding/json"
	"time"

	"deck-mirror/feature/mirror/schedule"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds configuration for the Redis due-event publisher. An empty
// Addr disables the feature.
type Config struct {
	// Addr is the Redis host:port. Empty disables publishing.
	Addr string `mapstructure:"addr" default:""`
	// Password is the Redis auth password, if any.
	Password string `mapstructure:"password" default:""`
	// DB is the Redis database number.
	DB int `mapstructure:"db" default:"0"`
	// Channel is the pub/sub channel due events are published to.
	Channel string `mapstructure:"channel" default:"deck:due"`
}

// Publisher forwards fired due events to a Redis pub/sub channel so other
// processes can react to deadlines without polling this service.
type Publisher struct {
	rdb     *redis.Client
	channel string
	log     *zap.Logger
}

// NewPublisher creates a publisher for the given Redis configuration.
func NewPublisher(cfg Config, log *zap.Logger) *Publisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Publisher{rdb: rdb, channel: cfg.Channel, log: log}
}

// Publish sends the event as JSON to the configured channel. It matches
// schedule.Callback so it can be subscribed directly. Publish failures are
// logged, never propagated; the scheduler must not stall on Redis.
func (p *Publisher) Publish(ev schedule.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("due event encoding failed", zap.Error(err))
		return
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.log.Error("due event publish failed",
			zap.Int64("card_id", ev.CardID),
			zap.String("channel", p.channel),
			zap.Error(err),
		)
		return
	}

	p.log.Info("due event published",
		zap.Int64("card_id", ev.CardID),
		zap.String("channel", p.channel),
	)
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
