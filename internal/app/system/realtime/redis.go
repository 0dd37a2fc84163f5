package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis pub/sub channel events travel on.
const DefaultChannel = "clubhub:events"

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
}

// NewRedisClient parses cfg.URL, applies pool settings and verifies the
// connection with a ping.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// envelope tags an event with the publishing process so a relay can skip
// its own messages when they come back from Redis.
type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// RedisRelay publishes events to Redis and feeds events from other
// processes into the local hub. Local subscribers get local events straight
// from the hub without a Redis round trip.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	origin  string
	log     *zap.Logger

	mu      sync.Mutex
	pubsub  *redis.PubSub
	stopped chan struct{}
}

// NewRedisRelay creates a relay over client. An empty channel uses
// DefaultChannel.
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		hub:     hub,
		origin:  uuid.NewString(),
		log:     logger,
	}
}

// Start subscribes to the channel and returns once Redis has confirmed the
// subscription. Forwarding runs in the background until ctx is cancelled
// or Stop is called.
func (r *RedisRelay) Start(ctx context.Context) error {
	ps := r.client.Subscribe(ctx, r.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	r.mu.Lock()
	r.pubsub = ps
	r.stopped = make(chan struct{})
	stopped := r.stopped
	r.mu.Unlock()

	go r.forward(ctx, ps, stopped)
	r.log.Info("realtime redis relay started", zap.String("channel", r.channel))
	return nil
}

func (r *RedisRelay) forward(ctx context.Context, ps *redis.PubSub, stopped chan struct{}) {
	defer close(stopped)
	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = ps.Close()
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.Warn("realtime relay: bad payload", zap.Error(err))
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			if err := r.hub.Publish(ctx, env.Event); err != nil {
				return
			}
		}
	}
}

// Publish delivers ev to local subscribers and to every other process.
func (r *RedisRelay) Publish(ctx context.Context, ev Event) error {
	if err := r.hub.Publish(ctx, ev); err != nil {
		return err
	}
	b, err := json.Marshal(envelope{Origin: r.origin, Event: ev})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, b).Err(); err != nil {
		r.log.Warn("realtime relay: publish failed",
			zap.String("collection", ev.Collection),
			zap.Error(err))
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Stop closes the subscription and waits for forwarding to end.
func (r *RedisRelay) Stop() {
	r.mu.Lock()
	ps, stopped := r.pubsub, r.stopped
	r.pubsub = nil
	r.mu.Unlock()
	if ps == nil {
		return
	}
	_ = ps.Close()
	<-stopped
}
