package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"starconquest-server/internal/shared/config"
	"starconquest-server/internal/shared/errors"
)

const (
	publishQueueSize = 1024
	redisDialTimeout = 5 * time.Second
)

// RedisPublisher forwards lifecycle events to a redis channel from its own
// goroutine. When the queue is full events are dropped and counted.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	queue   chan Event
	logger  *slog.Logger

	mu      sync.Mutex
	dropped int
	done    chan struct{}
}

func NewRedisPublisher(client redis.UniversalClient, channel string, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		queue:   make(chan Event, publishQueueSize),
		logger:  logger.With("component", "redis_publisher", "channel", channel),
		done:    make(chan struct{}),
	}
}

// DialRedis connects a publisher to the configured redis server and checks
// that it answers. A disabled config yields a nil publisher and no error.
func DialRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*RedisPublisher, error) {
	log := logger.With("component", "redis_publisher", "operation", "dial")

	if !cfg.Enabled {
		log.Info("Redis disabled, lifecycle events stay in-process")
		return nil, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		log.Error("Failed to ping Redis", "addr", opts.Addr, "error", err)
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info("Publishing lifecycle events to Redis", "addr", opts.Addr, "channel", cfg.Channel)
	return NewRedisPublisher(client, cfg.Channel, logger), nil
}

// redisOptions prefers REDIS_URL over the host settings. One goroutine
// publishes, so the pool stays small.
func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.Channel == "" {
		return nil, errors.Validation("redis events channel is required")
	}

	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, errors.WrapValidation("invalid Redis URL", err)
		}
		return opts, nil
	}

	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     2,
		MinIdleConns: 1,
	}, nil
}

// Ping checks the redis server behind the publisher.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the redis connection. Call it after Run has returned.
func (p *RedisPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.client.Close()
}

func (p *RedisPublisher) Emit(e Event) {
	if !e.Type.Lifecycle() {
		return
	}
	select {
	case p.queue <- e:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
	}
}

func (p *RedisPublisher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Run publishes queued events until ctx is cancelled, then drains what is
// left with a short deadline.
func (p *RedisPublisher) Run(ctx context.Context) {
	defer close(p.done)
	p.logger.Info("Redis event publisher started")

	for {
		select {
		case e := <-p.queue:
			p.publish(ctx, e)
		case <-ctx.Done():
			p.drain()
			p.logger.Info("Redis event publisher stopped", "dropped", p.Dropped())
			return
		}
	}
}

// Done is closed once Run has returned.
func (p *RedisPublisher) Done() <-chan struct{} {
	return p.done
}

func (p *RedisPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case e := <-p.queue:
			p.publish(ctx, e)
		default:
			return
		}
	}
}

func (p *RedisPublisher) publish(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("Failed to encode event", "type", e.Type, "error", err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("Failed to publish event", "type", e.Type, "error", err)
	}
}
