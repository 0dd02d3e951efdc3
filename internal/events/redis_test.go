package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"starconquest-server/internal/shared/config"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisPublisherQueuesLifecycleOnly(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	p := NewRedisPublisher(client, "events", slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.Emit(Event{Type: ConvoyMoved})
	p.Emit(Event{Type: TickCompleted})
	p.Emit(Event{Type: StarOwned})

	if n := len(p.queue); n != 1 {
		t.Errorf("queued %d events, want 1", n)
	}
}

func TestRedisPublisherDropsWhenFull(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	p := NewRedisPublisher(client, "events", slog.New(slog.NewTextHandler(io.Discard, nil)))
	for i := 0; i < publishQueueSize+5; i++ {
		p.Emit(Event{Type: ConvoySpawned})
	}
	if p.Dropped() != 5 {
		t.Errorf("Dropped() = %d, want 5", p.Dropped())
	}
}

func TestRedisPublisherStopsOnCancel(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	p := NewRedisPublisher(client, "events", slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.Emit(Event{Type: StarOwned})

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	cancel()

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RedisConfig
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{
			name:     "host and port",
			cfg:      config.RedisConfig{Host: "cache", Port: "6380", DB: 2, Channel: "events"},
			wantAddr: "cache:6380",
			wantDB:   2,
		},
		{
			name:     "url wins over host",
			cfg:      config.RedisConfig{URL: "redis://:secret@redis.internal:6379/3", Host: "ignored", Port: "1", Channel: "events"},
			wantAddr: "redis.internal:6379",
			wantDB:   3,
		},
		{
			name:    "bad url",
			cfg:     config.RedisConfig{URL: "http://nope", Channel: "events"},
			wantErr: true,
		},
		{
			name:    "missing channel",
			cfg:     config.RedisConfig{Host: "cache", Port: "6379"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := redisOptions(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("redisOptions() error = %v", err)
			}
			if opts.Addr != tt.wantAddr || opts.DB != tt.wantDB {
				t.Errorf("addr %s db %d, want %s db %d", opts.Addr, opts.DB, tt.wantAddr, tt.wantDB)
			}
		})
	}
}

func TestDialRedisDisabled(t *testing.T) {
	p, err := DialRedis(context.Background(), config.RedisConfig{Enabled: false}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil || p != nil {
		t.Fatalf("DialRedis() = %v, %v, want nil publisher", p, err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() on nil publisher = %v", err)
	}
}

func TestDialRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := DialRedis(ctx, config.RedisConfig{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    "1",
		Channel: "events",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Fatal("expected an error for an unreachable server")
	}
}

func TestRedisPublisherPing(t *testing.T) {
	p := NewRedisPublisher(unreachableClient(), "events", slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Ping(ctx); err == nil {
		t.Error("Ping() succeeded against an unreachable server")
	}
}
