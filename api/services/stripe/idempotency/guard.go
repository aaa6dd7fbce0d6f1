package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL covers the provider's webhook retry window.
const DefaultTTL = 72 * time.Hour

const keyPrefix = "billing:webhook:event:"

// Guard remembers processed webhook event ids in Redis.
type Guard struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing client. A non-positive ttl means DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{client: client, ttl: ttl}
}

// NewFromURL connects to redisURL and verifies the connection.
func NewFromURL(ctx context.Context, redisURL string, ttl time.Duration) (*Guard, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return New(client, ttl), nil
}

func key(eventID string) string { return keyPrefix + eventID }

// FirstSeen marks eventID as processed and reports whether this call was the
// first to do so.
func (g *Guard) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, key(eventID), time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("marking event %s: %w", eventID, err)
	}
	return ok, nil
}

// Forget clears the mark so a redelivery of eventID is processed again.
func (g *Guard) Forget(ctx context.Context, eventID string) error {
	if err := g.client.Del(ctx, key(eventID)).Err(); err != nil {
		return fmt.Errorf("clearing event %s: %w", eventID, err)
	}
	return nil
}

func (g *Guard) Close() error {
	return g.client.Close()
}
