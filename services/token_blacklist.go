package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"main/config"

	"github.com/redis/go-redis/v9"
)

// Blacklist invalidates refresh tokens ahead of their natural expiry. Logout
// feeds it; the auth gate consults it.
type Blacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) bool
}

// RedisBlacklist is a Redis-backed blacklist. Entries carry the remaining
// token lifetime as TTL so Redis expires them on its own.
type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(cfg config.RedisConfig) (*RedisBlacklist, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBlacklist{client: client}, nil
}

func blacklistKey(token string) string {
	return "blacklist:refresh:" + token
}

func (b *RedisBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired, nothing to invalidate.
		return nil
	}
	if err := b.client.Set(ctx, blacklistKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) Contains(ctx context.Context, token string) bool {
	n, err := b.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		log.Printf("Error checking token blacklist: %v", err)
		return false
	}
	return n > 0
}

func (b *RedisBlacklist) Close() error {
	return b.client.Close()
}
