package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ipagency/backend/internal/infrastructure/config"
)

// RedisNumberAllocator allocates daily write-off sequence numbers through a
// Redis counter. This is suitable for distributed deployments where multiple
// instances must never hand out the same sequence.
type RedisNumberAllocator struct {
	client    *redis.Client
	prefix    string
	keyPrefix string
}

// NewRedisClient creates and pings a Redis client from configuration
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisNumberAllocator creates an allocator with an existing Redis client.
// prefix is the document number prefix, e.g. "WO".
func NewRedisNumberAllocator(client *redis.Client, prefix string) *RedisNumberAllocator {
	return &RedisNumberAllocator{
		client:    client,
		prefix:    prefix,
		keyPrefix: "finance:writeoff:seq:",
	}
}

// Next allocates the next write-off number for the given date,
// e.g. "WO-20260101-0001". The daily counter key expires after 48 hours;
// it only needs to outlive the day it counts.
func (a *RedisNumberAllocator) Next(ctx context.Context, date time.Time) (string, error) {
	day := date.Format("20060102")
	key := a.keyPrefix + day

	seq, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to allocate write-off sequence: %w", err)
	}
	if seq == 1 {
		a.client.Expire(ctx, key, 48*time.Hour)
	}

	return fmt.Sprintf("%s-%s-%04d", a.prefix, day, seq), nil
}
