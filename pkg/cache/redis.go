package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis stores cache entries in redis, relying on native key expiry
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to the redis server described by url
func NewRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("could not parse redis URL: %w", err)
	}
	return &Redis{client: redis.NewClient(opt), prefix: "wealthtrack:"}, nil
}

// Get implements Store
func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return v, err
}

// Set implements Store
func (s *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

// Delete implements Store
func (s *Redis) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Prune implements Store; redis expires keys itself
func (s *Redis) Prune(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Close implements Store
func (s *Redis) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
