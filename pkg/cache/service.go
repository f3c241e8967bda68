package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service is a JSON cache over Redis. It only ever holds data that is
// immutable for its TTL, such as screen seat layouts.
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Cache-aside helper
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func(ctx context.Context) (interface{}, error), dest interface{}) error

	Ping(ctx context.Context) error
}

type service struct {
	client redis.Cmdable
	log    *slog.Logger
}

func NewService(client redis.Cmdable, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{client: client, log: log}
}

func (s *service) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

func (s *service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// GetOrSet serves dest from cache, falling back to fetcher on a miss.
// Cache failures degrade to fetching; they never fail the read.
func (s *service) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func(ctx context.Context) (interface{}, error), dest interface{}) error {
	err := s.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.log.WarnContext(ctx, "cache read failed, fetching from source", slog.String("key", key), slog.String("error", err.Error()))
	}

	data, err := fetcher(ctx)
	if err != nil {
		return err
	}

	if setErr := s.Set(ctx, key, data, ttl); setErr != nil {
		s.log.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", setErr.Error()))
	}

	// Round-trip so dest is populated exactly as a cache hit would populate it
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal fetched data error: %w", err)
	}
	return json.Unmarshal(raw, dest)
}

func (s *service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var ErrCacheMiss = errors.New("cache miss")
