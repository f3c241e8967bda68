package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cineplex/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RateLimitType string

const (
	RateLimitTypeDefault  RateLimitType = "default"
	RateLimitTypePublic   RateLimitType = "public"
	RateLimitTypeAuth     RateLimitType = "auth"
	RateLimitTypeBooking  RateLimitType = "booking"
	RateLimitTypeAdmin    RateLimitType = "admin"
	RateLimitTypeHealth   RateLimitType = "health"
	RateLimitTypeCallback RateLimitType = "callback"
)

type Config struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	AuthRequests    int           `json:"auth_requests"`
	BookingRequests int           `json:"booking_requests"`
	AdminRequests   int           `json:"admin_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// Result represents rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// Sliding window over a sorted set scored in milliseconds.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

local current_count = redis.call('ZCARD', key)
if current_count >= limit then
	redis.call('PEXPIRE', key, window_ms)
	return {0, 0}
end

redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window_ms)
return {1, limit - current_count - 1}
`)

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client    redis.Cmdable
	config    *Config
	whitelist map[string]struct{}
	now       func() time.Time
	newMember func() string
}

func NewRateLimiter(client redis.Cmdable, config *Config) *RateLimiter {
	wl := make(map[string]struct{}, len(config.WhitelistedIPs))
	for _, ip := range config.WhitelistedIPs {
		wl[ip] = struct{}{}
	}
	return &RateLimiter{client: client, config: config, whitelist: wl, now: time.Now, newMember: uuid.NewString}
}

// IsAllowed checks and records one request from clientIP.
func (r *RateLimiter) IsAllowed(ctx context.Context, clientIP string, limitType RateLimitType) (*Result, error) {
	limit := r.getLimit(limitType)
	now := r.now()

	if !r.config.Enabled || limit <= 0 || r.isWhitelisted(clientIP) {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: now.Add(r.config.WindowDuration).Unix(),
		}, nil
	}

	key := constants.BuildRateLimitKey(string(limitType), clientIP)
	windowStart := now.Add(-r.config.WindowDuration)

	res, err := slidingWindowScript.Run(ctx, r.client, []string{key},
		windowStart.UnixMilli(),
		now.UnixMilli(),
		limit,
		r.config.WindowDuration.Milliseconds(),
		r.newMember(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("redis eval failed: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	allowed, _ := strconv.Atoi(fmt.Sprint(values[0]))
	remaining, _ := strconv.Atoi(fmt.Sprint(values[1]))

	return &Result{
		Allowed:   allowed == 1,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: now.Add(r.config.WindowDuration).Unix(),
	}, nil
}

// Callbacks and health checks are unlimited; providers retry on 429 and
// that would only delay reconciliation.
func (r *RateLimiter) getLimit(limitType RateLimitType) int {
	switch limitType {
	case RateLimitTypeCallback, RateLimitTypeHealth:
		return 0
	case RateLimitTypePublic:
		return r.config.PublicRequests
	case RateLimitTypeAuth:
		return r.config.AuthRequests
	case RateLimitTypeBooking:
		return r.config.BookingRequests
	case RateLimitTypeAdmin:
		return r.config.AdminRequests
	default:
		return r.config.DefaultRequests
	}
}

func (r *RateLimiter) isWhitelisted(ip string) bool {
	_, ok := r.whitelist[ip]
	return ok
}
