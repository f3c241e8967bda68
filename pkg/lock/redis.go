package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deletes the key only if it still holds our token, so an expired lease
// never releases a lock that has since been taken by someone else.
var releaseScript = redis.NewScript(`
-- KEYS[1] = lock key
-- ARGV[1] = owner token
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX PX lock shared by every API replica.
type RedisLocker struct {
	client   redis.Cmdable
	opts     Options
	newToken func() (string, error)
}

func NewRedisLocker(client redis.Cmdable, opts Options) *RedisLocker {
	return &RedisLocker{
		client:   client,
		opts:     opts.withDefaults(),
		newToken: randomToken,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	token, err := l.newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate lock token: %w", err)
	}

	deadline := time.Now().Add(l.opts.WaitTimeout)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.opts.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return &redisLease{client: l.client, key: key, token: token}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.opts.RetryDelay):
		}
	}
}

type redisLease struct {
	client redis.Scripter
	key    string
	token  string
}

func (r *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", r.key, err)
	}
	return nil
}

// PreloadScripts loads the release script so the first Release avoids the EVAL fallback.
func (l *RedisLocker) PreloadScripts(ctx context.Context) error {
	if err := releaseScript.Load(ctx, l.client).Err(); err != nil {
		return fmt.Errorf("failed to load lock release script: %w", err)
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
