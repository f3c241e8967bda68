// Package lock provides the per-key serialization primitive used around
// showtime inventory mutations. Acquisition waits a bounded time and fails
// with ErrBusy instead of blocking indefinitely.
package lock

import (
	"context"
	"errors"
	"time"
)

var ErrBusy = errors.New("lock: wait timeout exceeded")

type Locker interface {
	Acquire(ctx context.Context, key string) (Lease, error)
}

type Lease interface {
	Release(ctx context.Context) error
}

type Options struct {
	// TTL bounds how long a crashed holder can keep a key locked.
	TTL         time.Duration
	WaitTimeout time.Duration
	RetryDelay  time.Duration
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 10 * time.Second
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = 3 * time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 25 * time.Millisecond
	}
	return o
}

// ShowtimeKey is the lock key guarding one showtime's inventory.
func ShowtimeKey(showtimeID string) string {
	return "cineplex:lock:showtime:" + showtimeID
}
