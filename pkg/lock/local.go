package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker serializes holders of the same key within one process.
// Used for single-instance deployments and tests.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	opts    Options
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker(opts Options) *LocalLocker {
	return &LocalLocker{
		entries: make(map[string]*localEntry),
		opts:    opts.withDefaults(),
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	e := l.ref(key)

	timer := time.NewTimer(l.opts.WaitTimeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return &localLease{owner: l, key: key, entry: e}, nil
	default:
	}

	select {
	case e.sem <- struct{}{}:
		return &localLease{owner: l, key: key, entry: e}, nil
	case <-timer.C:
		l.unref(key)
		return nil, ErrBusy
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) ref(key string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

type localLease struct {
	once  sync.Once
	owner *LocalLocker
	key   string
	entry *localEntry
}

func (r *localLease) Release(context.Context) error {
	r.once.Do(func() {
		<-r.entry.sem
		r.owner.unref(r.key)
	})
	return nil
}
