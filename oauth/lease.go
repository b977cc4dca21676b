package oauth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease grants exclusive ownership of a key for the duration of a token
// refresh. The in-process implementation suffices for a single instance; the
// Redis implementation covers multi-instance deployments.
type Lease interface {
	// Acquire blocks until the lease is held or ctx is done. The returned
	// function releases the lease.
	Acquire(ctx context.Context, key string) (func(), error)
}

type localLock struct {
	mu   sync.Mutex
	refs int
}

type localLease struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

// NewLocalLease returns an in-process Lease backed by per-key mutexes.
func NewLocalLease() Lease {
	return &localLease{locks: make(map[string]*localLock)}
}

func (l *localLease) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &localLock{}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()

	release := func() {
		lk.mu.Unlock()

		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}

	return release, nil
}

const (
	defaultLeaseTTL   = 30 * time.Second
	leaseRetryBackoff = 50 * time.Millisecond
)

// Released only when still held by this owner.
var releaseScript = redis.NewScript(
	`if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) end return 0`,
)

type redisLease struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLease returns a Lease backed by a Redis SET NX PX lock with the
// given TTL. A zero ttl uses a 30s default.
func NewRedisLease(client *redis.Client, ttl time.Duration) Lease {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}

	return &redisLease{client: client, ttl: ttl}
}

func (l *redisLease) Acquire(ctx context.Context, key string) (func(), error) {
	owner := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, key, owner, l.ttl).Result()
		if err != nil {
			return nil, err
		}

		if ok {
			release := func() {
				_, _ = releaseScript.Run(context.Background(), l.client, []string{key}, owner).Result()
			}

			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(leaseRetryBackoff):
		}
	}
}
