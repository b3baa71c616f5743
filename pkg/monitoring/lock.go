package monitoring

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker serializes work per key. The returned release func must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker is an in-process keyed mutex that honours context cancellation.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, s)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.drop(key, s)
		})
	}, nil
}

func (l *LocalLocker) drop(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// ErrLockTimeout is returned when a distributed lock cannot be acquired
// before the context ends.
var ErrLockTimeout = errors.New("monitoring: lock not acquired")

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisLocker is a single-instance Redis lock (SET NX PX with a random
// token). The TTL bounds how long a crashed holder can block a user.
type RedisLocker struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

type RedisOption func(*RedisLocker)

func WithLockTTL(d time.Duration) RedisOption {
	return func(r *RedisLocker) {
		if d > 0 {
			r.ttl = d
		}
	}
}

func WithLockPrefix(p string) RedisOption { return func(r *RedisLocker) { r.prefix = p } }

func NewRedisLocker(rdb redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	r := &RedisLocker{rdb: rdb, prefix: "wellagent:lock:", ttl: 30 * time.Second, retry: 25 * time.Millisecond}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	k := r.prefix + key
	wait := r.retry
	for {
		ok, err := r.rdb.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockTimeout, ctx.Err())
		case <-time.After(wait):
		}
		if wait < time.Second {
			wait *= 2
		}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's context may already be done; release on a fresh one.
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(rctx, r.rdb, []string{k}, token).Err()
		})
	}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
