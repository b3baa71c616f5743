//go:build integration

package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisLocker_MutualExclusion(t *testing.T) {
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("skip: cannot start redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })
	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLocker(rdb, WithLockTTL(5*time.Second))
	release, err := l.Lock(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(short, "u1"); err == nil {
		t.Fatal("second holder acquired a held lock")
	}
	release()
	release2, err := l.Lock(ctx, "u1")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	release2()
}
