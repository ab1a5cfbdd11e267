package membership

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestRedisStore connects to a local Redis instance and cleans up test
// keys. Tests using it require a running Redis on localhost:6379 and skip
// otherwise.
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	cleanup := func() {
		iter := client.Scan(ctx, 0, MemberPrefix+"9009*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		client.Close()
	})
	return NewRedisStore(client, 24*time.Hour)
}

func TestRedisStore_RecordAndQuery(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := s.RecordJoin(ctx, 9009, 1, now.Add(-time.Hour)); err != nil {
		t.Fatalf("RecordJoin() error: %v", err)
	}

	recent, err := s.IsRecent(ctx, 9009, 1, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("IsRecent() error: %v", err)
	}
	if !recent {
		t.Error("member who joined an hour ago should be recent")
	}

	recent, err = s.IsRecent(ctx, 9009, 2, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("IsRecent() error: %v", err)
	}
	if recent {
		t.Error("untracked member reported as recent")
	}
}

func TestRedisStore_LastWriterWins(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Now()
	newer := now.Add(-time.Hour)
	older := now.Add(-48 * time.Hour)

	// Apply the newer timestamp first; the older one must not regress it.
	if err := s.RecordJoin(ctx, 9009, 3, newer); err != nil {
		t.Fatalf("RecordJoin() error: %v", err)
	}
	if err := s.RecordJoin(ctx, 9009, 3, older); err != nil {
		t.Fatalf("RecordJoin() error: %v", err)
	}

	recent, err := s.IsRecent(ctx, 9009, 3, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("IsRecent() error: %v", err)
	}
	if !recent {
		t.Error("older out-of-order join overwrote the newer record")
	}
}
