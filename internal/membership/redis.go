package membership

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemberPrefix is the Redis key prefix for join records.
const MemberPrefix = "member:"

// RedisStore is the Redis-backed Store implementation. Join records are
// plain keys holding the join instant as a unix timestamp:
//
//	Key:   member:<chat_id>:<user_id>
//	Value: <unix seconds>
//	TTL:   recency window
//
// The TTL doubles as the eviction policy: once a record can no longer make
// IsRecent true it simply expires.
type RedisStore struct {
	client      *redis.Client
	window      time.Duration
	writeScript *redis.Script
}

// NewRedisStore creates a Redis-backed join tracker. The window sets the
// TTL of join records and should match the recency window the pipeline
// queries with.
func NewRedisStore(client *redis.Client, window time.Duration) *RedisStore {
	return &RedisStore{
		client:      client,
		window:      window,
		writeScript: redis.NewScript(recordJoinLua),
	}
}

func memberKeyFor(chatID, userID int64) string {
	return fmt.Sprintf("%s%d:%d", MemberPrefix, chatID, userID)
}

// RecordJoin stores the join instant, atomically keeping the newest
// timestamp when two joins for the same member race.
func (s *RedisStore) RecordJoin(ctx context.Context, chatID, userID int64, at time.Time) error {
	key := memberKeyFor(chatID, userID)
	err := s.writeScript.Run(ctx, s.client, []string{key},
		at.Unix(), int(s.window.Seconds())).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("membership: record join: %w", err)
	}
	return nil
}

// IsRecent reports whether the member joined within the window.
func (s *RedisStore) IsRecent(ctx context.Context, chatID, userID int64, now time.Time, window time.Duration) (bool, error) {
	val, err := s.client.Get(ctx, memberKeyFor(chatID, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("membership: is recent: %w", err)
	}

	joined, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("membership: bad join record %q: %w", val, err)
	}
	return now.Sub(time.Unix(joined, 0)) < window, nil
}

// recordJoinLua writes the join timestamp only if it is newer than the
// stored one, preserving last-writer-wins under out-of-order delivery.
const recordJoinLua = `
local key = KEYS[1]
local at = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local cur = redis.call('GET', key)
if cur and tonumber(cur) >= at then
    return 0
end

redis.call('SET', key, at, 'EX', ttl)
return 1
`
