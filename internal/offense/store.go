// Package offense tracks spam deletions per (chat, user) in Redis and
// decides when repeated offenses should escalate to a ban request. Counters
// are simple keys with a TTL window:
//
//	Key:   offense:<chat_id>:<user_id>
//	Value: deletion count
//	TTL:   offense window
package offense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// OffensePrefix is the Redis key prefix for offense counters.
	OffensePrefix = "offense:"

	// Window is how long an offense counter lives. After 24h without new
	// deletions the counter resets to zero.
	Window = 24 * time.Hour

	// BanThreshold is the number of deleted messages within Window that
	// triggers a ban request.
	BanThreshold = 3

	// Escalating ban durations.
	Ban15Min  = 15 * time.Minute // threshold reached
	Ban1Hour  = 1 * time.Hour    // one more offense
	Ban24Hour = 24 * time.Hour   // persistent spammer
)

// Store manages offense counters in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates an offense store using the provided Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func offenseKey(chatID, userID int64) string {
	return fmt.Sprintf("%s%d:%d", OffensePrefix, chatID, userID)
}

// banDuration returns the ban length for a given offense count at or above
// the threshold.
func banDuration(count int64) time.Duration {
	switch {
	case count <= BanThreshold:
		return Ban15Min
	case count == BanThreshold+1:
		return Ban1Hour
	default:
		return Ban24Hour
	}
}

// Record increments the offense counter for (chat, user) and reports whether
// the caller should request a ban, and for how long. The TTL is set only on
// the first increment so the window does not slide.
func (s *Store) Record(ctx context.Context, chatID, userID int64) (count int64, banFor time.Duration, shouldBan bool, err error) {
	key := offenseKey(chatID, userID)

	count, err = s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, false, fmt.Errorf("offense: record incr: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, Window).Err(); err != nil {
			return count, 0, false, fmt.Errorf("offense: record expire: %w", err)
		}
	}

	if count >= BanThreshold {
		return count, banDuration(count), true, nil
	}
	return count, 0, false, nil
}

// Count returns the current offense counter for (chat, user). Returns 0 if
// no offenses are recorded or the counter expired.
func (s *Store) Count(ctx context.Context, chatID, userID int64) (int64, error) {
	val, err := s.client.Get(ctx, offenseKey(chatID, userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("offense: count: %w", err)
	}
	return val, nil
}

// Reset clears the offense counter for (chat, user).
func (s *Store) Reset(ctx context.Context, chatID, userID int64) error {
	return s.client.Del(ctx, offenseKey(chatID, userID)).Err()
}
