// Package membership tracks when users joined which chat and answers
// "is this member still new" queries against a configurable recency window.
// The default store is an in-memory best-effort cache; a Redis-backed store
// provides the swap-in persistence path.
package membership

import (
	"context"
	"log"
	"sync"
	"time"
)

// Store is the join-tracking capability consumed by the pipeline. Both
// methods may be called from many concurrent event handlers.
type Store interface {
	// RecordJoin records that userID joined chatID at the given instant.
	// Updates are last-writer-wins by the supplied timestamp, not by
	// arrival order, so out-of-order event delivery cannot regress a
	// member's join time.
	RecordJoin(ctx context.Context, chatID, userID int64, at time.Time) error

	// IsRecent reports whether a join record exists for (chatID, userID)
	// and now-joinedAt is inside the window. An untracked member is never
	// recent.
	IsRecent(ctx context.Context, chatID, userID int64, now time.Time, window time.Duration) (bool, error)
}

type memberKey struct {
	chatID int64
	userID int64
}

// MemoryStore is the in-memory Store implementation: a mutex-guarded map
// keyed by (chat, user). Entries are superseded on re-join and swept
// periodically once older than the recency window.
type MemoryStore struct {
	mu    sync.RWMutex
	joins map[memberKey]time.Time
}

// NewMemoryStore creates an empty in-memory join tracker.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{joins: make(map[memberKey]time.Time)}
}

// RecordJoin stores the join instant for (chatID, userID), keeping the
// newest timestamp when records race.
func (s *MemoryStore) RecordJoin(ctx context.Context, chatID, userID int64, at time.Time) error {
	k := memberKey{chatID: chatID, userID: userID}

	s.mu.Lock()
	if cur, ok := s.joins[k]; !ok || at.After(cur) {
		s.joins[k] = at
	}
	s.mu.Unlock()
	return nil
}

// IsRecent reports whether the member joined within the window.
func (s *MemoryStore) IsRecent(ctx context.Context, chatID, userID int64, now time.Time, window time.Duration) (bool, error) {
	s.mu.RLock()
	joined, ok := s.joins[memberKey{chatID: chatID, userID: userID}]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	return now.Sub(joined) < window, nil
}

// Len returns the number of tracked members.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.joins)
}

// StartSweep runs a background loop that evicts entries older than the
// window, bounding the map's growth. It returns when ctx is cancelled.
func (s *MemoryStore) StartSweep(ctx context.Context, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[membership] sweep loop stopped")
			return
		case <-ticker.C:
			if removed := s.sweep(time.Now(), window); removed > 0 {
				log.Printf("[membership] sweep: evicted %d stale entries", removed)
			}
		}
	}
}

func (s *MemoryStore) sweep(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, joined := range s.joins {
		if now.Sub(joined) >= window {
			delete(s.joins, k)
			removed++
		}
	}
	return removed
}
