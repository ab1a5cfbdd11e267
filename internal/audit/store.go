// Package audit provides PostgreSQL-backed storage for moderation decisions.
// Each row captures the chat, the sender, the outcome, and a short excerpt
// of the offending text (for operator review). Writes are best-effort
// telemetry: a failed insert is logged by the caller and never blocks the
// pipeline.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"
)

// validOutcomes is the set of allowed outcome values, matching the CHECK
// constraint on the moderation_decisions table.
var validOutcomes = map[string]bool{
	"allow":  true,
	"exempt": true,
	"delete": true,
}

// maxExcerptChars bounds the stored text excerpt.
const maxExcerptChars = 200

// Store manages moderation decision rows in PostgreSQL.
type Store struct {
	db *sql.DB
}

// Entry represents a single decision to be persisted.
type Entry struct {
	ChatID  int64
	UserID  int64
	Outcome string
	Reason  string
	Excerpt string // truncated message text; empty for allow outcomes
}

// NewStore creates a new audit store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts a decision row. The outcome is validated against the
// allowed set and the excerpt is truncated before insertion.
func (s *Store) Record(ctx context.Context, entry *Entry) error {
	if !validOutcomes[entry.Outcome] {
		return fmt.Errorf("audit: invalid outcome %q", entry.Outcome)
	}

	const query = `
		INSERT INTO moderation_decisions (chat_id, user_id, outcome, reason, excerpt)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ChatID,
		entry.UserID,
		entry.Outcome,
		entry.Reason,
		truncate(entry.Excerpt, maxExcerptChars),
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// RecordDecision is a convenience wrapper over Record for pipeline wiring.
func (s *Store) RecordDecision(ctx context.Context, chatID, userID int64, outcome, reason, excerpt string) error {
	return s.Record(ctx, &Entry{
		ChatID:  chatID,
		UserID:  userID,
		Outcome: outcome,
		Reason:  reason,
		Excerpt: excerpt,
	})
}

// CountDeleted returns the number of delete decisions recorded for a chat.
// Useful for operator dashboards.
func (s *Store) CountDeleted(ctx context.Context, chatID int64) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM moderation_decisions
		WHERE chat_id = $1 AND outcome = 'delete'`

	var count int
	if err := s.db.QueryRowContext(ctx, query, chatID).Scan(&count); err != nil {
		return 0, fmt.Errorf("audit: count deleted: %w", err)
	}
	return count, nil
}

func truncate(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars])
}
