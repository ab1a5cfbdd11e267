// Package trust decides whether a sender is exempt from moderation:
// the bot itself, static owners, the allow-listed broadcast channel, and
// chat administrators bypass spam classification entirely.
package trust

import (
	"context"
	"log"

	"github.com/guardbot/antispam/internal/metrics"
)

// Chat member roles as reported by the platform.
const (
	RoleCreator       = "creator"
	RoleAdministrator = "administrator"
	RoleMember        = "member"
)

// Exemption reasons returned by IsExempt.
const (
	ReasonSelf    = "self"
	ReasonOwner   = "owner"
	ReasonChannel = "channel"
	ReasonAdmin   = "admin"
)

// RoleQuerier resolves a member's role in a chat via the platform adapter.
// Implementations perform network I/O and may fail; a failed lookup is
// treated as "not exempt" by the resolver.
type RoleQuerier interface {
	Role(ctx context.Context, chatID, userID int64) (string, error)
}

// Config holds the static trust inputs consumed at startup.
type Config struct {
	BotID     int64   // the bot's own platform account
	OwnerIDs  []int64 // static owner allow-list
	ChannelID int64   // allow-listed broadcast channel; 0 disables the check
}

// Context carries the per-message facts the resolver evaluates. It is
// constructed fresh for every message and never cached.
type Context struct {
	ChatID            int64
	SenderID          int64
	ForwardFromChatID int64 // 0 when the message is not forwarded
}

// Resolver evaluates trust exemptions in a fixed order.
type Resolver struct {
	cfg    Config
	owners map[int64]bool
	roles  RoleQuerier
}

// NewResolver creates a resolver from static configuration and a role-query
// capability.
func NewResolver(cfg Config, roles RoleQuerier) *Resolver {
	owners := make(map[int64]bool, len(cfg.OwnerIDs))
	for _, id := range cfg.OwnerIDs {
		owners[id] = true
	}
	return &Resolver{cfg: cfg, owners: owners, roles: roles}
}

// IsExempt reports whether the sender bypasses spam classification, and the
// reason when it does. Checks run in order and short-circuit on first match:
// self, owner, allow-listed channel, chat admin. The admin lookup is the
// only check with network latency; when it errors the sender is treated as
// not exempt (fail-closed) and the failure is logged.
func (r *Resolver) IsExempt(ctx context.Context, tc Context) (bool, string) {
	if tc.SenderID == r.cfg.BotID {
		return true, ReasonSelf
	}

	if r.owners[tc.SenderID] {
		return true, ReasonOwner
	}

	if r.cfg.ChannelID != 0 &&
		(tc.SenderID == r.cfg.ChannelID || tc.ForwardFromChatID == r.cfg.ChannelID) {
		return true, ReasonChannel
	}

	role, err := r.roles.Role(ctx, tc.ChatID, tc.SenderID)
	if err != nil {
		log.Printf("[trust] role query failed chat=%d user=%d: %v (treating as not exempt)",
			tc.ChatID, tc.SenderID, err)
		metrics.RoleQueryFailures.Inc()
		return false, ""
	}
	if role == RoleCreator || role == RoleAdministrator {
		return true, ReasonAdmin
	}

	return false, ""
}
