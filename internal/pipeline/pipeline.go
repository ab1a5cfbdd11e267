// Package pipeline orchestrates the per-message moderation decision:
// content check, trust exemptions, spam classification, and action
// dispatch. The pipeline holds no per-message state; the membership store
// and the offense counters are the only state shared across events.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/guardbot/antispam/internal/membership"
	"github.com/guardbot/antispam/internal/metrics"
	"github.com/guardbot/antispam/internal/moderation"
	"github.com/guardbot/antispam/internal/protocol"
	"github.com/guardbot/antispam/internal/trust"
)

// Decision outcomes.
const (
	OutcomeAllow  = "allow"
	OutcomeExempt = "exempt"
	OutcomeDelete = "delete"
)

// Allow reasons for observability.
const (
	ReasonNoContent = "no_content"
	ReasonBotSender = "bot_sender"
	ReasonNotNew    = "not_new_member"
	ReasonClean     = "clean"
)

// Decision is the pipeline's verdict for one message. Reason carries the
// exemption reason for exempt outcomes and the matched signature category
// for delete outcomes.
type Decision struct {
	Outcome string
	Reason  string
}

// Deleter dispatches a message deletion to the platform adapter. The
// dispatch itself must be fire-and-forget: a slow platform call must not
// stall the handling of other events.
type Deleter interface {
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

// Banner dispatches a temporary ban request to the platform adapter.
type Banner interface {
	BanSender(ctx context.Context, chatID, userID int64, duration time.Duration) error
}

// OffenseRecorder counts deletions per (chat, user) and reports when the
// escalation threshold is crossed.
type OffenseRecorder interface {
	Record(ctx context.Context, chatID, userID int64) (count int64, banFor time.Duration, shouldBan bool, err error)
}

// Auditor persists decisions for operator review.
type Auditor interface {
	RecordDecision(ctx context.Context, chatID, userID int64, outcome, reason, excerpt string) error
}

// Config holds the pipeline's policy knobs.
type Config struct {
	// NewMembersOnly restricts spam classification to senders inside the
	// recency window. Off by default: every non-exempt human sender is
	// moderated regardless of tenure.
	NewMembersOnly bool

	// RecencyWindow is how long after joining a member counts as new.
	RecencyWindow time.Duration
}

// Pipeline evaluates inbound events and dispatches moderation actions.
// Offenses and Audit are optional; a nil value disables the capability.
type Pipeline struct {
	cfg        Config
	classifier *moderation.Classifier
	members    membership.Store
	trust      *trust.Resolver
	deleter    Deleter
	banner     Banner
	offenses   OffenseRecorder
	audit      Auditor
}

// New creates a pipeline. classifier, members, trust, and deleter are
// required; banner, offenses, and audit may be nil.
func New(cfg Config, classifier *moderation.Classifier, members membership.Store, trustResolver *trust.Resolver, deleter Deleter) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		classifier: classifier,
		members:    members,
		trust:      trustResolver,
		deleter:    deleter,
	}
}

// WithBanner enables ban escalation through the given dispatcher and
// offense recorder.
func (p *Pipeline) WithBanner(banner Banner, offenses OffenseRecorder) *Pipeline {
	p.banner = banner
	p.offenses = offenses
	return p
}

// WithAudit enables decision persistence.
func (p *Pipeline) WithAudit(audit Auditor) *Pipeline {
	p.audit = audit
	return p
}

// ProcessMessage runs the decision states in strict order, terminal at the
// first match: no content, automated sender, trust exemption, spam check.
// Side effects are dispatched only for delete decisions; their failures are
// logged and never propagate to the caller.
func (p *Pipeline) ProcessMessage(ctx context.Context, ev *protocol.MessageEvent) Decision {
	text := ev.Body()
	if text == "" {
		return Decision{Outcome: OutcomeAllow, Reason: ReasonNoContent}
	}

	if ev.SenderIsBot {
		return Decision{Outcome: OutcomeAllow, Reason: ReasonBotSender}
	}

	if exempt, reason := p.trust.IsExempt(ctx, trust.Context{
		ChatID:            ev.ChatID,
		SenderID:          ev.SenderID,
		ForwardFromChatID: ev.ForwardFromChatID,
	}); exempt {
		return p.finish(ctx, ev, Decision{Outcome: OutcomeExempt, Reason: reason}, text)
	}

	if p.cfg.NewMembersOnly {
		recent, err := p.members.IsRecent(ctx, ev.ChatID, ev.SenderID, time.Now(), p.cfg.RecencyWindow)
		if err != nil {
			log.Printf("[pipeline] recency lookup failed chat=%d user=%d: %v",
				ev.ChatID, ev.SenderID, err)
		}
		if !recent {
			return Decision{Outcome: OutcomeAllow, Reason: ReasonNotNew}
		}
	}

	start := time.Now()
	sig, spam := p.classifier.Explain(text)
	metrics.ClassifyDuration.Observe(time.Since(start).Seconds())

	if !spam {
		return Decision{Outcome: OutcomeAllow, Reason: ReasonClean}
	}

	log.Printf("[pipeline] FLAGGED chat=%d user=%d msg=%d category=%s source=%q",
		ev.ChatID, ev.SenderID, ev.MessageID, sig.Category, sig.Source)

	if err := p.deleter.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
		// No retry, no escalation: one failed deletion never affects the
		// handling of other messages.
		log.Printf("[pipeline] delete dispatch failed chat=%d msg=%d: %v",
			ev.ChatID, ev.MessageID, err)
		metrics.DeleteFailures.Inc()
	} else {
		p.recordOffense(ctx, ev.ChatID, ev.SenderID)
	}

	return p.finish(ctx, ev, Decision{Outcome: OutcomeDelete, Reason: sig.Category}, text)
}

// ProcessJoin records join times for every non-automated new member.
func (p *Pipeline) ProcessJoin(ctx context.Context, ev *protocol.MembershipEvent) {
	at := time.Unix(ev.Ts, 0)
	for _, m := range ev.Members {
		if m.IsBot {
			continue
		}
		if err := p.members.RecordJoin(ctx, ev.ChatID, m.ID, at); err != nil {
			log.Printf("[pipeline] record join failed chat=%d user=%d: %v", ev.ChatID, m.ID, err)
			continue
		}
		log.Printf("[pipeline] user %d joined chat %d", m.ID, ev.ChatID)
	}
}

// recordOffense bumps the sender's offense counter and requests a ban once
// the escalation threshold is crossed. Both steps are best-effort.
func (p *Pipeline) recordOffense(ctx context.Context, chatID, userID int64) {
	if p.offenses == nil {
		return
	}

	count, banFor, shouldBan, err := p.offenses.Record(ctx, chatID, userID)
	if err != nil {
		log.Printf("[pipeline] offense record failed chat=%d user=%d: %v", chatID, userID, err)
		return
	}
	if !shouldBan || p.banner == nil {
		return
	}

	log.Printf("[pipeline] offense threshold reached chat=%d user=%d count=%d ban=%v",
		chatID, userID, count, banFor)
	metrics.BansRequested.Inc()

	if err := p.banner.BanSender(ctx, chatID, userID, banFor); err != nil {
		log.Printf("[pipeline] ban dispatch failed chat=%d user=%d: %v", chatID, userID, err)
	}
}

// finish records the decision in the audit log (best-effort) and returns it.
func (p *Pipeline) finish(ctx context.Context, ev *protocol.MessageEvent, d Decision, text string) Decision {
	if p.audit != nil {
		excerpt := ""
		if d.Outcome == OutcomeDelete {
			excerpt = text
		}
		if err := p.audit.RecordDecision(ctx, ev.ChatID, ev.SenderID, d.Outcome, d.Reason, excerpt); err != nil {
			log.Printf("[pipeline] audit write failed chat=%d user=%d: %v", ev.ChatID, ev.SenderID, err)
		}
	}
	return d
}
