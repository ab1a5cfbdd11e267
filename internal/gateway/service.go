// Package gateway is the platform adapter service. It long-polls the
// Telegram Bot API for updates, converts them into protocol events on NATS,
// executes moderation actions requested by the moderator, and answers admin
// role queries over request-reply.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/guardbot/antispam/internal/messaging"
	"github.com/guardbot/antispam/internal/protocol"
	"github.com/guardbot/antispam/internal/ratelimit"
	"github.com/guardbot/antispam/internal/telegram"
	"github.com/guardbot/antispam/internal/trust"
)

const (
	pollTimeoutSec = 30
	pollRetryWait  = 3 * time.Second
)

// Service runs the gateway loops.
type Service struct {
	tg      *telegram.Client
	nats    *messaging.Client
	limiter *ratelimit.Limiter // nil disables notice throttling
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewService creates a gateway service. limiter may be nil.
func NewService(tg *telegram.Client, nats *messaging.Client, limiter *ratelimit.Limiter) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		tg:      tg,
		nats:    nats,
		limiter: limiter,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start subscribes to action subjects, registers the role responder, and
// launches the update polling loop.
func (s *Service) Start() error {
	if err := s.nats.SubscribeDeletes(s.handleDelete); err != nil {
		return err
	}
	if err := s.nats.SubscribeBans(s.handleBan); err != nil {
		return err
	}
	if err := s.nats.SubscribeNotifies(s.handleNotify); err != nil {
		return err
	}
	if err := s.nats.SubscribeRoleQueries(s.handleRoleQuery); err != nil {
		return err
	}

	go s.pollLoop()
	return nil
}

// Stop cancels the polling loop.
func (s *Service) Stop() {
	s.cancel()
}

// pollLoop fetches update batches and publishes the resulting events.
// Errors back off briefly and retry; the loop exits only on Stop.
func (s *Service) pollLoop() {
	var offset int64

	log.Printf("[gateway] update polling started")
	for {
		select {
		case <-s.ctx.Done():
			log.Printf("[gateway] update polling stopped")
			return
		default:
		}

		updates, err := s.tg.GetUpdates(s.ctx, offset, pollTimeoutSec)
		if err != nil {
			if s.ctx.Err() != nil {
				continue
			}
			log.Printf("[gateway] getUpdates failed: %v (retrying in %v)", err, pollRetryWait)
			time.Sleep(pollRetryWait)
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			s.publishUpdate(u)
		}
	}
}

// publishUpdate maps one update to a protocol event and publishes it.
func (s *Service) publishUpdate(u telegram.Update) {
	ev, ok := MapUpdate(u)
	if !ok {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[gateway] marshal event: %v", err)
		return
	}
	if err := s.nats.PublishEvent(data); err != nil {
		log.Printf("[gateway] publish event: %v", err)
	}
}

// MapUpdate converts a Bot API update into a protocol event. It returns
// false for updates the moderator has no use for (no message, no sender).
func MapUpdate(u telegram.Update) (interface{}, bool) {
	msg := u.Message
	if msg == nil || msg.From == nil {
		return nil, false
	}

	if len(msg.NewChatMembers) > 0 {
		ev := protocol.MembershipEvent{
			ChatID: msg.Chat.ID,
			Ts:     msg.Date,
		}
		for _, m := range msg.NewChatMembers {
			ev.Members = append(ev.Members, protocol.Member{ID: m.ID, IsBot: m.IsBot})
		}
		return protocol.NewMembershipEvent(ev), true
	}

	ev := protocol.MessageEvent{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.MessageID,
		SenderID:    msg.From.ID,
		SenderIsBot: msg.From.IsBot,
		Text:        msg.Text,
		Caption:     msg.Caption,
		Ts:          msg.Date,
	}
	if msg.ForwardFromChat != nil {
		ev.ForwardFromChatID = msg.ForwardFromChat.ID
	}
	return protocol.NewMessageEvent(ev), true
}

func (s *Service) handleDelete(action protocol.DeleteAction) {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	if err := s.tg.DeleteMessage(ctx, action.ChatID, action.MessageID); err != nil {
		// Already-gone messages and missing permissions are logged only;
		// the moderator never retries.
		log.Printf("[gateway] delete failed chat=%d msg=%d: %v",
			action.ChatID, action.MessageID, err)
		return
	}
	log.Printf("[gateway] deleted spam message chat=%d msg=%d", action.ChatID, action.MessageID)
}

func (s *Service) handleBan(action protocol.BanAction) {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	until := time.Now().Add(time.Duration(action.Duration) * time.Second)
	if err := s.tg.BanChatMember(ctx, action.ChatID, action.UserID, until); err != nil {
		log.Printf("[gateway] ban failed chat=%d user=%d: %v", action.ChatID, action.UserID, err)
		return
	}
	log.Printf("[gateway] banned user chat=%d user=%d until=%v", action.ChatID, action.UserID, until)
}

func (s *Service) handleNotify(action protocol.NotifyAction) {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	if s.limiter != nil {
		allowed, _ := s.limiter.Allow(ctx, fmt.Sprintf("%d", action.ChatID), ratelimit.RuleNotify)
		if !allowed {
			log.Printf("[gateway] notice suppressed chat=%d (rate limited)", action.ChatID)
			return
		}
	}

	if err := s.tg.SendMessage(ctx, action.ChatID, action.Text); err != nil {
		log.Printf("[gateway] notice failed chat=%d: %v", action.ChatID, err)
	}
}

// handleRoleQuery resolves a member's role via getChatMember. Errors flow
// back to the moderator, which treats them as "not exempt".
func (s *Service) handleRoleQuery(ctx context.Context, req protocol.RoleRequest) (string, error) {
	member, err := s.tg.GetChatMember(ctx, req.ChatID, req.UserID)
	if err != nil {
		return "", err
	}
	switch member.Status {
	case "creator":
		return trust.RoleCreator, nil
	case "administrator":
		return trust.RoleAdministrator, nil
	default:
		return trust.RoleMember, nil
	}
}
