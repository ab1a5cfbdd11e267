// Package protocol defines the event and action payloads exchanged between
// the gateway and the moderator over NATS. All payloads are serialized as
// JSON and follow a consistent envelope format with a type discriminator.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Event types published by the gateway.
const (
	TypeMessage    = "message"
	TypeMembership = "membership"
)

// ---------------------------------------------------------------------------
// Envelope: used for initial JSON parsing to extract the type discriminator.
// ---------------------------------------------------------------------------

// Envelope holds the event type and the raw JSON payload for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the full raw bytes and extracts only the "type"
// field so that the rest of the payload can be decoded later into the
// appropriate concrete struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------------
// Inbound events (gateway -> moderator)
// ---------------------------------------------------------------------------

// MessageEvent is one chat message to be moderated.
type MessageEvent struct {
	Type              string `json:"type"`
	EventID           string `json:"event_id"`
	ChatID            int64  `json:"chat_id"`
	MessageID         int64  `json:"message_id"`
	SenderID          int64  `json:"sender_id"`
	SenderIsBot       bool   `json:"sender_is_bot"`
	Text              string `json:"text,omitempty"`
	Caption           string `json:"caption,omitempty"`
	ForwardFromChatID int64  `json:"forward_from_chat_id,omitempty"`
	Ts                int64  `json:"ts"`
}

// Body returns the moderatable text of the message: the text when present,
// otherwise the media caption.
func (m *MessageEvent) Body() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// Member is one user in a membership change.
type Member struct {
	ID    int64 `json:"id"`
	IsBot bool  `json:"is_bot"`
}

// MembershipEvent reports users joining a chat.
type MembershipEvent struct {
	Type    string   `json:"type"`
	EventID string   `json:"event_id"`
	ChatID  int64    `json:"chat_id"`
	Members []Member `json:"members"`
	Ts      int64    `json:"ts"`
}

// NewMessageEvent fills in the type discriminator and a fresh event ID.
func NewMessageEvent(ev MessageEvent) MessageEvent {
	ev.Type = TypeMessage
	ev.EventID = uuid.NewString()
	return ev
}

// NewMembershipEvent fills in the type discriminator and a fresh event ID.
func NewMembershipEvent(ev MembershipEvent) MembershipEvent {
	ev.Type = TypeMembership
	ev.EventID = uuid.NewString()
	return ev
}

// ParseEvent decodes raw bytes into the concrete event struct for the
// envelope's type. It returns the type, the parsed event (*MessageEvent or
// *MembershipEvent), and an error for malformed payloads or unknown types.
func ParseEvent(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, err
	}

	switch env.Type {
	case TypeMessage:
		var ev MessageEvent
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, fmt.Errorf("protocol: failed to parse %s event: %w", env.Type, err)
		}
		return env.Type, &ev, nil
	case TypeMembership:
		var ev MembershipEvent
		if err := json.Unmarshal(env.Raw, &ev); err != nil {
			return env.Type, nil, fmt.Errorf("protocol: failed to parse %s event: %w", env.Type, err)
		}
		return env.Type, &ev, nil
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown event type %q", env.Type)
	}
}

// ---------------------------------------------------------------------------
// Actions (moderator -> gateway)
// ---------------------------------------------------------------------------

// DeleteAction requests deletion of a message.
type DeleteAction struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

// BanAction requests a temporary ban of a user.
type BanAction struct {
	ChatID   int64 `json:"chat_id"`
	UserID   int64 `json:"user_id"`
	Duration int64 `json:"duration_seconds"`
}

// NotifyAction requests an in-chat notice.
type NotifyAction struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// ---------------------------------------------------------------------------
// Role queries (moderator <-> gateway, request-reply)
// ---------------------------------------------------------------------------

// RoleRequest asks the gateway for a member's role in a chat.
type RoleRequest struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

// RoleResponse carries the member's role, or the lookup error. Exactly one
// of Role and Error is set.
type RoleResponse struct {
	Role  string `json:"role,omitempty"`
	Error string `json:"error,omitempty"`
}
