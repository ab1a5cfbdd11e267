package gateway

import (
	"testing"

	"github.com/guardbot/antispam/internal/protocol"
	"github.com/guardbot/antispam/internal/telegram"
)

func TestMapUpdate_TextMessage(t *testing.T) {
	u := telegram.Update{
		UpdateID: 100,
		Message: &telegram.Message{
			MessageID: 42,
			From:      &telegram.User{ID: 7, IsBot: false},
			Chat:      telegram.Chat{ID: -1001, Type: "supergroup"},
			Date:      1700000000,
			Text:      "hello there",
		},
	}

	ev, ok := MapUpdate(u)
	if !ok {
		t.Fatal("MapUpdate() returned false for a text message")
	}

	msg, isMsg := ev.(protocol.MessageEvent)
	if !isMsg {
		t.Fatalf("MapUpdate() returned %T, want MessageEvent", ev)
	}
	if msg.Type != protocol.TypeMessage {
		t.Errorf("Type = %q, want %q", msg.Type, protocol.TypeMessage)
	}
	if msg.EventID == "" {
		t.Error("EventID is empty")
	}
	if msg.ChatID != -1001 || msg.MessageID != 42 || msg.SenderID != 7 {
		t.Errorf("ids = chat %d msg %d sender %d", msg.ChatID, msg.MessageID, msg.SenderID)
	}
	if msg.Text != "hello there" || msg.Ts != 1700000000 {
		t.Errorf("text=%q ts=%d", msg.Text, msg.Ts)
	}
}

func TestMapUpdate_CaptionAndForward(t *testing.T) {
	u := telegram.Update{
		Message: &telegram.Message{
			MessageID:       43,
			From:            &telegram.User{ID: 7},
			Chat:            telegram.Chat{ID: -1001},
			Caption:         "check this out",
			ForwardFromChat: &telegram.Chat{ID: -2002, Type: "channel"},
		},
	}

	ev, ok := MapUpdate(u)
	if !ok {
		t.Fatal("MapUpdate() returned false")
	}
	msg := ev.(protocol.MessageEvent)
	if msg.Caption != "check this out" {
		t.Errorf("Caption = %q", msg.Caption)
	}
	if msg.ForwardFromChatID != -2002 {
		t.Errorf("ForwardFromChatID = %d, want -2002", msg.ForwardFromChatID)
	}
}

func TestMapUpdate_NewMembers(t *testing.T) {
	u := telegram.Update{
		Message: &telegram.Message{
			MessageID: 44,
			From:      &telegram.User{ID: 7},
			Chat:      telegram.Chat{ID: -1001},
			Date:      1700000100,
			NewChatMembers: []telegram.User{
				{ID: 8, IsBot: false},
				{ID: 9, IsBot: true},
			},
		},
	}

	ev, ok := MapUpdate(u)
	if !ok {
		t.Fatal("MapUpdate() returned false for a join message")
	}

	join, isJoin := ev.(protocol.MembershipEvent)
	if !isJoin {
		t.Fatalf("MapUpdate() returned %T, want MembershipEvent", ev)
	}
	if join.Type != protocol.TypeMembership {
		t.Errorf("Type = %q, want %q", join.Type, protocol.TypeMembership)
	}
	if join.ChatID != -1001 || join.Ts != 1700000100 {
		t.Errorf("chat=%d ts=%d", join.ChatID, join.Ts)
	}
	if len(join.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(join.Members))
	}
	if join.Members[0].ID != 8 || join.Members[1].IsBot != true {
		t.Errorf("members = %+v", join.Members)
	}
}

func TestMapUpdate_Skipped(t *testing.T) {
	tests := []struct {
		name string
		u    telegram.Update
	}{
		{"no message", telegram.Update{UpdateID: 1}},
		{"no sender", telegram.Update{
			Message: &telegram.Message{MessageID: 2, Chat: telegram.Chat{ID: -1001}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := MapUpdate(tt.u); ok {
				t.Error("MapUpdate() returned true, want skipped")
			}
		})
	}
}
