package protocol

import (
	"encoding/json"
	"testing"
)

func TestParseEvent_Message(t *testing.T) {
	ev := NewMessageEvent(MessageEvent{
		ChatID:      -1001,
		MessageID:   42,
		SenderID:    7,
		SenderIsBot: false,
		Text:        "привет",
		Ts:          1700000000,
	})
	if ev.EventID == "" {
		t.Fatal("NewMessageEvent did not assign an event ID")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	typ, parsed, err := ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent() error: %v", err)
	}
	if typ != TypeMessage {
		t.Errorf("type = %q, want %q", typ, TypeMessage)
	}

	msg, ok := parsed.(*MessageEvent)
	if !ok {
		t.Fatalf("parsed event is %T, want *MessageEvent", parsed)
	}
	if msg.ChatID != -1001 || msg.MessageID != 42 || msg.SenderID != 7 || msg.Text != "привет" {
		t.Errorf("round-trip mismatch: %+v", msg)
	}
}

func TestParseEvent_Membership(t *testing.T) {
	ev := NewMembershipEvent(MembershipEvent{
		ChatID:  -1001,
		Members: []Member{{ID: 1}, {ID: 2, IsBot: true}},
		Ts:      1700000000,
	})

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	typ, parsed, err := ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent() error: %v", err)
	}
	if typ != TypeMembership {
		t.Errorf("type = %q, want %q", typ, TypeMembership)
	}

	join, ok := parsed.(*MembershipEvent)
	if !ok {
		t.Fatalf("parsed event is %T, want *MembershipEvent", parsed)
	}
	if len(join.Members) != 2 || !join.Members[1].IsBot {
		t.Errorf("round-trip mismatch: %+v", join)
	}
}

func TestParseEvent_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{`},
		{"missing type", `{"chat_id": 1}`},
		{"empty type", `{"type": ""}`},
		{"unknown type", `{"type": "unknown"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseEvent([]byte(tt.data)); err == nil {
				t.Errorf("ParseEvent(%q) succeeded, want error", tt.data)
			}
		})
	}
}

func TestMessageEvent_Body(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		caption string
		want    string
	}{
		{"text only", "hello", "", "hello"},
		{"caption only", "", "photo caption", "photo caption"},
		{"text wins", "hello", "caption", "hello"},
		{"neither", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := MessageEvent{Text: tt.text, Caption: tt.caption}
			if got := ev.Body(); got != tt.want {
				t.Errorf("Body() = %q, want %q", got, tt.want)
			}
		})
	}
}
