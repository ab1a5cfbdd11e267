package telegram

// Typed views of Bot API objects, covering only the fields the gateway
// reads. Everything else in the platform payloads is ignored.

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is a chat message or service message.
type Message struct {
	MessageID       int64  `json:"message_id"`
	From            *User  `json:"from"`
	Chat            Chat   `json:"chat"`
	Date            int64  `json:"date"`
	Text            string `json:"text"`
	Caption         string `json:"caption"`
	ForwardFromChat *Chat  `json:"forward_from_chat"`
	NewChatMembers  []User `json:"new_chat_members"`
}

// User is a platform account.
type User struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

// Chat is a group, supergroup, channel, or private chat.
type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// ChatMember is the result of getChatMember: the user plus their status
// ("creator", "administrator", "member", ...).
type ChatMember struct {
	User   User   `json:"user"`
	Status string `json:"status"`
}
