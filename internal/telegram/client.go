// Package telegram is a minimal Bot API client for the gateway: long-poll
// update fetching plus the handful of moderation calls the bot needs. It
// talks plain HTTPS to api.telegram.org.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Client calls the Bot API for one bot token.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewClient creates a Bot API client. baseURL is overridable for tests;
// pass "" for the production endpoint.
func NewClient(token string, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		// Long polling holds the connection open for up to the poll
		// timeout, so the HTTP timeout must sit above it.
		client: &http.Client{Timeout: 50 * time.Second},
	}
}

// apiResponse is the Bot API envelope around every method result.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// call POSTs a Bot API method and decodes the result into out (which may be
// nil for methods whose result the caller ignores).
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("telegram: marshal %s params: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("telegram: decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram: %s: %s", method, api.Description)
	}

	if out != nil {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetMe returns the bot's own account, used at startup to learn the bot ID.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	var me User
	if err := c.call(ctx, "getMe", struct{}{}, &me); err != nil {
		return User{}, err
	}
	return me, nil
}

// GetUpdates long-polls for updates after offset, waiting up to timeoutSec
// server-side before returning an empty batch.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	params := map[string]any{
		"offset":          offset,
		"timeout":         timeoutSec,
		"allowed_updates": []string{"message"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// DeleteMessage removes a message from a chat.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	params := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}
	return c.call(ctx, "deleteMessage", params, nil)
}

// BanChatMember bans a user until the given time.
func (c *Client) BanChatMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	params := map[string]any{
		"chat_id":    chatID,
		"user_id":    userID,
		"until_date": until.Unix(),
	}
	return c.call(ctx, "banChatMember", params, nil)
}

// GetChatMember returns a member's status in a chat.
func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (ChatMember, error) {
	params := map[string]any{
		"chat_id": chatID,
		"user_id": userID,
	}
	var member ChatMember
	if err := c.call(ctx, "getChatMember", params, &member); err != nil {
		return ChatMember{}, err
	}
	return member, nil
}

// SendMessage posts a text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	return c.call(ctx, "sendMessage", params, nil)
}
