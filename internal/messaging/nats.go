// Package messaging provides a NATS client wrapper for communication
// between the gateway and the moderator. It handles connection lifecycle,
// subject-based subscriptions, moderation action publishing, and the
// request-reply channel used for admin role lookups.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/guardbot/antispam/internal/protocol"
)

// NATS subjects used between the gateway and the moderator.
const (
	SubjectEvent        = "moderation.event"         // gateway -> moderator
	SubjectActionDelete = "moderation.action.delete" // moderator -> gateway
	SubjectActionBan    = "moderation.action.ban"
	SubjectActionNotify = "moderation.action.notify"
	SubjectRoleQuery    = "moderation.role" // request-reply
)

// roleQueryTimeout bounds the admin role lookup. A timed-out lookup is a
// role-query error; the trust resolver treats it as not exempt.
const roleQueryTimeout = 5 * time.Second

// Client wraps the NATS connection with helper methods for the moderation
// subjects.
type Client struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// Config holds NATS connection settings.
type Config struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		Name:          "guardbot",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// NewClient connects to NATS with the given config and returns a ready
// client. It returns an error if the initial connection fails.
func NewClient(config Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &Client{
		conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Publish sends data to the given NATS subject.
func (c *Client) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Subscribe registers a handler for the given subject and stores the
// subscription internally for later cleanup.
func (c *Client) Subscribe(subject string, handler func(msg *nats.Msg)) error {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()

	return nil
}

// PublishEvent publishes an inbound event for the moderator.
func (c *Client) PublishEvent(data []byte) error {
	return c.Publish(SubjectEvent, data)
}

// SubscribeEvents subscribes to inbound events from the gateway.
func (c *Client) SubscribeEvents(handler func(data []byte)) error {
	return c.Subscribe(SubjectEvent, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishDelete publishes a message deletion request.
func (c *Client) PublishDelete(action protocol.DeleteAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("nats: marshal delete action: %w", err)
	}
	return c.Publish(SubjectActionDelete, data)
}

// SubscribeDeletes subscribes to message deletion requests.
func (c *Client) SubscribeDeletes(handler func(protocol.DeleteAction)) error {
	return c.Subscribe(SubjectActionDelete, func(msg *nats.Msg) {
		var action protocol.DeleteAction
		if err := json.Unmarshal(msg.Data, &action); err != nil {
			log.Printf("[nats] bad delete action: %v", err)
			return
		}
		handler(action)
	})
}

// PublishBan publishes a ban request.
func (c *Client) PublishBan(action protocol.BanAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("nats: marshal ban action: %w", err)
	}
	return c.Publish(SubjectActionBan, data)
}

// SubscribeBans subscribes to ban requests.
func (c *Client) SubscribeBans(handler func(protocol.BanAction)) error {
	return c.Subscribe(SubjectActionBan, func(msg *nats.Msg) {
		var action protocol.BanAction
		if err := json.Unmarshal(msg.Data, &action); err != nil {
			log.Printf("[nats] bad ban action: %v", err)
			return
		}
		handler(action)
	})
}

// PublishNotify publishes an in-chat notice request.
func (c *Client) PublishNotify(action protocol.NotifyAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("nats: marshal notify action: %w", err)
	}
	return c.Publish(SubjectActionNotify, data)
}

// SubscribeNotifies subscribes to in-chat notice requests.
func (c *Client) SubscribeNotifies(handler func(protocol.NotifyAction)) error {
	return c.Subscribe(SubjectActionNotify, func(msg *nats.Msg) {
		var action protocol.NotifyAction
		if err := json.Unmarshal(msg.Data, &action); err != nil {
			log.Printf("[nats] bad notify action: %v", err)
			return
		}
		handler(action)
	})
}

// Role asks the gateway for a member's role over request-reply. It
// implements the trust resolver's RoleQuerier: any transport failure,
// timeout, or gateway-side lookup error is returned as an error.
func (c *Client) Role(ctx context.Context, chatID, userID int64) (string, error) {
	req, err := json.Marshal(protocol.RoleRequest{ChatID: chatID, UserID: userID})
	if err != nil {
		return "", fmt.Errorf("nats: marshal role request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, roleQueryTimeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, SubjectRoleQuery, req)
	if err != nil {
		return "", fmt.Errorf("nats: role query: %w", err)
	}

	var resp protocol.RoleResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return "", fmt.Errorf("nats: bad role response: %w", err)
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	return resp.Role, nil
}

// SubscribeRoleQueries registers the gateway-side responder for role
// lookups. The handler resolves the request against the platform; its error
// is serialized into the response so the moderator fails closed.
func (c *Client) SubscribeRoleQueries(handler func(ctx context.Context, req protocol.RoleRequest) (string, error)) error {
	return c.Subscribe(SubjectRoleQuery, func(msg *nats.Msg) {
		var req protocol.RoleRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Printf("[nats] bad role request: %v", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), roleQueryTimeout)
		defer cancel()

		var resp protocol.RoleResponse
		role, err := handler(ctx, req)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Role = role
		}

		data, err := json.Marshal(resp)
		if err != nil {
			log.Printf("[nats] marshal role response: %v", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			log.Printf("[nats] respond role query: %v", err)
		}
	})
}

// Close drains all active subscriptions and closes the NATS connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[nats] drain %s: %v", subject, err)
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] connection drain: %v", err)
	}

	log.Printf("[nats] client closed")
}
