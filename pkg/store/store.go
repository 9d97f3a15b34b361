// Package store implements session memory on Redis: rolling chat history,
// session summaries, per-tool argument state, request status channels, and
// the short-TTL person profile cache.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Client wraps a Redis connection with the keyed-store operations the
// orchestrator needs.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// NewFromClient wraps an existing Redis client. The caller keeps ownership
// of the connection.
func NewFromClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Redis exposes the underlying connection for collaborators that share it
// (the bus adapter backs its streams on the same instance).
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Key layouts. A session-scoped key omits the trailing segment when the
// request carries no session id.
func historyKey(userID, sessionID string) string {
	return scopedKey("chat_history", userID, sessionID)
}

func summaryKey(userID, sessionID string) string {
	return scopedKey("session_summary", userID, sessionID)
}

func toolStateKey(userID, sessionID string) string {
	return scopedKey("tool_state", userID, sessionID)
}

func personKey(userID, personID string) string {
	return fmt.Sprintf("person_profile:%s:%s", userID, personID)
}

// StatusChannel names the pub/sub channel for one request.
func StatusChannel(requestID string) string {
	return "chat_status:" + requestID
}

func scopedKey(prefix, userID, sessionID string) string {
	if sessionID == "" {
		return fmt.Sprintf("%s:%s", prefix, userID)
	}
	return fmt.Sprintf("%s:%s:%s", prefix, userID, sessionID)
}

// sessionFromKey recovers the session id from a scoped key. Returns ""
// for the sessionless form.
func sessionFromKey(prefix, userID, key string) string {
	base := fmt.Sprintf("%s:%s", prefix, userID)
	if key == base {
		return ""
	}
	return strings.TrimPrefix(key, base+":")
}

// scan iterates all keys matching pattern.
func (c *Client) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", pattern, err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}
