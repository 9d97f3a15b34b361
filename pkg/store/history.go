package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smritlabs/matchbox/pkg/models"
)

// AppendHistory prepends an entry and trims the list to the history limit.
// LPUSH+LTRIM run in one pipeline so the bound holds under concurrent
// appends.
func (c *Client) AppendHistory(ctx context.Context, userID, sessionID string, entry models.HistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	key := historyKey(userID, sessionID)
	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, models.HistoryLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history %q: %w", key, err)
	}
	return nil
}

// ReadHistory returns at most five entries, oldest first.
func (c *Client) ReadHistory(ctx context.Context, userID, sessionID string) ([]models.HistoryEntry, error) {
	key := historyKey(userID, sessionID)
	raw, err := c.rdb.LRange(ctx, key, 0, models.HistoryLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history %q: %w", key, err)
	}

	// Stored newest first; reverse for chronological order
	entries := make([]models.HistoryEntry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DeleteHistory removes the history for one (user, session).
func (c *Client) DeleteHistory(ctx context.Context, userID, sessionID string) error {
	return c.rdb.Del(ctx, historyKey(userID, sessionID)).Err()
}

// DeleteAllHistory removes every history key for a user.
func (c *Client) DeleteAllHistory(ctx context.Context, userID string) error {
	keys, err := c.scan(ctx, fmt.Sprintf("chat_history:%s*", userID))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// SessionInfo pairs a session id with its history length.
type SessionInfo struct {
	SessionID  string `json:"session_id"`
	EntryCount int64  `json:"entry_count"`
}

// ListSessions scans a user's history keys and reports entry counts.
func (c *Client) ListSessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	keys, err := c.scan(ctx, fmt.Sprintf("chat_history:%s*", userID))
	if err != nil {
		return nil, err
	}

	sessions := make([]SessionInfo, 0, len(keys))
	for _, key := range keys {
		count, err := c.rdb.LLen(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("llen %q: %w", key, err)
		}
		sessions = append(sessions, SessionInfo{
			SessionID:  sessionFromKey("chat_history", userID, key),
			EntryCount: count,
		})
	}
	return sessions, nil
}
