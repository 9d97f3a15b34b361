package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/smritlabs/matchbox/pkg/models"
)

// ReadSummary returns the stored session summary, or nil when absent.
func (c *Client) ReadSummary(ctx context.Context, userID, sessionID string) (*models.SessionSummary, error) {
	key := summaryKey(userID, sessionID)
	raw, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read summary %q: %w", key, err)
	}

	var summary models.SessionSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, fmt.Errorf("decode summary %q: %w", key, err)
	}
	return &summary, nil
}

// WriteSummary replaces the session summary atomically (single SET).
func (c *Client) WriteSummary(ctx context.Context, userID, sessionID string, summary *models.SessionSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	key := summaryKey(userID, sessionID)
	if err := c.rdb.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("write summary %q: %w", key, err)
	}
	return nil
}

// DeleteSummary removes the summary for one (user, session).
func (c *Client) DeleteSummary(ctx context.Context, userID, sessionID string) error {
	return c.rdb.Del(ctx, summaryKey(userID, sessionID)).Err()
}

// ListSummaries returns all of a user's session summaries.
func (c *Client) ListSummaries(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	keys, err := c.scan(ctx, fmt.Sprintf("session_summary:%s*", userID))
	if err != nil {
		return nil, err
	}

	summaries := make([]models.SessionSummary, 0, len(keys))
	for _, key := range keys {
		raw, err := c.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read summary %q: %w", key, err)
		}
		var summary models.SessionSummary
		if err := json.Unmarshal([]byte(raw), &summary); err != nil {
			return nil, fmt.Errorf("decode summary %q: %w", key, err)
		}
		summary.SessionID = sessionFromKey("session_summary", userID, key)
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
