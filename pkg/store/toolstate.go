package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ReadToolState returns the full tool-state object for (user, session).
// An absent key yields an empty map.
func (c *Client) ReadToolState(ctx context.Context, userID, sessionID string) (map[string]any, error) {
	key := toolStateKey(userID, sessionID)
	raw, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tool state %q: %w", key, err)
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode tool state %q: %w", key, err)
	}
	if state == nil {
		state = map[string]any{}
	}
	return state, nil
}

// WriteToolState rewrites the full tool-state blob (single SET, atomic
// replace-on-key).
func (c *Client) WriteToolState(ctx context.Context, userID, sessionID string, state map[string]any) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal tool state: %w", err)
	}
	key := toolStateKey(userID, sessionID)
	if err := c.rdb.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("write tool state %q: %w", key, err)
	}
	return nil
}

// DeleteToolState removes the tool state for one (user, session).
func (c *Client) DeleteToolState(ctx context.Context, userID, sessionID string) error {
	return c.rdb.Del(ctx, toolStateKey(userID, sessionID)).Err()
}

// ToolStateInfo pairs a session id with its decoded tool-state object.
type ToolStateInfo struct {
	SessionID string         `json:"session_id"`
	State     map[string]any `json:"state"`
}

// ListToolStates returns all of a user's tool-state blobs.
func (c *Client) ListToolStates(ctx context.Context, userID string) ([]ToolStateInfo, error) {
	keys, err := c.scan(ctx, fmt.Sprintf("tool_state:%s*", userID))
	if err != nil {
		return nil, err
	}

	states := make([]ToolStateInfo, 0, len(keys))
	for _, key := range keys {
		raw, err := c.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read tool state %q: %w", key, err)
		}
		var state map[string]any
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return nil, fmt.Errorf("decode tool state %q: %w", key, err)
		}
		states = append(states, ToolStateInfo{
			SessionID: sessionFromKey("tool_state", userID, key),
			State:     state,
		})
	}
	return states, nil
}
