package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smritlabs/matchbox/pkg/models"
)

// CachePerson stores a connected person's projected profile with a TTL.
func (c *Client) CachePerson(ctx context.Context, userID, personID string, profile *models.UserProfile, ttl time.Duration) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal person profile: %w", err)
	}
	key := personKey(userID, personID)
	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache person %q: %w", key, err)
	}
	return nil
}

// ReadPerson returns the cached profile, or nil on a cache miss.
func (c *Client) ReadPerson(ctx context.Context, userID, personID string) (*models.UserProfile, error) {
	key := personKey(userID, personID)
	raw, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read person %q: %w", key, err)
	}

	var profile models.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("decode person %q: %w", key, err)
	}
	return &profile, nil
}
