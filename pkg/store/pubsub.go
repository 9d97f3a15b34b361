package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/smritlabs/matchbox/pkg/models"
)

// PublishStatus emits one status event on the request's channel.
func (c *Client) PublishStatus(ctx context.Context, event *models.StatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	channel := StatusChannel(event.RequestID)
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %q: %w", channel, err)
	}
	return nil
}

// StatusSubscription delivers decoded status events for one request until
// the subscriber closes it or the context ends.
type StatusSubscription struct {
	events chan *models.StatusEvent
	close  func() error
}

// Events returns the delivery channel. It is closed when the subscription
// ends.
func (s *StatusSubscription) Events() <-chan *models.StatusEvent {
	return s.events
}

// Close unsubscribes and releases the underlying pub/sub connection.
func (s *StatusSubscription) Close() error {
	return s.close()
}

// SubscribeStatus subscribes to a request's status channel. Undecodable
// payloads are logged and skipped rather than terminating the stream.
func (c *Client) SubscribeStatus(ctx context.Context, requestID string) (*StatusSubscription, error) {
	channel := StatusChannel(requestID)
	pubsub := c.rdb.Subscribe(ctx, channel)

	// Force the subscription onto the wire before returning so callers
	// never miss events published right after subscribing.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %q: %w", channel, err)
	}

	events := make(chan *models.StatusEvent, 16)
	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var event models.StatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Warn("Discarding undecodable status event",
					"channel", channel, "error", err)
				continue
			}
			select {
			case events <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &StatusSubscription{
		events: events,
		close:  pubsub.Close,
	}, nil
}
