// Package bus moves LLM job and response records between the orchestrator
// and the remote worker pool over Pulse streams backed by Redis.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/pulse/streaming"
	streamopts "goa.design/pulse/streaming/options"

	"github.com/smritlabs/matchbox/pkg/config"
	"github.com/smritlabs/matchbox/pkg/models"
)

// Event names on the two streams.
const (
	jobEvent      = "llm-job"
	responseEvent = "llm-response"
)

// Reconnect backoff bounds for the response consumer.
const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// ResponseHandler is invoked once per inbound response record in arrival
// order. The record is acked after the handler returns.
type ResponseHandler func(ctx context.Context, resp *models.LLMResponse)

// Bus publishes jobs and consumes responses over two named streams.
type Bus struct {
	jobs      *streaming.Stream
	responses *streaming.Stream
	group     string
	topic     string

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger *slog.Logger
}

// New opens the two streams on the given Redis connection.
func New(rdb *redis.Client, cfg config.BusConfig) (*Bus, error) {
	var opts []streamopts.Stream
	if cfg.StreamMaxLen > 0 {
		opts = append(opts, streamopts.WithStreamMaxLen(cfg.StreamMaxLen))
	}

	jobs, err := streaming.NewStream(cfg.JobsStream, rdb, opts...)
	if err != nil {
		return nil, fmt.Errorf("open jobs stream %q: %w", cfg.JobsStream, err)
	}
	responses, err := streaming.NewStream(cfg.ResponsesStream, rdb, opts...)
	if err != nil {
		return nil, fmt.Errorf("open responses stream %q: %w", cfg.ResponsesStream, err)
	}

	return &Bus{
		jobs:      jobs,
		responses: responses,
		group:     cfg.ConsumerGroup,
		topic:     cfg.ResponsesStream,
		stopCh:    make(chan struct{}),
		logger:    slog.With("component", "bus"),
	}, nil
}

// ResponseTopic names the stream the worker pool must publish responses
// to; it is attached to every outbound job.
func (b *Bus) ResponseTopic() string {
	return b.topic
}

// PublishJob adds one job record to the jobs stream and awaits the
// stream ack.
func (b *Bus) PublishJob(ctx context.Context, job *models.LLMJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if _, err := b.jobs.Add(ctx, jobEvent, payload); err != nil {
		return fmt.Errorf("publish job %q: %w", job.RequestID, err)
	}
	return nil
}

// PublishResponse adds one record to the responses stream. The
// orchestrator uses this to echo status events; such records carry
// Source set so the response loop skips them.
func (b *Bus) PublishResponse(ctx context.Context, resp *models.LLMResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if _, err := b.responses.Add(ctx, responseEvent, payload); err != nil {
		return fmt.Errorf("publish response %q: %w", resp.RequestID, err)
	}
	return nil
}

// SubscribeResponses starts the consumer-group loop over the responses
// stream. Records that fail to decode are acked and dropped. The loop
// reconnects with backoff when the sink fails, and runs until Close.
func (b *Bus) SubscribeResponses(ctx context.Context, handler ResponseHandler) {
	b.wg.Add(1)
	go b.consumeLoop(ctx, handler)
}

func (b *Bus) consumeLoop(ctx context.Context, handler ResponseHandler) {
	defer b.wg.Done()

	backoff := reconnectMin
	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		sink, err := b.responses.NewSink(ctx, b.group)
		if err != nil {
			b.logger.Error("Failed to create response sink, retrying",
				"group", b.group, "backoff", backoff, "error", err)
			b.sleep(ctx, backoff)
			backoff = min(backoff*2, reconnectMax)
			continue
		}
		backoff = reconnectMin

		b.consume(ctx, sink, handler)
		sink.Close(context.WithoutCancel(ctx))

		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		default:
			b.logger.Warn("Response sink closed, reconnecting")
		}
	}
}

// consume drains one sink until its channel closes or shutdown.
func (b *Bus) consume(ctx context.Context, sink *streaming.Sink, handler ResponseHandler) {
	events := sink.Subscribe()
	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			var resp models.LLMResponse
			if err := json.Unmarshal(evt.Payload, &resp); err != nil {
				b.logger.Warn("Dropping undecodable response record", "error", err)
			} else {
				handler(ctx, &resp)
			}
			if err := sink.Ack(ctx, evt); err != nil {
				b.logger.Warn("Failed to ack response record",
					"request_id", resp.RequestID, "error", err)
			}
		}
	}
}

// sleep waits for the given duration or until stop is signalled.
func (b *Bus) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-b.stopCh:
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Close stops the consumer loop and waits for it to finish.
// It is safe to call Close multiple times.
func (b *Bus) Close() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	b.wg.Wait()
}
