package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/smritlabs/matchbox/pkg/jsonx"
	"github.com/smritlabs/matchbox/pkg/models"
)

// handleResponse is the single consumer for the responses topic.
func (o *Orchestrator) handleResponse(ctx context.Context, resp *models.LLMResponse) {
	// Status records the orchestrator published itself loop back here.
	if resp.Source == models.OrchestratorSource {
		return
	}
	if resp.IsPong() {
		return
	}
	if resp.Usage != nil {
		o.metrics.TokensGenerated(resp.Usage.TokenCount, resp.Usage.Duration)
	}

	if strings.HasPrefix(resp.RequestID, models.SummaryJobPrefix) {
		if resp.CustomResponse != "" {
			o.handleSummaryUpdate(ctx, resp)
		}
		return
	}

	if resp.RequestID == "" {
		return
	}
	if !o.registry.resolve(resp.RequestID, resp) {
		o.logger.Debug("response with no waiter dropped", "request_id", resp.RequestID, "step", resp.Step)
	}
}

// handleSummaryUpdate validates and persists the background memory
// update. Worker output goes through the tolerant parser; a malformed
// payload is logged and dropped.
func (o *Orchestrator) handleSummaryUpdate(ctx context.Context, resp *models.LLMResponse) {
	var summary models.SessionSummary
	if err := jsonx.ExtractInto(resp.CustomResponse, &summary); err != nil {
		o.logger.Warn("summary update unparseable", "request_id", resp.RequestID, "error", err)
		return
	}

	userID, _ := resp.Metadata["user_id"].(string)
	if userID == "" {
		userID = summary.UserID
	}
	if userID == "" {
		o.logger.Warn("summary update skipped: missing user_id", "request_id", resp.RequestID)
		return
	}
	sessionID, _ := resp.Metadata["session_id"].(string)
	if sessionID == "" {
		sessionID = summary.SessionID
	}

	summary.UserID = userID
	summary.SessionID = sessionID
	summary.LastUpdated = float64(time.Now().UnixNano()) / float64(time.Second)

	if err := o.store.WriteSummary(ctx, userID, sessionID, &summary); err != nil {
		o.logger.Error("summary write failed", "user_id", userID, "error", err)
		return
	}
	o.logger.Debug("session summary updated", "user_id", userID, "session_id", sessionID)
}

// pingLoop publishes a heartbeat job on every tick. Pongs come back on
// the responses topic with no correlated waiter.
func (o *Orchestrator) pingLoop() {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.runCtx.Done():
			return
		case <-ticker.C:
			job := &models.LLMJob{
				RequestID:     models.NewRequestID("ping"),
				Step:          models.StepPing,
				ResponseTopic: o.bus.ResponseTopic(),
				Metadata:      map[string]any{"timestamp": time.Now().Unix()},
			}
			if err := o.bus.PublishJob(o.runCtx, job); err != nil {
				o.logger.Warn("ping publish failed", "error", err)
			}
		}
	}
}
