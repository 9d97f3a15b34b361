// Package orchestrator runs the per-request pipeline: decision
// classification, tool selection and execution, summarization, and
// completion. One goroutine per request; a shared response consumer
// resolves in-flight steps.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/smritlabs/matchbox/pkg/bus"
	"github.com/smritlabs/matchbox/pkg/config"
	"github.com/smritlabs/matchbox/pkg/mcp"
	"github.com/smritlabs/matchbox/pkg/metrics"
	"github.com/smritlabs/matchbox/pkg/models"
	"github.com/smritlabs/matchbox/pkg/prompt"
	"github.com/smritlabs/matchbox/pkg/toolargs"
)

// fallbackMessages are the user-visible phrasings for unrecoverable
// pipeline errors. One is picked uniformly at random.
var fallbackMessages = []string{
	"I'm having a bit of trouble connecting right now. Could you please try asking that again?",
	"It seems my thoughts got a little tangled. Mind repeating that?",
	"I didn't quite catch that due to a technical hiccup. Please try again.",
	"Sorry, I encountered a temporary issue. Let's try that one more time.",
	"I'm experiencing a brief service interruption. Please ask me again in a moment.",
}

// ErrStepTimeout is returned when a worker response does not arrive
// within the configured step timeout.
var ErrStepTimeout = errors.New("timed out waiting for worker response")

// JobBus publishes LLM jobs and feeds responses back.
type JobBus interface {
	PublishJob(ctx context.Context, job *models.LLMJob) error
	PublishResponse(ctx context.Context, resp *models.LLMResponse) error
	SubscribeResponses(ctx context.Context, handler bus.ResponseHandler)
	ResponseTopic() string
}

// Store is the slice of the keyed store the pipeline uses.
type Store interface {
	AppendHistory(ctx context.Context, userID, sessionID string, entry models.HistoryEntry) error
	ReadHistory(ctx context.Context, userID, sessionID string) ([]models.HistoryEntry, error)
	ReadSummary(ctx context.Context, userID, sessionID string) (*models.SessionSummary, error)
	WriteSummary(ctx context.Context, userID, sessionID string, summary *models.SessionSummary) error
	ReadToolState(ctx context.Context, userID, sessionID string) (map[string]any, error)
	PublishStatus(ctx context.Context, event *models.StatusEvent) error
}

// ToolRunner executes MCP tools.
type ToolRunner interface {
	Tools() []mcp.Tool
	Schema(name string) map[string]any
	CallTool(ctx context.Context, name string, args map[string]any) *mcp.ToolResult
}

// LogWriter persists completion records.
type LogWriter interface {
	Save(ctx context.Context, log *models.ChatLog) error
}

// PersonaSource resolves personas and connected-user profiles for
// summarize prompts. Both lookups are best-effort.
type PersonaSource interface {
	Persona(ctx context.Context, userID, personalityID string) (*models.PersonaConfig, error)
	Profile(ctx context.Context, userID, personID string) (*models.UserProfile, error)
}

// AudioGenerator produces a hosted clip URL for a final answer.
type AudioGenerator interface {
	Generate(ctx context.Context, text string) (string, error)
}

// Deps wires the orchestrator's collaborators. Personas, Audio, and
// Metrics are optional.
type Deps struct {
	Config   config.OrchestratorConfig
	Bus      JobBus
	Store    Store
	Tools    ToolRunner
	Engine   *toolargs.Engine
	Logs     LogWriter
	Personas PersonaSource
	Audio    AudioGenerator
	Metrics  *metrics.Registry
	Logger   *slog.Logger
}

// Orchestrator owns the request pipeline.
type Orchestrator struct {
	cfg      config.OrchestratorConfig
	bus      JobBus
	store    Store
	tools    ToolRunner
	engine   *toolargs.Engine
	logs     LogWriter
	personas PersonaSource
	audio    AudioGenerator
	metrics  *metrics.Registry
	logger   *slog.Logger

	registry *registry

	sessionMu sync.Mutex
	sessions  map[string]*sync.Mutex

	runCtx    context.Context
	runCancel context.CancelFunc
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// New builds an Orchestrator from its dependencies.
func New(deps Deps) (*Orchestrator, error) {
	if deps.Bus == nil {
		return nil, errors.New("bus is required")
	}
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Tools == nil {
		return nil, errors.New("tool runner is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("tool-arg engine is required")
	}
	if deps.Logs == nil {
		return nil, errors.New("log writer is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry()
	}
	runCtx, runCancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:       deps.Config,
		bus:       deps.Bus,
		store:     deps.Store,
		tools:     deps.Tools,
		engine:    deps.Engine,
		logs:      deps.Logs,
		personas:  deps.Personas,
		audio:     deps.Audio,
		metrics:   deps.Metrics,
		logger:    logger,
		registry:  newRegistry(),
		sessions:  make(map[string]*sync.Mutex),
		runCtx:    runCtx,
		runCancel: runCancel,
	}, nil
}

// Start attaches the response consumer and the ping loop.
func (o *Orchestrator) Start() {
	o.bus.SubscribeResponses(o.runCtx, o.handleResponse)
	o.wg.Add(1)
	go o.pingLoop()
	o.logger.Info("orchestrator started",
		"step_timeout", o.cfg.StepTimeout, "ping_interval", o.cfg.PingInterval)
}

// Stop cancels in-flight requests, wakes every waiter, and waits for
// background goroutines to drain.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.runCancel()
		o.registry.shutdown()
		o.wg.Wait()
		o.logger.Info("orchestrator stopped")
	})
}

// HandleRequest accepts one user turn, records it in history, and spawns
// the pipeline. Returns the generated request id immediately.
func (o *Orchestrator) HandleRequest(ctx context.Context, req *models.ChatRequest) (string, error) {
	if req.RequestID == "" {
		req.RequestID = models.NewRequestID(req.UserID)
	}

	entry := models.HistoryEntry{Role: models.RoleUser, Content: req.Message}
	if err := o.store.AppendHistory(ctx, req.UserID, req.SessionID, entry); err != nil {
		return "", fmt.Errorf("append user history: %w", err)
	}

	o.metrics.RequestStarted()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.orchestrate(req)
	}()
	return req.RequestID, nil
}

func (o *Orchestrator) orchestrate(req *models.ChatRequest) {
	ctx := o.runCtx
	started := time.Now()
	logger := o.logger.With("request_id", req.RequestID, "user_id", req.UserID)
	logger.Info("orchestration started")

	if err := o.run(ctx, req, logger); err != nil {
		logger.Error("orchestration failed", "error", err)
		o.completeWithFallback(ctx, req, err, logger)
		o.metrics.RequestFailed(time.Since(started))
		return
	}
	o.metrics.RequestCompleted(time.Since(started))
}

func (o *Orchestrator) run(ctx context.Context, req *models.ChatRequest, logger *slog.Logger) error {
	o.sendStatus(ctx, req.RequestID, models.StatusReceived, nil)

	history, err := o.store.ReadHistory(ctx, req.UserID, req.SessionID)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	summary, err := o.store.ReadSummary(ctx, req.UserID, req.SessionID)
	if err != nil {
		logger.Warn("summary read failed", "error", err)
	}

	decision, err := o.stepCheckTool(ctx, req, history)
	if err != nil {
		return err
	}
	logger.Info("decision made", "decision", string(decision))

	var (
		toolArgs   map[string]any
		toolResult map[string]any
		toolErr    string
	)
	if decision == models.DecisionTool {
		var stepErr error
		toolArgs, toolResult, toolErr, stepErr = o.stepToolExecution(ctx, req, history, logger)
		if stepErr != nil {
			return stepErr
		}
	}

	answer, err := o.stepSummarize(ctx, req, summary, decision, toolResult, toolErr)
	if err != nil {
		return err
	}

	o.complete(ctx, req, completion{
		decision:   decision,
		answer:     answer,
		toolArgs:   toolArgs,
		toolResult: toolResult,
	}, logger)
	return nil
}

// stepCheckTool runs the routing classifier. An unreadable or unknown
// decision falls back to no_tool only when the worker answered; transport
// failures propagate.
func (o *Orchestrator) stepCheckTool(ctx context.Context, req *models.ChatRequest, history []models.HistoryEntry) (models.Decision, error) {
	resp, err := o.dispatchAndWait(ctx, &models.LLMJob{
		RequestID:     req.RequestID,
		Step:          models.StepCheckToolRequired,
		Message:       req.Message,
		SystemPrompt:  prompt.DecisionPrompt(history),
		JSONResponse:  true,
		ResponseTopic: o.bus.ResponseTopic(),
		Metadata:      map[string]any{"user_id": req.UserID},
	}, models.StatusCheckingTools)
	if err != nil {
		return "", fmt.Errorf("decision step: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("decision step: worker error: %s", resp.Error)
	}
	return models.ParseDecision(resp.Decision), nil
}

// stepToolExecution selects a tool, extracts arguments, and executes the
// call. A failed or timed-out select/extract step raises the error so the
// request falls back; an empty selection, empty arguments, or a failed
// MCP call are soft and the request proceeds to summarization with
// whatever was gathered.
func (o *Orchestrator) stepToolExecution(ctx context.Context, req *models.ChatRequest, history []models.HistoryEntry, logger *slog.Logger) (args, result map[string]any, toolErr string, err error) {
	tool, err := o.stepSelectTool(ctx, req, history)
	if err != nil {
		return nil, nil, "", err
	}
	if tool == "" {
		// The worker could not commit to a tool; summarize without results.
		logger.Warn("empty tool selection")
		return nil, nil, "", nil
	}

	rawArgs, err := o.stepExtractArgs(ctx, req, history, tool)
	if err != nil {
		return nil, nil, "", err
	}
	mergeRequestArgs(rawArgs, req)
	if len(rawArgs) == 0 {
		// Nothing to call with; skip the MCP call entirely.
		logger.Info("no arguments extracted, skipping tool call", "tool", tool)
		return nil, nil, "", nil
	}

	// Concurrent turns on the same session race on the stored tool state;
	// serialize the read-modify-write.
	mu := o.sessionLock(req.UserID, req.SessionID)
	mu.Lock()
	defer mu.Unlock()

	prepared, err := o.engine.Prepare(ctx, req.UserID, req.SessionID, tool, rawArgs, o.tools.Schema(tool))
	if err != nil {
		logger.Warn("argument preparation failed", "tool", tool, "error", err)
		o.sendStatus(ctx, req.RequestID, models.StatusToolError, map[string]any{"error": err.Error()})
		return nil, nil, err.Error(), nil
	}

	o.sendStatus(ctx, req.RequestID, models.StatusToolSelected, map[string]any{"tool": tool})
	logger.Info("executing tool", "tool", tool)

	res := o.tools.CallTool(ctx, tool, prepared)
	if !res.Success {
		logger.Warn("tool execution failed", "tool", tool, "error", res.Error)
		o.sendStatus(ctx, req.RequestID, models.StatusToolError, map[string]any{"error": res.Error})
		return prepared, nil, res.Error, nil
	}

	output, err := o.engine.HandleResult(ctx, req.UserID, req.SessionID, tool, prepared, res.Output,
		func(ctx context.Context, nextArgs map[string]any) (map[string]any, error) {
			next := o.tools.CallTool(ctx, tool, nextArgs)
			if !next.Success {
				return nil, errors.New(next.Error)
			}
			return next.Output, nil
		})
	if err != nil {
		logger.Warn("result handling failed", "tool", tool, "error", err)
		output = res.Output
	}

	histErr := o.store.AppendHistory(ctx, req.UserID, req.SessionID, models.HistoryEntry{
		Role:     models.RoleTool,
		ToolName: tool,
		ToolArgs: prepared,
	})
	if histErr != nil {
		logger.Warn("tool history append failed", "error", histErr)
	}

	o.sendStatus(ctx, req.RequestID, models.StatusToolExecuted, nil)
	return prepared, output, "", nil
}

// mergeRequestArgs folds request-level inputs into the extracted arguments
// without overriding anything the model already produced. Image references
// and pre-selected recommendation IDs arrive on the request itself rather
// than in the message text; tools whose schema lacks these keys drop them
// during cleaning.
func mergeRequestArgs(rawArgs map[string]any, req *models.ChatRequest) {
	for k, v := range req.SelectedFilters {
		if _, exists := rawArgs[k]; !exists {
			rawArgs[k] = v
		}
	}
	if req.ImageURL != "" {
		if _, exists := rawArgs["image_url"]; !exists {
			rawArgs["image_url"] = req.ImageURL
		}
	}
	if len(req.RecommendationIDs) > 0 {
		if _, exists := rawArgs["recommendation_ids"]; !exists {
			ids := make([]any, len(req.RecommendationIDs))
			for i, id := range req.RecommendationIDs {
				ids[i] = id
			}
			rawArgs["recommendation_ids"] = ids
		}
	}
}

// sessionLock returns the mutex guarding tool state for one (user, session)
// pair, creating it on first use. This lock owns the stored-state
// read-modify-write spanning Prepare, the tool call, and HandleResult;
// the argument engine itself does no locking.
func (o *Orchestrator) sessionLock(userID, sessionID string) *sync.Mutex {
	key := userID + ":" + sessionID
	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()
	mu, ok := o.sessions[key]
	if !ok {
		mu = &sync.Mutex{}
		o.sessions[key] = mu
	}
	return mu
}

func (o *Orchestrator) stepSelectTool(ctx context.Context, req *models.ChatRequest, history []models.HistoryEntry) (string, error) {
	catalog := make([]prompt.ToolDescriptor, 0)
	for _, t := range o.tools.Tools() {
		catalog = append(catalog, prompt.ToolDescriptor{Name: t.Name, Description: t.Description})
	}

	resp, err := o.dispatchAndWait(ctx, &models.LLMJob{
		RequestID:     req.RequestID,
		Step:          models.StepSelectTool,
		Message:       req.Message,
		SystemPrompt:  prompt.SelectToolPrompt(catalog, history),
		JSONResponse:  true,
		ResponseTopic: o.bus.ResponseTopic(),
		Metadata:      map[string]any{"user_id": req.UserID},
	}, models.StatusSelectingTool)
	if err != nil {
		return "", fmt.Errorf("tool selection: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("tool selection: worker error: %s", resp.Error)
	}

	tool := strings.TrimSpace(resp.SelectedTool)
	if tool == "" {
		return "", nil
	}
	if o.tools.Schema(tool) == nil {
		return "", fmt.Errorf("tool selection: unknown tool %q", tool)
	}
	return tool, nil
}

func (o *Orchestrator) stepExtractArgs(ctx context.Context, req *models.ChatRequest, history []models.HistoryEntry, tool string) (map[string]any, error) {
	schemaJSON := "{}"
	if raw, err := json.Marshal(o.tools.Schema(tool)); err == nil {
		schemaJSON = string(raw)
	}

	baseline := "{}"
	if state, err := o.store.ReadToolState(ctx, req.UserID, req.SessionID); err == nil {
		if section, ok := state[tool].(map[string]any); ok {
			if raw, err := json.Marshal(section); err == nil {
				baseline = string(raw)
			}
		}
	}

	meta := map[string]any{"user_id": req.UserID, "tool": tool}
	if req.ImageURL != "" {
		meta["image_url"] = req.ImageURL
	}
	resp, err := o.dispatchAndWait(ctx, &models.LLMJob{
		RequestID:     req.RequestID,
		Step:          models.StepGetToolArgs,
		Message:       req.Message,
		SystemPrompt:  prompt.ToolArgsPrompt(tool, schemaJSON, history, baseline),
		JSONResponse:  true,
		ResponseTopic: o.bus.ResponseTopic(),
		Metadata:      meta,
	}, models.StatusExtractingArgs)
	if err != nil {
		return nil, fmt.Errorf("argument extraction: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("argument extraction: worker error: %s", resp.Error)
	}
	if resp.ToolArgs == nil {
		return map[string]any{}, nil
	}
	return resp.ToolArgs, nil
}

func (o *Orchestrator) stepSummarize(ctx context.Context, req *models.ChatRequest, summary *models.SessionSummary, decision models.Decision, toolResult map[string]any, toolErr string) (string, error) {
	opts := prompt.SummarizeOpts{
		HasResults: resultHasDocs(toolResult),
		Summary:    summary,
	}
	if o.personas != nil {
		if p, err := o.personas.Persona(ctx, req.UserID, req.PersonalityID); err != nil {
			o.logger.Warn("persona lookup failed", "request_id", req.RequestID, "error", err)
		} else {
			opts.Persona = p
		}
		if p, err := o.personas.Profile(ctx, req.UserID, req.PersonID); err != nil {
			o.logger.Warn("profile lookup failed", "request_id", req.RequestID, "error", err)
		} else {
			opts.Profile = p
		}
	}

	meta := map[string]any{"user_id": req.UserID}
	if toolResult != nil {
		meta["tool_result"] = toolResult
	}
	if toolErr != "" {
		meta["tool_error"] = toolErr
	}

	resp, err := o.dispatchAndWait(ctx, &models.LLMJob{
		RequestID:     req.RequestID,
		Step:          models.StepSummarize,
		Message:       req.Message,
		SystemPrompt:  prompt.SummarizePrompt(decision, opts),
		ResponseTopic: o.bus.ResponseTopic(),
		Metadata:      meta,
	}, models.StatusSummarizing)
	if err != nil {
		return "", fmt.Errorf("summarize step: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("summarize step: worker error: %s", resp.Error)
	}
	if resp.FinalAnswer == "" {
		return "", errors.New("summarize step: empty final answer")
	}
	return resp.FinalAnswer, nil
}

// dispatchAndWait registers a waiter, publishes the job, emits the step
// status, and blocks for the response up to the step timeout.
func (o *Orchestrator) dispatchAndWait(ctx context.Context, job *models.LLMJob, status string) (*models.LLMResponse, error) {
	ch, err := o.registry.register(job.RequestID)
	if err != nil {
		return nil, err
	}

	o.metrics.LLMJobStarted()
	started := time.Now()
	defer func() {
		o.metrics.LLMJobFinished(job.Step, time.Since(started))
	}()

	if err := o.bus.PublishJob(ctx, job); err != nil {
		o.registry.drop(job.RequestID)
		return nil, fmt.Errorf("publish %s job: %w", job.Step, err)
	}
	o.sendStatus(ctx, job.RequestID, status, nil)

	timer := time.NewTimer(o.cfg.StepTimeout)
	defer timer.Stop()
	select {
	case resp, ok := <-ch:
		if !ok || resp == nil {
			return nil, fmt.Errorf("%s: waiter cancelled", job.Step)
		}
		return resp, nil
	case <-timer.C:
		o.registry.drop(job.RequestID)
		return nil, fmt.Errorf("%s: %w", job.Step, ErrStepTimeout)
	case <-ctx.Done():
		o.registry.drop(job.RequestID)
		return nil, ctx.Err()
	}
}

type completion struct {
	decision   models.Decision
	answer     string
	toolArgs   map[string]any
	toolResult map[string]any
	err        string
}

// complete publishes the single terminal event, appends assistant
// history, persists the durable log, and fires the background summary
// update.
func (o *Orchestrator) complete(ctx context.Context, req *models.ChatRequest, c completion, logger *slog.Logger) {
	var audioURL string
	if o.audio != nil && req.SessionType.WantsAudio() {
		url, err := o.audio.Generate(ctx, c.answer)
		if err != nil {
			logger.Warn("audio generation failed", "error", err)
		} else {
			audioURL = url
		}
	}

	if err := o.store.AppendHistory(ctx, req.UserID, req.SessionID, models.HistoryEntry{
		Role:    models.RoleAssistant,
		Content: c.answer,
	}); err != nil {
		logger.Warn("assistant history append failed", "error", err)
	}

	event := &models.StatusEvent{
		RequestID:   req.RequestID,
		Status:      models.StatusCompleted,
		Step:        models.StepSummarize,
		FinalAnswer: c.answer,
		ToolResult:  c.toolResult,
		AudioURL:    audioURL,
		Error:       c.err,
		Source:      models.OrchestratorSource,
	}
	if err := o.store.PublishStatus(ctx, event); err != nil {
		logger.Error("terminal event publish failed", "error", err)
	}
	// Mirror the completion onto the responses stream so external
	// consumers see terminal outcomes alongside worker traffic. The
	// response loop skips orchestrator-sourced entries.
	echo := &models.LLMResponse{
		RequestID:   req.RequestID,
		Step:        models.StepSummarize,
		FinalAnswer: c.answer,
		Error:       c.err,
		Source:      models.OrchestratorSource,
	}
	if err := o.bus.PublishResponse(ctx, echo); err != nil {
		logger.Warn("completion echo publish failed", "error", err)
	}
	logger.Info("request completed")

	log := &models.ChatLog{
		RequestID:    req.RequestID,
		SessionID:    req.SessionID,
		UserID:       req.UserID,
		UserQuery:    req.Message,
		ToolRequired: c.decision == models.DecisionTool,
		Status:       "completed",
		Complete:     true,
		FinalAnswer:  c.answer,
		ToolResult:   c.toolResult,
		AudioURL:     audioURL,
		Error:        c.err,
		Timestamp:    time.Now().UTC(),
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.logs.Save(o.runCtx, log); err != nil {
			logger.Error("chat log save failed", "error", err)
		}
	}()

	o.dispatchSummaryUpdate(ctx, req, c.answer, c.toolArgs, logger)
}

// completeWithFallback routes unrecoverable errors through the normal
// completion path with a neutral canned answer.
func (o *Orchestrator) completeWithFallback(ctx context.Context, req *models.ChatRequest, cause error, logger *slog.Logger) {
	msg := fallbackMessages[rand.IntN(len(fallbackMessages))]
	logger.Info("sending fallback response")
	o.complete(ctx, req, completion{
		decision: models.DecisionNoTool,
		answer:   msg,
		err:      cause.Error(),
	}, logger)
}

// dispatchSummaryUpdate fires the background memory-update job under a
// fresh SUMMARY- id. There is no waiter; the response loop writes the
// result when it arrives.
func (o *Orchestrator) dispatchSummaryUpdate(ctx context.Context, req *models.ChatRequest, answer string, toolArgs map[string]any, logger *slog.Logger) {
	summary, err := o.store.ReadSummary(ctx, req.UserID, req.SessionID)
	if err != nil {
		logger.Warn("summary read for update failed", "error", err)
	}
	if summary == nil {
		summary = &models.SessionSummary{UserID: req.UserID, SessionID: req.SessionID}
	}

	summaryJSON, _ := json.Marshal(summary)
	argsJSON, _ := json.Marshal(toolArgs)
	input := fmt.Sprintf("Current Summary: %s\nLast Assistant Answer: %s\nNew Tool Args: %s",
		summaryJSON, answer, argsJSON)

	job := &models.LLMJob{
		RequestID:     models.SummaryJobPrefix + models.NewRequestID(req.UserID),
		Step:          models.StepCustom,
		Message:       input,
		SystemPrompt:  prompt.SummaryUpdatePrompt(),
		JSONResponse:  true,
		ResponseTopic: o.bus.ResponseTopic(),
		Metadata: map[string]any{
			"user_id":    req.UserID,
			"session_id": req.SessionID,
			"type":       "session_update",
		},
	}
	if err := o.bus.PublishJob(ctx, job); err != nil {
		logger.Warn("summary update dispatch failed", "error", err)
		return
	}
	logger.Debug("summary update dispatched", "summary_request_id", job.RequestID)
}

func (o *Orchestrator) sendStatus(ctx context.Context, requestID, status string, extra map[string]any) {
	event := &models.StatusEvent{
		RequestID: requestID,
		Status:    status,
		Source:    models.OrchestratorSource,
		Extra:     extra,
	}
	if err := o.store.PublishStatus(ctx, event); err != nil {
		o.logger.Warn("status publish failed", "request_id", requestID, "status", status, "error", err)
	}
}

func resultHasDocs(result map[string]any) bool {
	if result == nil {
		return false
	}
	if docs, ok := result["docs"].([]any); ok {
		return len(docs) > 0
	}
	return len(result) > 0
}
