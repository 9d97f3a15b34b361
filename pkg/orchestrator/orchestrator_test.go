package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smritlabs/matchbox/pkg/bus"
	"github.com/smritlabs/matchbox/pkg/config"
	"github.com/smritlabs/matchbox/pkg/mcp"
	"github.com/smritlabs/matchbox/pkg/models"
	"github.com/smritlabs/matchbox/pkg/toolargs"
)

// fakeWorker simulates the remote LLM worker pool: a job published on
// the fake bus is answered by the per-step script, if any.
type fakeWorker struct {
	mu      sync.Mutex
	scripts map[string]func(job *models.LLMJob) *models.LLMResponse
	jobs    []*models.LLMJob
}

func (w *fakeWorker) script(step string, fn func(job *models.LLMJob) *models.LLMResponse) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scripts == nil {
		w.scripts = make(map[string]func(job *models.LLMJob) *models.LLMResponse)
	}
	w.scripts[step] = fn
}

func (w *fakeWorker) job(step string) *models.LLMJob {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, j := range w.jobs {
		if j.Step == step {
			return j
		}
	}
	return nil
}

func (w *fakeWorker) jobSteps() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	steps := make([]string, 0, len(w.jobs))
	for _, j := range w.jobs {
		steps = append(steps, j.Step)
	}
	return steps
}

type fakeBus struct {
	worker    *fakeWorker
	mu        sync.Mutex
	handler   bus.ResponseHandler
	responses []*models.LLMResponse
}

func (b *fakeBus) PublishJob(ctx context.Context, job *models.LLMJob) error {
	b.worker.mu.Lock()
	b.worker.jobs = append(b.worker.jobs, job)
	fn := b.worker.scripts[job.Step]
	b.worker.mu.Unlock()

	if fn == nil {
		return nil
	}
	resp := fn(job)
	if resp == nil {
		return nil
	}
	resp.RequestID = job.RequestID
	resp.Step = job.Step
	if resp.Metadata == nil {
		resp.Metadata = job.Metadata
	}

	b.mu.Lock()
	handler := b.handler
	b.mu.Unlock()
	if handler != nil {
		go handler(ctx, resp)
	}
	return nil
}

func (b *fakeBus) PublishResponse(ctx context.Context, resp *models.LLMResponse) error {
	b.mu.Lock()
	b.responses = append(b.responses, resp)
	handler := b.handler
	b.mu.Unlock()
	if handler != nil {
		go handler(ctx, resp)
	}
	return nil
}

func (b *fakeBus) published() []*models.LLMResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*models.LLMResponse(nil), b.responses...)
}

func (b *fakeBus) SubscribeResponses(_ context.Context, handler bus.ResponseHandler) {
	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()
}

func (b *fakeBus) ResponseTopic() string { return "llm-responses" }

// fakeStore is an in-memory keyed store shared by the pipeline and the
// tool-arg engine.
type fakeStore struct {
	mu        sync.Mutex
	history   map[string][]models.HistoryEntry
	summaries map[string]*models.SessionSummary
	toolState map[string]map[string]any
	events    map[string][]*models.StatusEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		history:   make(map[string][]models.HistoryEntry),
		summaries: make(map[string]*models.SessionSummary),
		toolState: make(map[string]map[string]any),
		events:    make(map[string][]*models.StatusEvent),
	}
}

func scoped(userID, sessionID string) string { return userID + ":" + sessionID }

func (s *fakeStore) AppendHistory(_ context.Context, userID, sessionID string, entry models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scoped(userID, sessionID)
	h := append(s.history[key], entry)
	if len(h) > models.HistoryLimit {
		h = h[len(h)-models.HistoryLimit:]
	}
	s.history[key] = h
	return nil
}

func (s *fakeStore) ReadHistory(_ context.Context, userID, sessionID string) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.HistoryEntry(nil), s.history[scoped(userID, sessionID)]...), nil
}

func (s *fakeStore) ReadSummary(_ context.Context, userID, sessionID string) (*models.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaries[scoped(userID, sessionID)], nil
}

func (s *fakeStore) WriteSummary(_ context.Context, userID, sessionID string, summary *models.SessionSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[scoped(userID, sessionID)] = summary
	return nil
}

func (s *fakeStore) ReadToolState(_ context.Context, userID, sessionID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.toolState[scoped(userID, sessionID)]
	if !ok {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(blob)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *fakeStore) WriteToolState(_ context.Context, userID, sessionID string, state map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolState[scoped(userID, sessionID)] = state
	return nil
}

func (s *fakeStore) PublishStatus(_ context.Context, event *models.StatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RequestID] = append(s.events[event.RequestID], event)
	return nil
}

func (s *fakeStore) terminalEvents(requestID string) []*models.StatusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.StatusEvent
	for _, e := range s.events[requestID] {
		if e.Terminal() {
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeStore) statuses(requestID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events[requestID] {
		out = append(out, e.Status)
	}
	return out
}

type fakeTools struct {
	mu      sync.Mutex
	catalog []mcp.Tool
	call    func(name string, args map[string]any) *mcp.ToolResult
	calls   []string
}

func (t *fakeTools) Tools() []mcp.Tool { return t.catalog }

func (t *fakeTools) Schema(name string) map[string]any {
	for _, tool := range t.catalog {
		if tool.Name == name {
			return tool.Schema
		}
	}
	return nil
}

func (t *fakeTools) CallTool(_ context.Context, name string, args map[string]any) *mcp.ToolResult {
	t.mu.Lock()
	t.calls = append(t.calls, name)
	t.mu.Unlock()
	return t.call(name, args)
}

type fakeLogs struct {
	mu   sync.Mutex
	logs []*models.ChatLog
}

func (l *fakeLogs) Save(_ context.Context, log *models.ChatLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, log)
	return nil
}

func (l *fakeLogs) last() *models.ChatLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.logs) == 0 {
		return nil
	}
	return l.logs[len(l.logs)-1]
}

var searchProfilesTool = mcp.Tool{
	Name:        "search_profiles",
	Description: "Filter profiles by attributes.",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id":    map[string]any{"type": "string"},
			"gender":     map[string]any{"type": "string", "enum": []any{"male", "female"}},
			"hair_style": map[string]any{"type": "string"},
			"location":   map[string]any{"type": "string"},
			"image_url":  map[string]any{"type": "string"},
			"page":       map[string]any{"type": "integer"},
		},
	},
}

var recommendationsTool = mcp.Tool{
	Name:        "get_profile_recommendations",
	Description: "Fetch details for recommended profiles.",
	Schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]any{"type": "string"},
			"recommendation_ids": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	},
}

func docsOutput(ids ...string) map[string]any {
	docs := make([]any, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, map[string]any{"id": id})
	}
	return map[string]any{"docs": docs}
}

type fixture struct {
	orch   *Orchestrator
	worker *fakeWorker
	bus    *fakeBus
	store  *fakeStore
	tools  *fakeTools
	logs   *fakeLogs
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	worker := &fakeWorker{}
	st := newFakeStore()
	tools := &fakeTools{
		catalog: []mcp.Tool{searchProfilesTool, recommendationsTool},
		call: func(string, map[string]any) *mcp.ToolResult {
			return &mcp.ToolResult{Success: true, Output: docsOutput("p1", "p2", "p3")}
		},
	}
	logs := &fakeLogs{}
	jobBus := &fakeBus{worker: worker}

	orch, err := New(Deps{
		Config: config.OrchestratorConfig{
			StepTimeout:  timeout,
			PingInterval: time.Hour,
		},
		Bus:    jobBus,
		Store:  st,
		Tools:  tools,
		Engine: toolargs.NewEngine(st),
		Logs:   logs,
	})
	require.NoError(t, err)
	orch.Start()
	t.Cleanup(orch.Stop)

	return &fixture{orch: orch, worker: worker, bus: jobBus, store: st, tools: tools, logs: logs}
}

func respond(fields models.LLMResponse) func(*models.LLMJob) *models.LLMResponse {
	return func(*models.LLMJob) *models.LLMResponse {
		out := fields
		return &out
	}
}

func (f *fixture) await(t *testing.T, requestID string) *models.StatusEvent {
	t.Helper()
	var terminal *models.StatusEvent
	require.Eventually(t, func() bool {
		events := f.store.terminalEvents(requestID)
		if len(events) == 0 {
			return false
		}
		terminal = events[0]
		return true
	}, 3*time.Second, 5*time.Millisecond)
	return terminal
}

func (f *fixture) send(t *testing.T, message string) string {
	t.Helper()
	return f.sendRequest(t, &models.ChatRequest{Message: message})
}

func (f *fixture) sendRequest(t *testing.T, req *models.ChatRequest) string {
	t.Helper()
	req.UserID = "u1"
	req.SessionID = "s1"
	id, err := f.orch.HandleRequest(context.Background(), req)
	require.NoError(t, err)
	return id
}

func scriptToolTurn(f *fixture, args map[string]any, answer string) {
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "tool"}))
	f.worker.script(models.StepSelectTool, respond(models.LLMResponse{SelectedTool: "search_profiles"}))
	f.worker.script(models.StepGetToolArgs, respond(models.LLMResponse{ToolArgs: args}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{FinalAnswer: answer}))
}

func TestHappyPathSearch(t *testing.T) {
	f := newFixture(t, time.Second)
	scriptToolTurn(f, map[string]any{
		"gender": "female", "hair_style": "curly", "location": "Bangalore",
	}, "Found a few people you might really like!")

	id := f.send(t, "show me girls with curly hair in Bangalore")
	terminal := f.await(t, id)

	assert.Equal(t, "Found a few people you might really like!", terminal.FinalAnswer)
	assert.Equal(t, models.StatusCompleted, terminal.Status)
	assert.Empty(t, terminal.Error)
	assert.Len(t, terminal.ToolResult["docs"], 3)

	statuses := f.store.statuses(id)
	for _, want := range []string{
		models.StatusReceived, models.StatusCheckingTools, models.StatusSelectingTool,
		models.StatusExtractingArgs, models.StatusToolSelected, models.StatusToolExecuted,
		models.StatusSummarizing,
	} {
		assert.Contains(t, statuses, want)
	}
	assert.Len(t, f.store.terminalEvents(id), 1)

	state, err := f.store.ReadToolState(context.Background(), "u1", "s1")
	require.NoError(t, err)
	section := state["search_profiles"].(map[string]any)
	assert.Equal(t, "female", section["gender"])
	assert.Equal(t, "curly", section["hair_style"])
	assert.Equal(t, "Bangalore", section["location"])
	assert.EqualValues(t, 1, section["page"])

	seen := state["_seen_docs"].(map[string]any)["search_profiles"].([]any)
	assert.ElementsMatch(t, []any{"p1", "p2", "p3"}, seen)
}

func TestPagination(t *testing.T) {
	f := newFixture(t, time.Second)
	scriptToolTurn(f, map[string]any{
		"gender": "female", "hair_style": "curly", "location": "Bangalore",
	}, "Here you go!")
	f.await(t, f.send(t, "show me girls with curly hair in Bangalore"))

	f.tools.call = func(string, map[string]any) *mcp.ToolResult {
		return &mcp.ToolResult{Success: true, Output: docsOutput("p4", "p5")}
	}
	f.worker.script(models.StepGetToolArgs, respond(models.LLMResponse{
		ToolArgs: map[string]any{"page": float64(1)},
	}))
	f.await(t, f.send(t, "more"))

	state, err := f.store.ReadToolState(context.Background(), "u1", "s1")
	require.NoError(t, err)
	section := state["search_profiles"].(map[string]any)
	assert.EqualValues(t, 2, section["page"])
	assert.Equal(t, "female", section["gender"])
	assert.Equal(t, "Bangalore", section["location"])
}

func TestAutoResetOnEmptyDocs(t *testing.T) {
	f := newFixture(t, time.Second)
	scriptToolTurn(f, map[string]any{"gender": "female", "location": "Assam"},
		"Nothing popped up just yet. Want to try a nearby city?")
	f.tools.call = func(string, map[string]any) *mcp.ToolResult {
		return &mcp.ToolResult{Success: true, Output: map[string]any{"docs": []any{}}}
	}
	f.await(t, f.send(t, "girls in Assam"))

	state, err := f.store.ReadToolState(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.NotContains(t, state, "search_profiles")

	// The next turn starts fresh from page 1.
	f.tools.call = func(_ string, args map[string]any) *mcp.ToolResult {
		assert.EqualValues(t, 1, args["page"])
		assert.Equal(t, "Chennai", args["location"])
		return &mcp.ToolResult{Success: true, Output: docsOutput("p9")}
	}
	f.worker.script(models.StepGetToolArgs, respond(models.LLMResponse{
		ToolArgs: map[string]any{"gender": "female", "location": "Chennai"},
	}))
	f.await(t, f.send(t, "girls in Chennai"))

	state, err = f.store.ReadToolState(context.Background(), "u1", "s1")
	require.NoError(t, err)
	section := state["search_profiles"].(map[string]any)
	assert.EqualValues(t, 1, section["page"])
}

func TestClarificationSkipsTools(t *testing.T) {
	f := newFixture(t, time.Second)
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "ask_clarification"}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{
		FinalAnswer: "Are you looking for matches from a specific city in North India?",
	}))

	id := f.send(t, "North India")
	terminal := f.await(t, id)

	assert.Contains(t, terminal.FinalAnswer, "?")
	assert.Empty(t, f.tools.calls)
	assert.NotContains(t, f.worker.jobSteps(), models.StepSelectTool)
	assert.NotContains(t, f.worker.jobSteps(), models.StepGetToolArgs)

	f.orch.Stop()
	log := f.logs.last()
	require.NotNil(t, log)
	assert.False(t, log.ToolRequired)
	assert.Equal(t, "completed", log.Status)
}

func TestInappropriateBlock(t *testing.T) {
	f := newFixture(t, time.Second)
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "inappropriate_block"}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{
		FinalAnswer: "I can't help with that. Happy to help you find genuine connections instead.",
	}))

	id := f.send(t, "explicit request")
	terminal := f.await(t, id)

	assert.NotEmpty(t, terminal.FinalAnswer)
	assert.Empty(t, f.tools.calls)
	assert.NotContains(t, f.worker.jobSteps(), models.StepSelectTool)
}

func TestGibberishShortCircuit(t *testing.T) {
	f := newFixture(t, time.Second)
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "gibberish"}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{
		FinalAnswer: "I didn't quite get that, mind rephrasing?",
	}))

	id := f.send(t, "asdkjh qwe zzz")
	f.await(t, id)

	assert.Empty(t, f.tools.calls)
	assert.NotContains(t, f.worker.jobSteps(), models.StepSelectTool)
}

func TestWorkerTimeoutFallsBack(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	// No script for any step: the worker never answers.

	id := f.send(t, "show me girls in Bangalore")
	terminal := f.await(t, id)

	assert.Contains(t, fallbackMessages, terminal.FinalAnswer)
	assert.NotEmpty(t, terminal.Error)
	assert.Len(t, f.store.terminalEvents(id), 1)

	f.orch.Stop()
	log := f.logs.last()
	require.NotNil(t, log)
	assert.Equal(t, "completed", log.Status)
	assert.True(t, log.Complete)
	assert.NotEmpty(t, log.Error)
}

func TestSelectToolStallFallsBack(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "tool"}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{FinalAnswer: "Plenty of great matches around!"}))
	// select_tool never answers; the turn must not reach summarization.

	id := f.send(t, "show me girls in Bangalore")
	terminal := f.await(t, id)

	assert.Contains(t, fallbackMessages, terminal.FinalAnswer)
	assert.NotEqual(t, "Plenty of great matches around!", terminal.FinalAnswer)
	assert.NotEmpty(t, terminal.Error)
	assert.Len(t, f.store.terminalEvents(id), 1)

	f.orch.Stop()
	log := f.logs.last()
	require.NotNil(t, log)
	assert.NotEmpty(t, log.Error)
}

func TestArgExtractionStallFallsBack(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "tool"}))
	f.worker.script(models.StepSelectTool, respond(models.LLMResponse{SelectedTool: "search_profiles"}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{FinalAnswer: "Here you go!"}))

	id := f.send(t, "curly hair please")
	terminal := f.await(t, id)

	assert.Contains(t, fallbackMessages, terminal.FinalAnswer)
	assert.NotEmpty(t, terminal.Error)
	assert.Empty(t, f.tools.calls)
}

func TestImageReferenceForwardedToTool(t *testing.T) {
	f := newFixture(t, time.Second)
	scriptToolTurn(f, map[string]any{"gender": "female"}, "Found some lookalikes!")

	var mu sync.Mutex
	var got map[string]any
	f.tools.call = func(_ string, args map[string]any) *mcp.ToolResult {
		mu.Lock()
		got = args
		mu.Unlock()
		return &mcp.ToolResult{Success: true, Output: docsOutput("p1")}
	}

	id := f.sendRequest(t, &models.ChatRequest{
		Message:  "find profiles that look like this photo",
		ImageURL: "https://cdn.example.com/u1/selfie.jpg",
	})
	f.await(t, id)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, "https://cdn.example.com/u1/selfie.jpg", got["image_url"])

	extraction := f.worker.job(models.StepGetToolArgs)
	require.NotNil(t, extraction)
	assert.Equal(t, "https://cdn.example.com/u1/selfie.jpg", extraction.Metadata["image_url"])
}

func TestRecommendationIDsForwardedToTool(t *testing.T) {
	f := newFixture(t, time.Second)
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "tool"}))
	f.worker.script(models.StepSelectTool, respond(models.LLMResponse{SelectedTool: "get_profile_recommendations"}))
	f.worker.script(models.StepGetToolArgs, respond(models.LLMResponse{ToolArgs: map[string]any{}}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{FinalAnswer: "Here are your picks!"}))

	var mu sync.Mutex
	var got map[string]any
	f.tools.call = func(_ string, args map[string]any) *mcp.ToolResult {
		mu.Lock()
		got = args
		mu.Unlock()
		return &mcp.ToolResult{Success: true, Output: docsOutput("r1", "r2")}
	}

	id := f.sendRequest(t, &models.ChatRequest{
		Message:           "tell me more about these two",
		RecommendationIDs: []string{"r1", "r2"},
	})
	terminal := f.await(t, id)

	assert.Equal(t, "Here are your picks!", terminal.FinalAnswer)
	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, []any{"r1", "r2"}, got["recommendation_ids"])
}

func TestCompletionEchoedOnResponseStream(t *testing.T) {
	f := newFixture(t, time.Second)
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "no_tool"}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{FinalAnswer: "Hello hello!"}))

	id := f.send(t, "hi")
	terminal := f.await(t, id)
	assert.Equal(t, "Hello hello!", terminal.FinalAnswer)

	var echo *models.LLMResponse
	require.Eventually(t, func() bool {
		for _, resp := range f.bus.published() {
			if resp.RequestID == id {
				echo = resp
				return true
			}
		}
		return false
	}, 3*time.Second, 5*time.Millisecond)

	assert.Equal(t, models.OrchestratorSource, echo.Source)
	assert.Equal(t, "Hello hello!", echo.FinalAnswer)

	// The echo loops back through the response consumer; it must not
	// produce a second terminal event.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.store.terminalEvents(id), 1)
}

func TestSessionLockScopedPerSession(t *testing.T) {
	f := newFixture(t, time.Second)

	a := f.orch.sessionLock("u1", "s1")
	b := f.orch.sessionLock("u1", "s1")
	c := f.orch.sessionLock("u1", "s2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestUnknownDecisionTreatedAsNoTool(t *testing.T) {
	f := newFixture(t, time.Second)
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "shrug"}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{FinalAnswer: "Hey there!"}))

	id := f.send(t, "hello")
	terminal := f.await(t, id)

	assert.Equal(t, "Hey there!", terminal.FinalAnswer)
	assert.Empty(t, f.tools.calls)
}

func TestToolErrorStillSummarizes(t *testing.T) {
	f := newFixture(t, time.Second)
	scriptToolTurn(f, map[string]any{"gender": "female"}, "Let's try that search again in a moment!")
	f.tools.call = func(string, map[string]any) *mcp.ToolResult {
		return &mcp.ToolResult{Success: false, Error: "backend unavailable"}
	}

	id := f.send(t, "girls with curly hair")
	terminal := f.await(t, id)

	assert.Equal(t, "Let's try that search again in a moment!", terminal.FinalAnswer)
	assert.Contains(t, f.store.statuses(id), models.StatusToolError)
	assert.Nil(t, terminal.ToolResult)
}

func TestSummaryUpdateWritesSessionSummary(t *testing.T) {
	f := newFixture(t, time.Second)
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "no_tool"}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{FinalAnswer: "Nice to meet you, Arjun!"}))
	f.worker.script(models.StepCustom, respond(models.LLMResponse{
		CustomResponse: "```json\n{\"important_points\": [\"prefers Kerala\"], \"user_details\": [\"name is Arjun\"]}\n```",
	}))

	f.await(t, f.send(t, "hi, I'm Arjun from Kerala"))

	require.Eventually(t, func() bool {
		s, _ := f.store.ReadSummary(context.Background(), "u1", "s1")
		return s != nil
	}, 3*time.Second, 5*time.Millisecond)

	s, err := f.store.ReadSummary(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"prefers Kerala"}, s.ImportantPoints)
	assert.Equal(t, []string{"name is Arjun"}, s.UserDetails)
	assert.Equal(t, "u1", s.UserID)
	assert.NotZero(t, s.LastUpdated)
}

func TestPongsDiscarded(t *testing.T) {
	f := newFixture(t, time.Second)
	fb := f.orch.bus.(*fakeBus)

	// A pong with a colliding request id must not resolve any waiter.
	fb.handler(context.Background(), &models.LLMResponse{Type: "pong", RequestID: "anything"})

	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "no_tool"}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{FinalAnswer: "Hello!"}))
	terminal := f.await(t, f.send(t, "hello"))
	assert.Equal(t, "Hello!", terminal.FinalAnswer)
}

func TestAssistantHistoryAppended(t *testing.T) {
	f := newFixture(t, time.Second)
	f.worker.script(models.StepCheckToolRequired, respond(models.LLMResponse{Decision: "no_tool"}))
	f.worker.script(models.StepSummarize, respond(models.LLMResponse{FinalAnswer: "Hello!"}))

	f.await(t, f.send(t, "hello"))

	history, err := f.store.ReadHistory(context.Background(), "u1", "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, "Hello!", history[1].Content)
}
