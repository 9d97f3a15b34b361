// Package metrics tracks request throughput, pipeline latency, and token
// rates for the orchestration engine.
package metrics

import (
	"sync"
	"time"
)

// windowSize bounds each rolling sample window.
const windowSize = 100

// Registry holds all counters, gauges, and rolling windows. All methods
// are safe for concurrent use.
type Registry struct {
	mu sync.Mutex

	incomingRequests  int64
	completedRequests int64
	failedRequests    int64
	tokensGenerated   int64

	activeRequests int64
	activeLLMJobs  int64

	requestLatency *window
	llmJobLatency  *window
	tokensPerSec   *window
	stepLatency    map[string]*window

	startedAt time.Time
}

// NewRegistry creates an empty metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		requestLatency: newWindow(windowSize),
		llmJobLatency:  newWindow(windowSize),
		tokensPerSec:   newWindow(windowSize),
		stepLatency:    make(map[string]*window),
		startedAt:      time.Now(),
	}
}

// RequestStarted records an accepted request.
func (r *Registry) RequestStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incomingRequests++
	r.activeRequests++
}

// RequestCompleted records a finished request and its total latency.
func (r *Registry) RequestCompleted(latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completedRequests++
	r.activeRequests--
	r.requestLatency.add(latency.Seconds())
}

// RequestFailed records a request that ended on the fallback path.
func (r *Registry) RequestFailed(latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedRequests++
	r.activeRequests--
	r.requestLatency.add(latency.Seconds())
}

// LLMJobStarted bumps the active LLM jobs gauge.
func (r *Registry) LLMJobStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeLLMJobs++
}

// LLMJobFinished records one LLM job's latency and lowers the gauge.
func (r *Registry) LLMJobFinished(step string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeLLMJobs--
	r.llmJobLatency.add(latency.Seconds())

	w, ok := r.stepLatency[step]
	if !ok {
		w = newWindow(windowSize)
		r.stepLatency[step] = w
	}
	w.add(latency.Seconds())
}

// TokensGenerated records worker-reported token usage. The rate sample is
// tokens divided by the call duration in seconds.
func (r *Registry) TokensGenerated(count int, duration float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokensGenerated += int64(count)
	if duration > 0 {
		r.tokensPerSec.add(float64(count) / duration)
	}
}

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	UptimeSeconds     float64            `json:"uptime_seconds"`
	IncomingRequests  int64              `json:"incoming_requests"`
	CompletedRequests int64              `json:"completed_requests"`
	FailedRequests    int64              `json:"failed_requests"`
	TokensGenerated   int64              `json:"tokens_generated"`
	ActiveRequests    int64              `json:"active_requests"`
	ActiveLLMJobs     int64              `json:"active_llm_jobs"`
	AvgRequestLatency float64            `json:"avg_request_latency_seconds"`
	AvgLLMJobLatency  float64            `json:"avg_llm_job_latency_seconds"`
	AvgTokensPerSec   float64            `json:"avg_tokens_per_second"`
	AvgStepLatency    map[string]float64 `json:"avg_step_latency_seconds"`
}

// Snapshot returns current values with simple averages over the windows.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	steps := make(map[string]float64, len(r.stepLatency))
	for name, w := range r.stepLatency {
		steps[name] = w.avg()
	}

	return Snapshot{
		UptimeSeconds:     time.Since(r.startedAt).Seconds(),
		IncomingRequests:  r.incomingRequests,
		CompletedRequests: r.completedRequests,
		FailedRequests:    r.failedRequests,
		TokensGenerated:   r.tokensGenerated,
		ActiveRequests:    r.activeRequests,
		ActiveLLMJobs:     r.activeLLMJobs,
		AvgRequestLatency: r.requestLatency.avg(),
		AvgLLMJobLatency:  r.llmJobLatency.avg(),
		AvgTokensPerSec:   r.tokensPerSec.avg(),
		AvgStepLatency:    steps,
	}
}

// window is a fixed-size ring of float samples.
type window struct {
	samples []float64
	next    int
}

func newWindow(size int) *window {
	return &window{samples: make([]float64, 0, size)}
}

func (w *window) add(v float64) {
	if len(w.samples) < cap(w.samples) {
		w.samples = append(w.samples, v)
		return
	}
	w.samples[w.next] = v
	w.next = (w.next + 1) % cap(w.samples)
}

func (w *window) avg() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range w.samples {
		sum += v
	}
	return sum / float64(len(w.samples))
}
