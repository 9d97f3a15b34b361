package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistryCounters(t *testing.T) {
	r := NewRegistry()

	r.RequestStarted()
	r.RequestStarted()
	r.RequestCompleted(2 * time.Second)
	r.RequestFailed(4 * time.Second)

	snap := r.Snapshot()
	assert.Equal(t, int64(2), snap.IncomingRequests)
	assert.Equal(t, int64(1), snap.CompletedRequests)
	assert.Equal(t, int64(1), snap.FailedRequests)
	assert.Equal(t, int64(0), snap.ActiveRequests)
	assert.InDelta(t, 3.0, snap.AvgRequestLatency, 0.001)
}

func TestRegistryStepLatency(t *testing.T) {
	r := NewRegistry()

	r.LLMJobStarted()
	r.LLMJobFinished("check_tool_required", time.Second)
	r.LLMJobStarted()
	r.LLMJobFinished("check_tool_required", 3*time.Second)
	r.LLMJobStarted()
	r.LLMJobFinished("summarize", 2*time.Second)

	snap := r.Snapshot()
	assert.Equal(t, int64(0), snap.ActiveLLMJobs)
	assert.InDelta(t, 2.0, snap.AvgStepLatency["check_tool_required"], 0.001)
	assert.InDelta(t, 2.0, snap.AvgStepLatency["summarize"], 0.001)
	assert.InDelta(t, 2.0, snap.AvgLLMJobLatency, 0.001)
}

func TestRegistryTokens(t *testing.T) {
	r := NewRegistry()

	r.TokensGenerated(100, 2.0)
	r.TokensGenerated(300, 3.0)
	// Zero duration never produces a rate sample
	r.TokensGenerated(50, 0)

	snap := r.Snapshot()
	assert.Equal(t, int64(450), snap.TokensGenerated)
	assert.InDelta(t, 75.0, snap.AvgTokensPerSec, 0.001) // (50+100)/2
}

func TestWindowBounded(t *testing.T) {
	w := newWindow(3)
	for i := 1; i <= 5; i++ {
		w.add(float64(i))
	}
	// Oldest samples evicted: window holds 4, 5, 3 → avg 4
	assert.Len(t, w.samples, 3)
	assert.InDelta(t, 4.0, w.avg(), 0.001)
}

func TestRegistryConcurrency(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RequestStarted()
			r.LLMJobStarted()
			r.LLMJobFinished("summarize", time.Millisecond)
			r.TokensGenerated(10, 0.1)
			r.RequestCompleted(time.Millisecond)
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	assert.Equal(t, int64(50), snap.IncomingRequests)
	assert.Equal(t, int64(50), snap.CompletedRequests)
	assert.Equal(t, int64(0), snap.ActiveRequests)
	assert.Equal(t, int64(500), snap.TokensGenerated)
}
