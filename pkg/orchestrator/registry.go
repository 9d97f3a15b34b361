package orchestrator

import (
	"fmt"
	"sync"

	"github.com/smritlabs/matchbox/pkg/models"
)

// registry correlates outbound request ids with inbound bus responses.
// Each registered id owns a one-shot channel; the first resolve wins and
// later ones are dropped. Shutdown closes every outstanding channel so
// waiters observe cancellation.
type registry struct {
	mu      sync.Mutex
	pending map[string]chan *models.LLMResponse
	closed  bool
}

func newRegistry() *registry {
	return &registry{pending: make(map[string]chan *models.LLMResponse)}
}

// register creates a waiter for the id. Registering an id that is
// already in flight is a caller bug and fails.
func (r *registry) register(id string) (<-chan *models.LLMResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("registry shut down")
	}
	if _, exists := r.pending[id]; exists {
		return nil, fmt.Errorf("request %s already pending", id)
	}
	ch := make(chan *models.LLMResponse, 1)
	r.pending[id] = ch
	return ch, nil
}

// resolve delivers the response to the waiter, if any. A second resolve
// for the same id, or a resolve after shutdown, is a no-op.
func (r *registry) resolve(id string, resp *models.LLMResponse) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.pending[id]
	if !ok {
		return false
	}
	delete(r.pending, id)
	ch <- resp
	close(ch)
	return true
}

// drop abandons a waiter without delivering, used on timeout.
func (r *registry) drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.pending[id]; ok {
		delete(r.pending, id)
		close(ch)
	}
}

// shutdown cancels every outstanding waiter. Waiters receive a closed
// channel and read the zero value.
func (r *registry) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.pending {
		delete(r.pending, id)
		close(ch)
	}
}
