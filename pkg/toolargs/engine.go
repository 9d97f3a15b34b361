// Package toolargs turns per-turn LLM-extracted arguments into stable,
// schema-valid tool calls: merging with persisted state, pagination,
// schema pruning, result deduplication, and auto-reset on empty results.
package toolargs

import (
	"context"
	"fmt"
)

// Keys with reserved meaning inside raw argument objects.
const (
	keyPage     = "page"
	keyReset    = "_reset"
	keyUserID   = "user_id"
	keySeenDocs = "_seen_docs"
)

// maxPageRetries bounds "already seen" re-fetches per turn.
const maxPageRetries = 4

// dupThreshold is the number of already-seen docs above which a page is
// treated as stale.
const dupThreshold = 4

// StateStore persists the per-(user, session) tool-state blob.
type StateStore interface {
	ReadToolState(ctx context.Context, userID, sessionID string) (map[string]any, error)
	WriteToolState(ctx context.Context, userID, sessionID string, state map[string]any) error
}

// CallFunc re-invokes the tool with adjusted arguments during
// deduplication retries.
type CallFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// Engine owns the merge/validate/prune pipeline. It does no locking of
// its own; the caller serializes concurrent turns on the same (user,
// session) around Prepare, the tool call, and HandleResult.
type Engine struct {
	store StateStore
}

// NewEngine creates an Engine on the given state store.
func NewEngine(store StateStore) *Engine {
	return &Engine{store: store}
}

// Prepare merges raw LLM-extracted arguments with the persisted baseline
// for the tool, applies pagination and reset semantics, injects the user
// id, prunes by schema, persists, and returns the call-ready arguments.
func (e *Engine) Prepare(ctx context.Context, userID, sessionID, tool string, rawArgs, schema map[string]any) (map[string]any, error) {
	state, err := e.store.ReadToolState(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load tool state: %w", err)
	}

	baseline := asObject(state[tool])
	raw := copyObject(rawArgs)

	// Pagination normalization: a positive page is a "next page" marker
	// relative to the baseline; zero resets to the first page.
	if page, ok := intValue(raw[keyPage]); ok {
		if page > 0 {
			raw[keyPage] = intValue0(baseline[keyPage]) + 1
		} else {
			raw[keyPage] = 1
		}
	}

	// Explicit reset drops the tool's accumulated filters and its seen-doc
	// memory.
	if reset, _ := raw[keyReset].(bool); reset {
		baseline = map[string]any{}
		delete(raw, keyReset)
		if seen := asObject(state[keySeenDocs]); seen != nil {
			delete(seen, tool)
			state[keySeenDocs] = seen
		}
	}
	delete(raw, keyReset)

	// Merge: null deletes, anything else overwrites or inserts.
	merged := copyObject(baseline)
	filterChanged := false
	for k, v := range raw {
		if k != keyPage && k != keyUserID {
			filterChanged = true
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	// Any non-pagination change restarts from the first page.
	if filterChanged {
		merged[keyPage] = 1
	}

	merged[keyUserID] = userID

	cleaned := Clean(merged, schema)

	state[tool] = cleaned
	if err := e.store.WriteToolState(ctx, userID, sessionID, state); err != nil {
		return nil, fmt.Errorf("persist tool state: %w", err)
	}
	return cleaned, nil
}

// HandleResult applies post-call state maintenance: auto-reset when the
// result carries no docs, and page-forward retries when the returned
// docs were mostly seen on earlier pages. It returns the last result
// fetched.
func (e *Engine) HandleResult(ctx context.Context, userID, sessionID, tool string, args, result map[string]any, call CallFunc) (map[string]any, error) {
	for retries := 0; ; retries++ {
		ids := docIDs(result)
		if len(ids) == 0 {
			// Auto-reset: the next turn starts from a fresh filter.
			if err := e.clearToolSection(ctx, userID, sessionID, tool); err != nil {
				return nil, err
			}
			return result, nil
		}

		state, err := e.store.ReadToolState(ctx, userID, sessionID)
		if err != nil {
			return nil, fmt.Errorf("load tool state: %w", err)
		}

		seen := seenSet(state, tool)
		duplicates := 0
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				duplicates++
			}
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
		writeSeenSet(state, tool, seen)
		if err := e.store.WriteToolState(ctx, userID, sessionID, state); err != nil {
			return nil, fmt.Errorf("persist seen docs: %w", err)
		}

		if duplicates <= dupThreshold || retries >= maxPageRetries {
			return result, nil
		}

		// Already seen: move the window forward and try again.
		nextPage := intValue0(args[keyPage]) + 1
		args[keyPage] = nextPage
		if section := asObject(state[tool]); section != nil {
			section[keyPage] = nextPage
			state[tool] = section
			if err := e.store.WriteToolState(ctx, userID, sessionID, state); err != nil {
				return nil, fmt.Errorf("persist page advance: %w", err)
			}
		}

		result, err = call(ctx, args)
		if err != nil {
			return nil, fmt.Errorf("re-fetch page %d: %w", nextPage, err)
		}
	}
}

func (e *Engine) clearToolSection(ctx context.Context, userID, sessionID, tool string) error {
	state, err := e.store.ReadToolState(ctx, userID, sessionID)
	if err != nil {
		return fmt.Errorf("load tool state: %w", err)
	}
	delete(state, tool)
	if err := e.store.WriteToolState(ctx, userID, sessionID, state); err != nil {
		return fmt.Errorf("persist tool state: %w", err)
	}
	return nil
}

// docIDs extracts document ids from a tool result's docs list.
func docIDs(result map[string]any) []string {
	docs, _ := result["docs"].([]any)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		doc, ok := d.(map[string]any)
		if !ok {
			continue
		}
		switch id := doc["id"].(type) {
		case string:
			ids = append(ids, id)
		case float64:
			ids = append(ids, fmt.Sprintf("%.0f", id))
		}
	}
	return ids
}

func seenSet(state map[string]any, tool string) map[string]struct{} {
	out := make(map[string]struct{})
	seen := asObject(state[keySeenDocs])
	if seen == nil {
		return out
	}
	ids, _ := seen[tool].([]any)
	for _, id := range ids {
		if s, ok := id.(string); ok {
			out[s] = struct{}{}
		}
	}
	return out
}

func writeSeenSet(state map[string]any, tool string, set map[string]struct{}) {
	seen := asObject(state[keySeenDocs])
	if seen == nil {
		seen = map[string]any{}
	}
	ids := make([]any, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	seen[tool] = ids
	state[keySeenDocs] = seen
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func copyObject(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// intValue converts JSON-decoded numbers to int.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func intValue0(v any) int {
	n, _ := intValue(v)
	return n
}
