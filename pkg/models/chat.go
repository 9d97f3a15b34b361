// Package models contains request/response models and business domain types.
package models

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// SessionType selects the input/output modality for one request.
type SessionType int

// Session modalities.
const (
	SessionTextToText SessionType = iota + 1
	SessionTextToSpeech
	SessionSpeechToText
	SessionSpeechToSpeech
)

// WantsAudio reports whether the assistant reply should carry a
// pre-generated audio URL.
func (s SessionType) WantsAudio() bool {
	return s == SessionTextToSpeech || s == SessionSpeechToSpeech
}

// Valid reports whether the value is one of the four known modalities.
func (s SessionType) Valid() bool {
	return s >= SessionTextToText && s <= SessionSpeechToSpeech
}

// ChatRequest is one user turn as accepted by the HTTP surface.
// Mutated only by the orchestrator task that owns it.
type ChatRequest struct {
	RequestID         string         `json:"request_id"`
	UserID            string         `json:"user_id"`
	SessionID         string         `json:"session_id,omitempty"`
	PersonID          string         `json:"person_id,omitempty"`
	PersonalityID     string         `json:"personality_id,omitempty"`
	SessionType       SessionType    `json:"session_type,omitempty"`
	Message           string         `json:"message"`
	ImageURL          string         `json:"image_url,omitempty"`
	SelectedFilters   map[string]any `json:"selected_filters,omitempty"`
	RecommendationIDs []string       `json:"recommendation_ids,omitempty"`
	Fillers           bool           `json:"fillers,omitempty"`
}

// MaxMessageLen bounds the accepted user message length.
const MaxMessageLen = 5000

// StatusEvent is one record on a request's status channel. Events with a
// Step set are LLM pipeline boundaries; the terminal event carries a
// FinalAnswer or an Error.
type StatusEvent struct {
	RequestID   string         `json:"request_id"`
	Status      string         `json:"status,omitempty"`
	Step        string         `json:"step,omitempty"`
	FinalAnswer string         `json:"final_answer,omitempty"`
	ToolResult  map[string]any `json:"tool_result,omitempty"`
	AudioURL    string         `json:"audio_url,omitempty"`
	Error       string         `json:"error,omitempty"`
	Source      string         `json:"source,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Terminal reports whether this event closes the request's stream.
func (e *StatusEvent) Terminal() bool {
	return e.FinalAnswer != "" || e.Error != ""
}

// Request lifecycle statuses emitted on the status channel.
const (
	StatusReceived       = "RECEIVED"
	StatusCheckingTools  = "LLM_CHECKING_TOOLS"
	StatusSelectingTool  = "LLM_SELECTING_TOOL"
	StatusExtractingArgs = "LLM_EXTRACTING_ARGS"
	StatusToolSelected   = "TOOL_SELECTED"
	StatusToolExecuted   = "TOOL_EXECUTED"
	StatusToolError      = "TOOL_ERROR"
	StatusSummarizing    = "LLM_SUMMARIZING"
	StatusCompleted      = "COMPLETED"
)

// ChatLog is the durable completion record for one request.
type ChatLog struct {
	RequestID    string         `bson:"_id" json:"request_id"`
	SessionID    string         `bson:"session_id" json:"session_id,omitempty"`
	UserID       string         `bson:"user_id" json:"user_id"`
	UserQuery    string         `bson:"user_query" json:"user_query"`
	ToolRequired bool           `bson:"tool_required" json:"tool_required"`
	Status       string         `bson:"status" json:"status"`
	Complete     bool           `bson:"complete" json:"complete"`
	FinalAnswer  string         `bson:"final_answer,omitempty" json:"final_answer,omitempty"`
	ToolResult   map[string]any `bson:"tool_result,omitempty" json:"tool_result,omitempty"`
	AudioURL     string         `bson:"audio_url,omitempty" json:"audio_url,omitempty"`
	Error        string         `bson:"error,omitempty" json:"error,omitempty"`
	Timestamp    time.Time      `bson:"timestamp" json:"timestamp"`
}

// NewRequestID generates a request identifier of the form
// REQCHAT-{user}-NNNNN-NNNNN-NNNNN-NNNNN.
func NewRequestID(userID string) string {
	return fmt.Sprintf("REQCHAT-%s-%05d-%05d-%05d-%05d",
		userID,
		rand.IntN(100000), rand.IntN(100000),
		rand.IntN(100000), rand.IntN(100000))
}
