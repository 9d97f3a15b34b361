package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Decision
	}{
		{"tool", "tool", DecisionTool},
		{"no_tool", "no_tool", DecisionNoTool},
		{"clarification", "ask_clarification", DecisionAskClarification},
		{"block", "inappropriate_block", DecisionInappropriateBlock},
		{"gibberish", "gibberish", DecisionGibberish},
		{"uppercase normalized", "TOOL", DecisionTool},
		{"whitespace trimmed", "  no_tool \n", DecisionNoTool},
		{"unknown falls back to no_tool", "search_everything", DecisionNoTool},
		{"empty falls back to no_tool", "", DecisionNoTool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDecision(tt.raw))
		})
	}
}

func TestNewRequestID(t *testing.T) {
	id := NewRequestID("u42")
	assert.True(t, strings.HasPrefix(id, "REQCHAT-u42-"))

	parts := strings.Split(id, "-")
	assert.Len(t, parts, 6)
	for _, p := range parts[2:] {
		assert.Len(t, p, 5)
	}
}

func TestSessionTypeWantsAudio(t *testing.T) {
	assert.False(t, SessionTextToText.WantsAudio())
	assert.False(t, SessionSpeechToText.WantsAudio())
	assert.True(t, SessionTextToSpeech.WantsAudio())
	assert.True(t, SessionSpeechToSpeech.WantsAudio())
}

func TestStatusEventTerminal(t *testing.T) {
	assert.False(t, (&StatusEvent{Status: StatusReceived}).Terminal())
	assert.True(t, (&StatusEvent{FinalAnswer: "done"}).Terminal())
	assert.True(t, (&StatusEvent{Error: "step timeout"}).Terminal())
}
