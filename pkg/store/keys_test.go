package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopedKeys(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		userID    string
		sessionID string
		want      string
	}{
		{"history with session", "chat_history", "u1", "s1", "chat_history:u1:s1"},
		{"history without session", "chat_history", "u1", "", "chat_history:u1"},
		{"summary with session", "session_summary", "u1", "s9", "session_summary:u1:s9"},
		{"tool state without session", "tool_state", "alice", "", "tool_state:alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scopedKey(tt.prefix, tt.userID, tt.sessionID))
		})
	}
}

func TestSessionFromKey(t *testing.T) {
	assert.Equal(t, "s1", sessionFromKey("chat_history", "u1", "chat_history:u1:s1"))
	assert.Equal(t, "", sessionFromKey("chat_history", "u1", "chat_history:u1"))
	assert.Equal(t, "a:b", sessionFromKey("tool_state", "u1", "tool_state:u1:a:b"))
}

func TestStatusChannel(t *testing.T) {
	assert.Equal(t, "chat_status:REQCHAT-u1-00001-00002-00003-00004",
		StatusChannel("REQCHAT-u1-00001-00002-00003-00004"))
}
