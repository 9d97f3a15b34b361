package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "matchbox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInitialize(t *testing.T) {
	t.Run("minimal config gets defaults", func(t *testing.T) {
		path := writeConfig(t, `
mcp:
  command: python3
  args: ["-m", "toolworker"]
`)
		cfg, err := Initialize(path)
		require.NoError(t, err)

		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, "llm-jobs", cfg.Bus.JobsStream)
		assert.Equal(t, "llm-responses", cfg.Bus.ResponsesStream)
		assert.Equal(t, 60*time.Second, cfg.Orchestrator.StepTimeout)
		assert.Equal(t, 30*time.Second, cfg.Orchestrator.PingInterval)
		assert.Equal(t, 24*time.Hour, cfg.Orchestrator.PersonCacheTTL)
		assert.Equal(t, "python3", cfg.MCP.Command)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9000
bus:
  jobs_stream: jobs-custom
orchestrator:
  step_timeout: 10s
mcp:
  command: worker
`)
		cfg, err := Initialize(path)
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "jobs-custom", cfg.Bus.JobsStream)
		assert.Equal(t, 10*time.Second, cfg.Orchestrator.StepTimeout)
		// Untouched sections keep defaults
		assert.Equal(t, "llm-responses", cfg.Bus.ResponsesStream)
	})

	t.Run("env expansion", func(t *testing.T) {
		t.Setenv("TEST_REDIS_ADDR", "redis.internal:6380")
		path := writeConfig(t, `
redis:
  addr: "{{.TEST_REDIS_ADDR}}"
mcp:
  command: worker
`)
		cfg, err := Initialize(path)
		require.NoError(t, err)
		assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Initialize(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [unclosed")
		_, err := Initialize(path)
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.MCP.Command = "worker"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid",
			mutate:  func(c *Config) {},
			wantErr: nil,
		},
		{
			name:    "missing mcp command",
			mutate:  func(c *Config) { c.MCP.Command = "" },
			wantErr: ErrMissingRequiredField,
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "streams must differ",
			mutate:  func(c *Config) { c.Bus.ResponsesStream = c.Bus.JobsStream },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "zero step timeout",
			mutate:  func(c *Config) { c.Orchestrator.StepTimeout = 0 },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "audio enabled requires urls",
			mutate:  func(c *Config) { c.Audio.Enabled = true },
			wantErr: ErrMissingRequiredField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
		})
	}
}
