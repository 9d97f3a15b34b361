package config

import (
	"fmt"
	"log/slog"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Read the YAML file at path
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge file values over built-in defaults
//  5. Validate the merged configuration
func Initialize(path string) (*Config, error) {
	log := slog.With("config_path", path)
	log.Info("Initializing configuration")

	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized successfully",
		"jobs_stream", cfg.Bus.JobsStream,
		"responses_stream", cfg.Bus.ResponsesStream,
		"step_timeout", cfg.Orchestrator.StepTimeout,
		"audio_enabled", cfg.Audio.Enabled)

	return cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	// Expand environment variables using {{.VAR}} template syntax
	data = ExpandEnv(data)

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	// Start from defaults, merge file values on top so unset fields keep
	// their built-in values
	cfg := DefaultConfig()
	if err := mergo.Merge(cfg, &fileCfg, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return NewValidationError("server", "port", ErrInvalidValue)
	}
	if cfg.Redis.Addr == "" {
		return NewValidationError("redis", "addr", ErrMissingRequiredField)
	}
	if cfg.Mongo.URI == "" {
		return NewValidationError("mongo", "uri", ErrMissingRequiredField)
	}
	if cfg.Mongo.Database == "" {
		return NewValidationError("mongo", "database", ErrMissingRequiredField)
	}
	if cfg.Bus.JobsStream == "" {
		return NewValidationError("bus", "jobs_stream", ErrMissingRequiredField)
	}
	if cfg.Bus.ResponsesStream == "" {
		return NewValidationError("bus", "responses_stream", ErrMissingRequiredField)
	}
	if cfg.Bus.JobsStream == cfg.Bus.ResponsesStream {
		return NewValidationError("bus", "responses_stream",
			fmt.Errorf("%w: must differ from jobs_stream", ErrInvalidValue))
	}
	if cfg.Bus.ConsumerGroup == "" {
		return NewValidationError("bus", "consumer_group", ErrMissingRequiredField)
	}
	if cfg.Orchestrator.StepTimeout <= 0 {
		return NewValidationError("orchestrator", "step_timeout", ErrInvalidValue)
	}
	if cfg.Orchestrator.PingInterval <= 0 {
		return NewValidationError("orchestrator", "ping_interval", ErrInvalidValue)
	}
	if cfg.MCP.Command == "" {
		return NewValidationError("mcp", "command", ErrMissingRequiredField)
	}
	if cfg.Audio.Enabled {
		if cfg.Audio.SynthesisURL == "" {
			return NewValidationError("audio", "synthesis_url", ErrMissingRequiredField)
		}
		if cfg.Audio.UploadURL == "" {
			return NewValidationError("audio", "upload_url", ErrMissingRequiredField)
		}
	}
	return nil
}
