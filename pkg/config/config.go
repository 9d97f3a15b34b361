// Package config loads and validates the matchbox configuration file.
package config

import (
	"fmt"
	"time"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Redis        RedisConfig        `yaml:"redis"`
	Mongo        MongoConfig        `yaml:"mongo"`
	Bus          BusConfig          `yaml:"bus"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	MCP          MCPConfig          `yaml:"mcp"`
	Audio        AudioConfig        `yaml:"audio"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// RedisConfig holds the keyed-store connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MongoConfig holds the durable-log connection settings.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// BusConfig holds message-bus stream settings.
type BusConfig struct {
	JobsStream      string `yaml:"jobs_stream"`
	ResponsesStream string `yaml:"responses_stream"`
	ConsumerGroup   string `yaml:"consumer_group"`
	StreamMaxLen    int    `yaml:"stream_max_len"`
}

// OrchestratorConfig holds pipeline timing settings.
type OrchestratorConfig struct {
	StepTimeout    time.Duration `yaml:"step_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	PersonCacheTTL time.Duration `yaml:"person_cache_ttl"`
}

// UnmarshalYAML decodes duration fields from the "60s" / "5m" string form.
func (o *OrchestratorConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		StepTimeout    string `yaml:"step_timeout"`
		PingInterval   string `yaml:"ping_interval"`
		PersonCacheTTL string `yaml:"person_cache_ttl"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	parse := func(field, value string, dst *time.Duration) error {
		if value == "" {
			return nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("orchestrator.%s: %w", field, err)
		}
		*dst = d
		return nil
	}

	if err := parse("step_timeout", raw.StepTimeout, &o.StepTimeout); err != nil {
		return err
	}
	if err := parse("ping_interval", raw.PingInterval, &o.PingInterval); err != nil {
		return err
	}
	return parse("person_cache_ttl", raw.PersonCacheTTL, &o.PersonCacheTTL)
}

// MCPConfig holds the tool-worker subprocess settings.
type MCPConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// AudioConfig holds speech synthesis and upload settings.
// Used only for the speech session modalities.
type AudioConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SynthesisURL string `yaml:"synthesis_url"`
	VoiceID      string `yaml:"voice_id"`
	APIKeyEnv    string `yaml:"api_key_env"`
	UploadURL    string `yaml:"upload_url"`
}

// DefaultConfig returns the built-in baseline configuration. File values
// are merged on top.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8000},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "matchbox",
		},
		Bus: BusConfig{
			JobsStream:      "llm-jobs",
			ResponsesStream: "llm-responses",
			ConsumerGroup:   "matchbox-orchestrator",
			StreamMaxLen:    10000,
		},
		Orchestrator: OrchestratorConfig{
			StepTimeout:    60 * time.Second,
			PingInterval:   30 * time.Second,
			PersonCacheTTL: 24 * time.Hour,
		},
		Audio: AudioConfig{
			APIKeyEnv: "AUDIO_API_KEY",
		},
	}
}
