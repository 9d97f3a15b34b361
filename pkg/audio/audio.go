// Package audio turns final answers into hosted audio clips for the
// speech modalities. Synthesis and upload failures are non-fatal; the
// caller falls back to a text-only reply.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/smritlabs/matchbox/pkg/config"
)

const requestTimeout = 30 * time.Second

// Service synthesizes speech and uploads the clip to blob storage.
type Service struct {
	cfg    config.AudioConfig
	http   *http.Client
	logger *slog.Logger
}

// New builds a Service. Returns nil when audio is disabled so callers
// can nil-check instead of branching on config.
func New(cfg config.AudioConfig, logger *slog.Logger) *Service {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:    cfg,
		http:   &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

// Generate synthesizes text and uploads the result, returning the public
// clip URL. An empty URL with a nil error never happens; callers treat
// any error as "reply without audio".
func (s *Service) Generate(ctx context.Context, text string) (string, error) {
	clip, err := s.synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	return s.upload(ctx, clip)
}

type synthesisRequest struct {
	Text         string `json:"text"`
	VoiceID      string `json:"voice_id"`
	ModelID      string `json:"model_id"`
	OutputFormat string `json:"output_format"`
}

func (s *Service) synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(synthesisRequest{
		Text:         text,
		VoiceID:      s.cfg.VoiceID,
		ModelID:      "eleven_multilingual_v2",
		OutputFormat: "mp3_44100_128",
	})
	if err != nil {
		return nil, fmt.Errorf("encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.SynthesisURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv(s.cfg.APIKeyEnv); key != "" {
		req.Header.Set("xi-api-key", key)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesize audio: unexpected status %d", resp.StatusCode)
	}

	clip, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	return clip, nil
}

type uploadResponse struct {
	URL string `json:"url"`
}

func (s *Service) upload(ctx context.Context, clip []byte) (string, error) {
	name := uuid.New().String() + ".mp3"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		s.cfg.UploadURL+"/"+name, bytes.NewReader(clip))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/mpeg")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload audio: unexpected status %d", resp.StatusCode)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Some blob stores answer with the bare URL instead of JSON.
		return s.cfg.UploadURL + "/" + name, nil
	}
	if out.URL != "" {
		return out.URL, nil
	}
	return s.cfg.UploadURL + "/" + name, nil
}
