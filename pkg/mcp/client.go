// Package mcp hosts the tool-worker subprocess behind the Model Context
// Protocol and exposes its catalog and tool calls to the orchestrator.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/smritlabs/matchbox/pkg/config"
)

// Operation timeouts.
const (
	initTimeout      = 30 * time.Second
	operationTimeout = 60 * time.Second
)

// Tool is one catalog entry with its cleaned input schema.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Client manages the single long-lived tool-worker subprocess.
// Thread-safe: tool calls may run from concurrent request tasks.
type Client struct {
	cfg config.MCPConfig

	mu      sync.RWMutex
	session *mcpsdk.ClientSession
	tools   []Tool
	prompts []string

	logger *slog.Logger
}

// NewClient creates a Client; Start launches the subprocess.
func NewClient(cfg config.MCPConfig) *Client {
	return &Client{
		cfg:    cfg,
		logger: slog.With("component", "mcp"),
	}
}

// Start launches the subprocess over stdio, performs the initialize
// handshake, and caches the tool and prompt catalogs. Stderr of the
// worker is discarded.
func (c *Client) Start(ctx context.Context) error {
	cmd := exec.Command(c.cfg.Command, c.cfg.Args...)

	// Inherit parent environment + config overrides
	env := os.Environ()
	for k, v := range c.cfg.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = env

	transport := &mcpsdk.CommandTransport{Command: cmd}

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "matchbox",
		Version: "1.0",
	}, nil)

	session, err := client.Connect(initCtx, transport, nil)
	if err != nil {
		return fmt.Errorf("connect to tool worker: %w", err)
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	if err := c.loadCatalog(ctx); err != nil {
		_ = session.Close()
		return err
	}

	c.logger.Info("Tool worker connected",
		"command", c.cfg.Command, "tools", len(c.tools))
	return nil
}

// loadCatalog fetches and caches tools, prompts, and resources once.
// Prompt and resource listings are optional worker features; failures
// there are logged, not fatal.
func (c *Client) loadCatalog(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	toolsRes, err := session.ListTools(opCtx, nil)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}

	tools := make([]Tool, 0, len(toolsRes.Tools))
	for _, t := range toolsRes.Tools {
		schema, err := schemaToMap(t.InputSchema)
		if err != nil {
			c.logger.Warn("Skipping tool with undecodable schema",
				"tool", t.Name, "error", err)
			continue
		}
		tools = append(tools, Tool{
			Name:        t.Name,
			Description: t.Description,
			Schema:      CleanSchema(schema),
		})
	}

	var prompts []string
	if promptsRes, err := session.ListPrompts(opCtx, nil); err != nil {
		c.logger.Warn("Worker does not list prompts", "error", err)
	} else {
		for _, p := range promptsRes.Prompts {
			prompts = append(prompts, p.Name)
		}
	}

	if _, err := session.ListResources(opCtx, nil); err != nil {
		c.logger.Warn("Worker does not list resources", "error", err)
	}

	c.mu.Lock()
	c.tools = tools
	c.prompts = prompts
	c.mu.Unlock()
	return nil
}

// Tools returns the cached tool catalog.
func (c *Client) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

// Schema returns the cleaned input schema for a named tool, or nil when
// the tool is unknown.
func (c *Client) Schema(name string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tools {
		if t.Name == name {
			return t.Schema
		}
	}
	return nil
}

// CallTool invokes a named tool on the worker. Failure is non-fatal: the
// error is folded into the returned ToolResult for recording.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) *ToolResult {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	if session == nil {
		return &ToolResult{Error: "tool worker is not connected"}
	}

	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	result, err := session.CallTool(opCtx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		c.logger.Warn("Tool call failed", "tool", name, "error", err)
		return &ToolResult{Error: err.Error()}
	}

	return normalizeResult(result)
}

// Close shuts down the session and the subprocess.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// schemaToMap converts the SDK's typed schema into a plain object tree.
func schemaToMap(schema any) (map[string]any, error) {
	if schema == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
