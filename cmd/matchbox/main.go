// Matchbox orchestrator server. Accepts chat turns over HTTP, drives the
// decision pipeline against the worker bus, and streams status back to
// clients.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smritlabs/matchbox/pkg/api"
	"github.com/smritlabs/matchbox/pkg/audio"
	"github.com/smritlabs/matchbox/pkg/bus"
	"github.com/smritlabs/matchbox/pkg/chatlog"
	"github.com/smritlabs/matchbox/pkg/config"
	"github.com/smritlabs/matchbox/pkg/mcp"
	"github.com/smritlabs/matchbox/pkg/metrics"
	"github.com/smritlabs/matchbox/pkg/orchestrator"
	"github.com/smritlabs/matchbox/pkg/persona"
	"github.com/smritlabs/matchbox/pkg/store"
	"github.com/smritlabs/matchbox/pkg/toolargs"
	"github.com/smritlabs/matchbox/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	slog.Info("Starting matchbox", "version", version.Full(), "config_dir", *configDir)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(filepath.Join(*configDir, "config.yaml"))
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Connect the keyed store
	storeClient, err := store.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storeClient.Close(); err != nil {
			slog.Error("Error closing store client", "error", err)
		}
	}()
	slog.Info("Connected to Redis", "addr", cfg.Redis.Addr)

	// 3. Connect the durable chat log
	logStore, err := chatlog.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := logStore.Close(ctx); err != nil {
			slog.Error("Error closing chat log store", "error", err)
		}
	}()
	slog.Info("Connected to MongoDB", "database", cfg.Mongo.Database)

	// 4. Job bus over the shared Redis connection
	jobBus, err := bus.New(storeClient.Redis(), cfg.Bus)
	if err != nil {
		slog.Error("Failed to initialize job bus", "error", err)
		os.Exit(1)
	}
	defer jobBus.Close()
	slog.Info("Job bus initialized",
		"jobs_stream", cfg.Bus.JobsStream,
		"responses_stream", cfg.Bus.ResponsesStream)

	// 5. MCP tool server (stdio subprocess)
	toolClient := mcp.NewClient(cfg.MCP)
	if err := toolClient.Start(ctx); err != nil {
		slog.Error("Failed to start MCP tool server", "command", cfg.MCP.Command, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := toolClient.Close(); err != nil {
			slog.Error("Error closing MCP client", "error", err)
		}
	}()
	slog.Info("MCP tool server started", "tools", len(toolClient.Tools()))

	// 6. Persona and profile lookups share the Mongo connection
	personaService := persona.New(
		logStore.Client().Database(cfg.Mongo.Database),
		storeClient,
		cfg.Orchestrator.PersonCacheTTL,
		slog.Default(),
	)

	// 7. Optional audio synthesis
	var audioGen orchestrator.AudioGenerator
	if svc := audio.New(cfg.Audio, slog.Default()); svc != nil {
		audioGen = svc
		slog.Info("Audio synthesis enabled", "voice_id", cfg.Audio.VoiceID)
	}

	registry := metrics.NewRegistry()

	// 8. Orchestrator
	orch, err := orchestrator.New(orchestrator.Deps{
		Config:   cfg.Orchestrator,
		Bus:      jobBus,
		Store:    storeClient,
		Tools:    toolClient,
		Engine:   toolargs.NewEngine(storeClient),
		Logs:     logStore,
		Personas: personaService,
		Audio:    audioGen,
		Metrics:  registry,
		Logger:   slog.Default(),
	})
	if err != nil {
		slog.Error("Failed to build orchestrator", "error", err)
		os.Exit(1)
	}
	orch.Start()

	// 9. HTTP server
	httpServer := api.NewServer(orch,
		api.StoreAdapter{Client: storeClient},
		logStore, registry, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Matchbox started successfully")

	// 10. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 11. Graceful shutdown: stop accepting requests, then drain the pipeline
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	done := make(chan struct{})
	go func() {
		orch.Stop()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("Orchestrator stopped gracefully")
	case <-time.After(30 * time.Second):
		slog.Warn("Orchestrator shutdown timeout exceeded")
	}

	slog.Info("Shutdown complete")
}
