// Package api exposes the chat orchestrator over HTTP: request
// submission, SSE status streaming, and the session memory surfaces.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/smritlabs/matchbox/pkg/metrics"
	"github.com/smritlabs/matchbox/pkg/models"
	"github.com/smritlabs/matchbox/pkg/store"
	"github.com/smritlabs/matchbox/pkg/version"
)

// ChatService accepts user turns for asynchronous processing.
type ChatService interface {
	HandleRequest(ctx context.Context, req *models.ChatRequest) (string, error)
}

// LogReader serves durable completion records.
type LogReader interface {
	Get(ctx context.Context, userID, requestID string) (*models.ChatLog, error)
}

// Subscription is one live status-channel listener.
type Subscription interface {
	Events() <-chan *models.StatusEvent
	Close() error
}

// SessionStore is the keyed-store surface the HTTP layer reads and
// clears.
type SessionStore interface {
	ReadHistory(ctx context.Context, userID, sessionID string) ([]models.HistoryEntry, error)
	DeleteHistory(ctx context.Context, userID, sessionID string) error
	DeleteAllHistory(ctx context.Context, userID string) error
	ListSessions(ctx context.Context, userID string) ([]store.SessionInfo, error)
	ReadSummary(ctx context.Context, userID, sessionID string) (*models.SessionSummary, error)
	DeleteSummary(ctx context.Context, userID, sessionID string) error
	ListSummaries(ctx context.Context, userID string) ([]models.SessionSummary, error)
	ReadToolState(ctx context.Context, userID, sessionID string) (map[string]any, error)
	DeleteToolState(ctx context.Context, userID, sessionID string) error
	ListToolStates(ctx context.Context, userID string) ([]store.ToolStateInfo, error)
	Subscribe(ctx context.Context, requestID string) (Subscription, error)
}

// Server is the HTTP surface.
type Server struct {
	chat    ChatService
	store   SessionStore
	logs    LogReader
	metrics *metrics.Registry
	logger  *slog.Logger

	echo *echo.Echo
	http *http.Server
}

// NewServer wires the routes and middleware.
func NewServer(chat ChatService, sessions SessionStore, logs LogReader, reg *metrics.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		chat:    chat,
		store:   sessions,
		logs:    logs,
		metrics: reg,
		logger:  logger,
	}

	e := echo.New()
	e.Use(securityHeaders())
	s.registerRoutes(e)
	s.echo = e
	return s
}

func (s *Server) registerRoutes(e *echo.Echo) {
	e.GET("/health", s.healthHandler)

	v1 := e.Group("/api/v1")
	v1.GET("/monitoring/metrics", s.metricsHandler)

	user := v1.Group("/:user_id")
	user.POST("/chat/request", s.chatRequestHandler)
	user.GET("/chat/status/:request_id", s.chatStatusHandler)
	user.GET("/chat/request/:request_id", s.chatLogHandler)
	user.GET("/chat/history", s.historyHandler)
	user.DELETE("/chat/history", s.deleteHistoryHandler)
	user.GET("/chat/sessions", s.sessionsHandler)
	user.GET("/session/summary", s.summaryHandler)
	user.DELETE("/session/summary", s.deleteSummaryHandler)
	user.GET("/session/summaries", s.summariesHandler)
	user.GET("/session/tool_state", s.toolStateHandler)
	user.DELETE("/session/tool_state", s.deleteToolStateHandler)
	user.GET("/session/tool_states", s.toolStatesHandler)
}

// Start serves HTTP on addr and blocks until Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) healthHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": version.Full(),
	})
}

func (s *Server) metricsHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.metrics.Snapshot())
}

// StoreAdapter bridges the concrete keyed-store client to SessionStore.
type StoreAdapter struct {
	*store.Client
}

// Subscribe opens a status-channel subscription.
func (a StoreAdapter) Subscribe(ctx context.Context, requestID string) (Subscription, error) {
	sub, err := a.SubscribeStatus(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", requestID, err)
	}
	return sub, nil
}
