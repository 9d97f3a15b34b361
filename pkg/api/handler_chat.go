package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/smritlabs/matchbox/pkg/chatlog"
	"github.com/smritlabs/matchbox/pkg/models"
)

// ChatRequestBody is the request body for POST /:user_id/chat/request.
type ChatRequestBody struct {
	Message           string         `json:"message"`
	SessionID         string         `json:"session_id,omitempty"`
	PersonID          string         `json:"person_id,omitempty"`
	PersonalityID     string         `json:"personality_id,omitempty"`
	SessionType       int            `json:"session_type,omitempty"`
	SelectedFilters   map[string]any `json:"selected_filters,omitempty"`
	ImageURL          string         `json:"image_url,omitempty"`
	RecommendationIDs []string       `json:"recommendation_ids,omitempty"`
	Fillers           bool           `json:"fillers,omitempty"`
}

// ChatRequestResponse acknowledges an accepted request.
type ChatRequestResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	Filler    string `json:"filler,omitempty"`
}

// fillerLines are short acknowledgements returned immediately when the
// client asks for one, so the UI has something to show while the
// pipeline runs.
var fillerLines = []string{
	"On it, give me a second.",
	"Let me take a look for you.",
	"One moment, checking that now.",
	"Looking into it!",
}

// chatRequestHandler handles POST /api/v1/:user_id/chat/request.
// Accepts the turn and returns the request id immediately; processing is
// asynchronous.
func (s *Server) chatRequestHandler(c *echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}

	var body ChatRequestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}
	if len(body.Message) > models.MaxMessageLen {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("message exceeds maximum length of %d characters", models.MaxMessageLen))
	}
	sessionType := models.SessionType(body.SessionType)
	if body.SessionType != 0 && !sessionType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session_type")
	}

	req := &models.ChatRequest{
		UserID:            userID,
		SessionID:         body.SessionID,
		PersonID:          body.PersonID,
		PersonalityID:     body.PersonalityID,
		SessionType:       sessionType,
		Message:           body.Message,
		ImageURL:          body.ImageURL,
		SelectedFilters:   body.SelectedFilters,
		RecommendationIDs: body.RecommendationIDs,
		Fillers:           body.Fillers,
	}

	requestID, err := s.chat.HandleRequest(c.Request().Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	resp := &ChatRequestResponse{Status: "accepted", RequestID: requestID}
	if body.Fillers {
		resp.Filler = fillerLines[rand.IntN(len(fillerLines))]
	}
	return c.JSON(http.StatusOK, resp)
}

// chatStatusHandler handles GET /api/v1/:user_id/chat/status/:request_id.
// Streams status records over SSE until a terminal record arrives or the
// client disconnects. Records carrying a step are framed as "message"
// events, everything else as "status".
func (s *Server) chatStatusHandler(c *echo.Context) error {
	requestID := c.Param("request_id")
	if requestID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "request id is required")
	}

	ctx := c.Request().Context()
	sub, err := s.store.Subscribe(ctx, requestID)
	if err != nil {
		return mapServiceError(err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			s.logger.Warn("status subscription close failed", "request_id", requestID, "error", err)
		}
	}()

	w := c.Response()
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)
	rc.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := writeSSE(w, event); err != nil {
				return nil
			}
			rc.Flush()
			if event.Terminal() {
				return nil
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, event *models.StatusEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	name := "status"
	if event.Step != "" {
		name = "message"
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

// chatLogHandler handles GET /api/v1/:user_id/chat/request/:request_id.
// Returns the durable log, or a pending marker while the request is
// still in flight.
func (s *Server) chatLogHandler(c *echo.Context) error {
	userID := c.Param("user_id")
	requestID := c.Param("request_id")
	if requestID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "request id is required")
	}

	log, err := s.logs.Get(c.Request().Context(), userID, requestID)
	if err != nil {
		if errors.Is(err, chatlog.ErrNotFound) {
			return c.JSON(http.StatusOK, map[string]any{
				"status":   "pending",
				"complete": false,
			})
		}
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, log)
}

// HistoryResponse wraps the rolling history for one session.
type HistoryResponse struct {
	History []models.HistoryEntry `json:"history"`
}

// historyHandler handles GET /api/v1/:user_id/chat/history.
func (s *Server) historyHandler(c *echo.Context) error {
	userID := c.Param("user_id")
	sessionID := c.QueryParam("session_id")

	history, err := s.store.ReadHistory(c.Request().Context(), userID, sessionID)
	if err != nil {
		return mapServiceError(err)
	}
	if history == nil {
		history = []models.HistoryEntry{}
	}
	return c.JSON(http.StatusOK, &HistoryResponse{History: history})
}

// deleteHistoryHandler handles DELETE /api/v1/:user_id/chat/history.
// Without a session_id it clears every session of the user.
func (s *Server) deleteHistoryHandler(c *echo.Context) error {
	userID := c.Param("user_id")
	sessionID := c.QueryParam("session_id")

	var err error
	if sessionID == "" {
		err = s.store.DeleteAllHistory(c.Request().Context(), userID)
	} else {
		err = s.store.DeleteHistory(c.Request().Context(), userID, sessionID)
	}
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Chat history deleted",
	})
}

// sessionsHandler handles GET /api/v1/:user_id/chat/sessions.
func (s *Server) sessionsHandler(c *echo.Context) error {
	sessions, err := s.store.ListSessions(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"sessions": sessions})
}
