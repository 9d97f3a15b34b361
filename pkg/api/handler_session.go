package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/smritlabs/matchbox/pkg/models"
)

// summaryHandler handles GET /api/v1/:user_id/session/summary.
func (s *Server) summaryHandler(c *echo.Context) error {
	userID := c.Param("user_id")
	sessionID := c.QueryParam("session_id")

	summary, err := s.store.ReadSummary(c.Request().Context(), userID, sessionID)
	if err != nil {
		return mapServiceError(err)
	}
	if summary == nil {
		summary = &models.SessionSummary{UserID: userID, SessionID: sessionID}
	}
	return c.JSON(http.StatusOK, summary)
}

// deleteSummaryHandler handles DELETE /api/v1/:user_id/session/summary.
func (s *Server) deleteSummaryHandler(c *echo.Context) error {
	userID := c.Param("user_id")
	sessionID := c.QueryParam("session_id")

	if err := s.store.DeleteSummary(c.Request().Context(), userID, sessionID); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Session summary deleted",
	})
}

// summariesHandler handles GET /api/v1/:user_id/session/summaries.
func (s *Server) summariesHandler(c *echo.Context) error {
	summaries, err := s.store.ListSummaries(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return mapServiceError(err)
	}
	if summaries == nil {
		summaries = []models.SessionSummary{}
	}
	return c.JSON(http.StatusOK, map[string]any{"summaries": summaries})
}

// ToolStateResponse wraps the persisted argument state for one session.
type ToolStateResponse struct {
	SessionID string         `json:"session_id,omitempty"`
	ToolArgs  map[string]any `json:"tool_args"`
}

// toolStateHandler handles GET /api/v1/:user_id/session/tool_state.
func (s *Server) toolStateHandler(c *echo.Context) error {
	userID := c.Param("user_id")
	sessionID := c.QueryParam("session_id")

	state, err := s.store.ReadToolState(c.Request().Context(), userID, sessionID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &ToolStateResponse{SessionID: sessionID, ToolArgs: state})
}

// deleteToolStateHandler handles DELETE /api/v1/:user_id/session/tool_state.
func (s *Server) deleteToolStateHandler(c *echo.Context) error {
	userID := c.Param("user_id")
	sessionID := c.QueryParam("session_id")

	if err := s.store.DeleteToolState(c.Request().Context(), userID, sessionID); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Tool state deleted",
	})
}

// toolStatesHandler handles GET /api/v1/:user_id/session/tool_states.
func (s *Server) toolStatesHandler(c *echo.Context) error {
	states, err := s.store.ListToolStates(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"tool_states": states})
}
