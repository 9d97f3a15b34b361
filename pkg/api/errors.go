package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/smritlabs/matchbox/pkg/chatlog"
	"github.com/smritlabs/matchbox/pkg/persona"
)

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(err error) *echo.HTTPError {
	if errors.Is(err, chatlog.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if errors.Is(err, persona.ErrPersonaNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "persona not found")
	}
	if errors.Is(err, context.Canceled) {
		return echo.NewHTTPError(http.StatusRequestTimeout, "request cancelled")
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
