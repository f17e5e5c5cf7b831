// internal/handlers/search/handler.go
package search

import (
	"github.com/labstack/echo/v4"

	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/response"
	"rental-portal/internal/search"
	"rental-portal/internal/session"
)

const RouteGroup = "search"

type Handler struct {
	debouncer *search.Debouncer
	logger    logger.Logger
}

func NewHandler(debouncer *search.Debouncer, log logger.Logger) *Handler {
	return &Handler{
		debouncer: debouncer,
		logger:    log.WithFields(map[string]interface{}{"route": RouteGroup}),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/api/search/suggestions", h.HandleSuggestions)
}

// HandleSuggestions answers one keystroke. A request overtaken by a newer one
// from the same browser session returns superseded so the page drops it.
func (h *Handler) HandleSuggestions(c echo.Context) error {
	result, err := h.debouncer.Suggest(c.Request().Context(), session.ID(c), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return response.Success(c, "", result)
}
