// internal/handlers/mapview/handler.go
package mapview

import (
	"github.com/labstack/echo/v4"

	"rental-portal/internal/common/config"
	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/response"
	"rental-portal/internal/mapview"
	"rental-portal/internal/session"
)

const RouteGroup = "map"

type Handler struct {
	store  *mapview.Store
	logger logger.Logger
}

func NewHandler(store *mapview.Store, log logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"route": RouteGroup}),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/api/map")
	g.GET("", h.HandleState)
	g.POST("/pan", h.HandlePan)
	g.POST("/counties/:county", h.HandleSelectCounty)
	g.POST("/back", h.HandleBack)
}

func (h *Handler) HandleState(c echo.Context) error {
	var view mapview.View
	err := h.store.With(session.ID(c), func(ctrl *mapview.Controller) error {
		view = ctrl.View()
		return nil
	})
	if err != nil {
		return err
	}
	return response.Success(c, "", StateResponse{View: view, Counties: h.store.Catalog().Counties()})
}

func (h *Handler) HandlePan(c echo.Context) error {
	var req PanRequest
	if err := c.Bind(&req); err != nil {
		return errors.NewInvalidInputError("malformed pan request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var view mapview.View
	err := h.store.With(session.ID(c), func(ctrl *mapview.Controller) error {
		view = ctrl.Pan(config.LatLng{Lat: *req.Lat, Lng: *req.Lng}, req.Zoom)
		return nil
	})
	if err != nil {
		return err
	}
	return response.Success(c, "", TransitionResponse{View: view})
}

func (h *Handler) HandleSelectCounty(c echo.Context) error {
	var out TransitionResponse
	err := h.store.With(session.ID(c), func(ctrl *mapview.Controller) error {
		fly, err := ctrl.SelectCounty(c.Param("county"))
		if err != nil {
			return err
		}
		out = TransitionResponse{FlyTo: &fly, View: ctrl.View()}
		return nil
	})
	if err != nil {
		return err
	}
	h.logger.Debug("County selected", map[string]interface{}{"county": out.View.County})
	return response.Success(c, "", out)
}

func (h *Handler) HandleBack(c echo.Context) error {
	var out TransitionResponse
	err := h.store.With(session.ID(c), func(ctrl *mapview.Controller) error {
		if fly, moved := ctrl.Back(); moved {
			out.FlyTo = &fly
		}
		out.View = ctrl.View()
		return nil
	})
	if err != nil {
		return err
	}
	return response.Success(c, "", out)
}
