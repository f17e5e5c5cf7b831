// internal/mapview/controller.go
package mapview

import (
	"math"
	"sort"
	"strings"

	"rental-portal/internal/common/config"
	"rental-portal/internal/common/errors"
)

// Mode is one of the two map states.
type Mode string

const (
	ModeOverview Mode = "overview"
	ModeCounty   Mode = "county"
)

// View is what the browser renders: which layer is visible and where the
// camera sits. Zoom bounds follow the mode.
type View struct {
	Mode         Mode          `json:"mode"`
	Center       config.LatLng `json:"center"`
	Zoom         float64       `json:"zoom"`
	MinZoom      float64       `json:"minZoom"`
	MaxZoom      float64       `json:"maxZoom"`
	County       string        `json:"county,omitempty"`
	ShowPins     bool          `json:"showPins"`
	ShowCounties bool          `json:"showCounties"`
}

// FlyTo is the animated camera move the browser performs after a transition.
type FlyTo struct {
	Center  config.LatLng `json:"center"`
	Zoom    float64       `json:"zoom"`
	Animate bool          `json:"animate"`
}

type County struct {
	Name   string        `json:"name"`
	Center config.LatLng `json:"center"`
}

// Catalog is the immutable map configuration shared by every controller.
type Catalog struct {
	defaultCenter config.LatLng
	overview      config.ZoomRange
	detail        config.ZoomRange
	counties      map[string]County
}

func NewCatalog(cfg config.MapConfig) *Catalog {
	c := &Catalog{
		defaultCenter: cfg.DefaultCenter,
		overview:      cfg.OverviewZoom,
		detail:        cfg.DetailZoom,
		counties:      make(map[string]County, len(cfg.Counties)),
	}
	for _, county := range cfg.Counties {
		c.counties[strings.ToLower(county.Name)] = County{
			Name:   county.Name,
			Center: config.LatLng{Lat: county.Lat, Lng: county.Lng},
		}
	}
	return c
}

// Lookup finds a county by case-insensitive name.
func (c *Catalog) Lookup(name string) (County, bool) {
	county, ok := c.counties[strings.ToLower(strings.TrimSpace(name))]
	return county, ok
}

// Counties returns the catalog sorted by name.
func (c *Catalog) Counties() []County {
	out := make([]County, 0, len(c.counties))
	for _, county := range c.counties {
		out = append(out, county)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Controller is the per-session two-state machine. overview shows county
// circles within the overview zoom range; county shows property pins within
// the detail range. Leaving a county returns to the last overview camera.
type Controller struct {
	catalog *Catalog

	mode   Mode
	county string
	center config.LatLng
	zoom   float64

	overviewCenter config.LatLng
	overviewZoom   float64
}

func NewController(catalog *Catalog) *Controller {
	return &Controller{
		catalog:        catalog,
		mode:           ModeOverview,
		center:         catalog.defaultCenter,
		zoom:           catalog.overview.Min,
		overviewCenter: catalog.defaultCenter,
		overviewZoom:   catalog.overview.Min,
	}
}

func (c *Controller) bounds() config.ZoomRange {
	if c.mode == ModeCounty {
		return c.catalog.detail
	}
	return c.catalog.overview
}

func (c *Controller) View() View {
	b := c.bounds()
	return View{
		Mode:         c.mode,
		Center:       c.center,
		Zoom:         c.zoom,
		MinZoom:      b.Min,
		MaxZoom:      b.Max,
		County:       c.county,
		ShowPins:     c.mode == ModeCounty,
		ShowCounties: c.mode == ModeOverview,
	}
}

// Pan records a user camera move. Zoom is clamped to the bounds of the
// current mode; in overview the move also becomes the remembered overview
// camera.
func (c *Controller) Pan(center config.LatLng, zoom float64) View {
	c.center = center
	c.zoom = clamp(zoom, c.bounds())
	if c.mode == ModeOverview {
		c.overviewCenter = c.center
		c.overviewZoom = c.zoom
	}
	return c.View()
}

// SelectCounty switches to the county layer and flies to the county's stored
// coordinates. Selecting from inside another county keeps the original
// overview camera for the way back.
func (c *Controller) SelectCounty(name string) (FlyTo, error) {
	county, ok := c.catalog.Lookup(name)
	if !ok {
		return FlyTo{}, errors.NewUnknownCountyError(name)
	}
	if c.mode == ModeOverview {
		c.overviewCenter = c.center
		c.overviewZoom = c.zoom
	}
	c.mode = ModeCounty
	c.county = county.Name
	c.center = county.Center
	c.zoom = c.catalog.detail.Min
	return FlyTo{Center: c.center, Zoom: c.zoom, Animate: true}, nil
}

// Back leaves the county layer for the remembered overview camera. In
// overview it does nothing and returns false.
func (c *Controller) Back() (FlyTo, bool) {
	if c.mode != ModeCounty {
		return FlyTo{}, false
	}
	c.mode = ModeOverview
	c.county = ""
	c.center = c.overviewCenter
	c.zoom = clamp(c.overviewZoom, c.catalog.overview)
	return FlyTo{Center: c.center, Zoom: c.zoom, Animate: true}, true
}

func clamp(zoom float64, r config.ZoomRange) float64 {
	if math.IsNaN(zoom) {
		return r.Min
	}
	return math.Max(r.Min, math.Min(r.Max, zoom))
}
