// internal/handlers/mapview/models.go
package mapview

import "rental-portal/internal/mapview"

type PanRequest struct {
	Lat  *float64 `json:"lat" validate:"required,latitude"`
	Lng  *float64 `json:"lng" validate:"required,longitude"`
	Zoom float64  `json:"zoom"`
}

// TransitionResponse carries the camera move to animate and the view after it.
// FlyTo is nil when the transition did nothing.
type TransitionResponse struct {
	FlyTo *mapview.FlyTo `json:"flyTo"`
	View  mapview.View   `json:"view"`
}

type StateResponse struct {
	View     mapview.View     `json:"view"`
	Counties []mapview.County `json:"counties"`
}
