// internal/models/property.go
package models

type Property struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	County    string   `json:"county"`
	Price     float64  `json:"price"`
	Rent      float64  `json:"rent"`
	Bedrooms  int      `json:"bedrooms"`
	Bathrooms float64  `json:"bathrooms"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Status    string   `json:"status"`
	Images    []string `json:"images,omitempty"`
}

// Suggestion is one row of the search-as-you-type dropdown.
type Suggestion struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Address string  `json:"address,omitempty"`
	City    string  `json:"city,omitempty"`
	County  string  `json:"county,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}
