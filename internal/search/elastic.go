// internal/search/elastic.go
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"rental-portal/internal/models"
)

var ErrMissingIndex = errors.New("index name is required")

// suggestFields are searched as-you-type; the address carries the most weight.
var suggestFields = []string{"address^3", "city^2", "county", "title"}

// ElasticProvider serves suggestions from a property index.
type ElasticProvider struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticProvider(client *elasticsearch.Client, index string) *ElasticProvider {
	return &ElasticProvider{client: client, index: index}
}

// BuildSuggestRequest builds a bool_prefix multi_match search over the
// suggestion fields.
func BuildSuggestRequest(index, query string, limit int) (*esapi.SearchRequest, error) {
	if index == "" {
		return nil, ErrMissingIndex
	}
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"type":   "bool_prefix",
				"fields": suggestFields,
			},
		},
		"_source": []string{"id", "title", "address", "city", "county", "lat", "lng"},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	size := limit
	return &esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(string(raw)),
		Size:  &size,
	}, nil
}

type suggestHit struct {
	ID     string `json:"_id"`
	Source struct {
		ID      string  `json:"id"`
		Title   string  `json:"title"`
		Address string  `json:"address"`
		City    string  `json:"city"`
		County  string  `json:"county"`
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
	} `json:"_source"`
}

type suggestResponse struct {
	Hits struct {
		Hits []suggestHit `json:"hits"`
	} `json:"hits"`
}

func (p *ElasticProvider) Suggest(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	req, err := BuildSuggestRequest(p.index, query, limit)
	if err != nil {
		return nil, err
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("suggest query failed: %s", res.Status())
	}

	var r suggestResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode suggest response: %w", err)
	}

	out := make([]models.Suggestion, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		s := hit.Source
		id := s.ID
		if id == "" {
			id = hit.ID
		}
		out = append(out, models.Suggestion{
			ID:      id,
			Label:   label(s.Title, s.Address, s.City),
			Address: s.Address,
			City:    s.City,
			County:  s.County,
			Lat:     s.Lat,
			Lng:     s.Lng,
		})
	}
	return out, nil
}

func label(title, address, city string) string {
	main := address
	if main == "" {
		main = title
	}
	if city == "" {
		return main
	}
	return main + ", " + city
}
