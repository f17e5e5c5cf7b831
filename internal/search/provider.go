// internal/search/provider.go
package search

import (
	"context"

	"rental-portal/internal/models"
)

const (
	SourceUpstream      = "upstream"
	SourceElasticsearch = "elasticsearch"
)

// Provider answers a suggestion query with at most limit rows.
type Provider interface {
	Suggest(ctx context.Context, query string, limit int) ([]models.Suggestion, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, query string, limit int) ([]models.Suggestion, error)

func (f ProviderFunc) Suggest(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	return f(ctx, query, limit)
}
