// internal/search/cache.go
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/metrics"
	"rental-portal/internal/models"
)

const cacheKeyPrefix = "search:suggest:"

// CachedProvider answers repeated queries from redis. Cache trouble is
// logged and falls through to the wrapped provider.
type CachedProvider struct {
	next   Provider
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedProvider {
	return &CachedProvider{next: next, redis: client, ttl: ttl, logger: log}
}

func cacheKey(query string, limit int) string {
	return fmt.Sprintf("%s%d:%s", cacheKeyPrefix, limit, strings.ToLower(query))
}

func (c *CachedProvider) Suggest(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	key := cacheKey(query, limit)

	if val, err := c.redis.Get(ctx, key).Result(); err == nil {
		var cached []models.Suggestion
		if json.Unmarshal([]byte(val), &cached) == nil {
			metrics.SuggestionQueries.WithLabelValues("cached").Inc()
			return cached, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("Suggestion cache read failed", map[string]interface{}{"error": err})
	}

	out, err := c.next.Suggest(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(out); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Suggestion cache write failed", map[string]interface{}{"error": err})
		}
	}
	return out, nil
}
