// internal/search/debouncer.go
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/metrics"
	"rental-portal/internal/models"
)

// Result is the dropdown state after a keystroke.
type Result struct {
	Query       string              `json:"query"`
	Visible     bool                `json:"visible"`
	Superseded  bool                `json:"superseded,omitempty"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

type pending struct {
	gen    uint64
	cancel context.CancelFunc
}

// Debouncer delays each session's query by a fixed interval. A newer query
// from the same session cancels the older one, whether it is still waiting or
// already fetching; an empty query cancels and hides the dropdown.
type Debouncer struct {
	provider Provider
	source   string
	delay    time.Duration
	limit    int
	logger   logger.Logger

	mu       sync.Mutex
	seq      uint64
	sessions map[string]*pending
}

func NewDebouncer(provider Provider, source string, delay time.Duration, limit int, log logger.Logger) *Debouncer {
	return &Debouncer{
		provider: provider,
		source:   source,
		delay:    delay,
		limit:    limit,
		logger:   log,
		sessions: make(map[string]*pending),
	}
}

// Suggest blocks for the debounce delay, then fetches unless a newer call for
// sessionID arrived meanwhile.
func (d *Debouncer) Suggest(ctx context.Context, sessionID, query string) (*Result, error) {
	q := strings.TrimSpace(query)

	d.mu.Lock()
	if p, ok := d.sessions[sessionID]; ok {
		p.cancel()
		delete(d.sessions, sessionID)
	}
	if q == "" {
		d.mu.Unlock()
		metrics.SuggestionQueries.WithLabelValues("cleared").Inc()
		return &Result{Visible: false, Suggestions: []models.Suggestion{}}, nil
	}
	d.seq++
	gen := d.seq
	wctx, cancel := context.WithCancel(ctx)
	d.sessions[sessionID] = &pending{gen: gen, cancel: cancel}
	d.mu.Unlock()

	defer d.finish(sessionID, gen, cancel)

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-wctx.Done():
		return d.cancelled(ctx, q)
	case <-timer.C:
	}

	suggestions, err := d.provider.Suggest(wctx, q, d.limit)
	if err != nil {
		if wctx.Err() != nil {
			return d.cancelled(ctx, q)
		}
		metrics.SuggestionQueries.WithLabelValues("failed").Inc()
		d.logger.Warn("Suggestion fetch failed", map[string]interface{}{
			"source": d.source,
			"error":  err,
		})
		if stdErr, ok := errors.AsStandard(err); ok && stdErr.Code == errors.ErrCodeUpstreamTimeout {
			return nil, stdErr
		}
		return nil, errors.NewSearchFailedError(d.source, err)
	}

	metrics.SuggestionQueries.WithLabelValues("served").Inc()
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	return &Result{Query: q, Visible: true, Suggestions: suggestions}, nil
}

// Pending reports whether sessionID has a query waiting or in flight.
func (d *Debouncer) Pending(sessionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.sessions[sessionID]
	return ok
}

func (d *Debouncer) cancelled(parent context.Context, q string) (*Result, error) {
	if err := parent.Err(); err != nil {
		return nil, err
	}
	metrics.SuggestionQueries.WithLabelValues("superseded").Inc()
	return &Result{Query: q, Superseded: true, Suggestions: []models.Suggestion{}}, nil
}

func (d *Debouncer) finish(sessionID string, gen uint64, cancel context.CancelFunc) {
	cancel()
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.sessions[sessionID]; ok && p.gen == gen {
		delete(d.sessions, sessionID)
	}
}
