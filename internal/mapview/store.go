// internal/mapview/store.go
package mapview

import (
	"context"
	"sync"
	"time"

	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/metrics"
)

type entry struct {
	mu       sync.Mutex
	ctrl     *Controller
	lastSeen time.Time
}

// Store keeps one controller per browser session in process memory. Entries
// untouched for idleTTL are dropped by the janitor.
type Store struct {
	catalog *Catalog
	idleTTL time.Duration
	now     func() time.Time
	logger  logger.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

func NewStore(catalog *Catalog, idleTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		catalog: catalog,
		idleTTL: idleTTL,
		now:     time.Now,
		logger:  log,
		entries: make(map[string]*entry),
	}
}

func (s *Store) Catalog() *Catalog { return s.catalog }

// With runs fn against the session's controller, creating it on first use.
// Calls for the same session are serialized. An empty session id is refused
// so browsers never share one camera.
func (s *Store) With(sessionID string, fn func(*Controller) error) error {
	if sessionID == "" {
		return errors.NewSessionInvalidError("no browser session id")
	}
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	if !ok {
		e = &entry{ctrl: NewController(s.catalog)}
		s.entries[sessionID] = e
		metrics.MapSessionsActive.Set(float64(len(s.entries)))
	}
	e.lastSeen = s.now()
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.ctrl)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Evict drops idle sessions and returns how many were removed.
func (s *Store) Evict() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	metrics.MapSessionsActive.Set(float64(len(s.entries)))
	return removed
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(); n > 0 {
				s.logger.Debug("Evicted idle map sessions", map[string]interface{}{"count": n})
			}
		}
	}
}
