// Package catalog holds the most recent upstream warning feed in memory.
package catalog

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sensor-warning-map/internal/domain"
)

// Catalog is a concurrency-safe snapshot of the warning feed. Replace swaps
// the whole snapshot; readers never see a partial update.
type Catalog struct {
	clock clockwork.Clock

	mu        sync.RWMutex
	warnings  []domain.Warning
	updatedAt time.Time
}

// New returns an empty catalog. A nil clock uses real time.
func New(clock clockwork.Clock) *Catalog {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Catalog{clock: clock}
}

// Replace installs a new snapshot. The slice must not be modified afterwards.
func (c *Catalog) Replace(warnings []domain.Warning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = warnings
	c.updatedAt = c.clock.Now()
}

// All returns the current snapshot.
func (c *Catalog) All() []domain.Warning {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.warnings
}

// Query filters and paginates the current snapshot.
func (c *Catalog) Query(q domain.WarningQuery) []domain.Warning {
	return domain.QueryWarnings(c.All(), q)
}

// Len returns the number of warnings in the snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.warnings)
}

// UpdatedAt returns when the snapshot was last replaced, or the zero time.
func (c *Catalog) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
