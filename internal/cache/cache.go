// Package cache holds derived views between writes.
package cache

import (
	"context"
	"time"

	"spendlens/internal/log"
)

// Cache holds values derived from one ledger revision.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Purge() int
	Size() int
	Stats() Stats
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps expired entries from registered caches. Purging on writes is
// left to each cache's owner.
type Manager struct {
	caches []Cleaner
	logger *log.Logger
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{logger: logger.WithComponent(log.ComponentCache)}
}

// Register adds a cache. Call before Run.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Run sweeps expired entries every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := 0
			for _, c := range m.caches {
				cleaned += c.CleanExpired()
			}
			if cleaned > 0 {
				m.logger.Debug("Expired cache entries removed", log.FieldCount, cleaned)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
