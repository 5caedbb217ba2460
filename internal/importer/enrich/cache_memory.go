package enrich

import (
	"context"
	"sync"
	"time"

	"regsync/internal/importer/source"
)

// MemoryCache implements Cache with a mutex-guarded map and TTL
// expiration checked on read. Expired entries are dropped when read so
// the map does not grow past the working set of project ids.
type MemoryCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	project   source.Project
	expiresAt time.Time
}

// NewMemoryCache creates an in-process cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, projectID string) (*source.Project, error) {
	c.mu.RLock()
	entry, ok := c.entries[projectID]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; Set may have refreshed the entry.
		if current, still := c.entries[projectID]; still && time.Now().After(current.expiresAt) {
			delete(c.entries, projectID)
		}
		c.mu.Unlock()
		return nil, nil
	}
	project := entry.project
	return &project, nil
}

func (c *MemoryCache) Set(_ context.Context, project *source.Project) error {
	if project == nil || project.ID == "" {
		return nil
	}
	c.mu.Lock()
	c.entries[project.ID] = memoryEntry{
		project:   *project,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}
