// Package enrich resolves item-level references against the remote
// source, with a cache in front so a run importing thousands of items
// does not refetch the same project metadata for every record.
package enrich

import (
	"context"
	"time"

	"regsync/internal/importer/source"
)

// Cache stores resolved project metadata. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, projectID string) (*source.Project, error)
	Set(ctx context.Context, project *source.Project) error
}

// ProjectResolver is the slice of the source client the service needs.
type ProjectResolver interface {
	Project(ctx context.Context, projectID string) (*source.Project, error)
}

// Service resolves project references, caching results for TTL.
type Service struct {
	resolver ProjectResolver
	cache    Cache
}

// New creates an enrichment service. A nil cache disables caching.
func New(resolver ProjectResolver, cache Cache) *Service {
	if cache == nil {
		cache = NewMemoryCache(5 * time.Minute)
	}
	return &Service{resolver: resolver, cache: cache}
}

// Resolve returns project metadata for the reference, from cache when
// possible. Cache errors degrade to a source fetch rather than failing
// the item.
func (s *Service) Resolve(ctx context.Context, projectID string) (*source.Project, error) {
	if projectID == "" {
		return nil, nil
	}
	if cached, err := s.cache.Get(ctx, projectID); err == nil && cached != nil {
		return cached, nil
	}

	project, err := s.resolver.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, project)
	return project, nil
}
