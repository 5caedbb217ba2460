package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"regsync/internal/importer/source"
)

// fakeResolver counts remote lookups so tests can assert cache hits.
type fakeResolver struct {
	projects map[string]*source.Project
	err      error
	calls    int
}

func (f *fakeResolver) Project(_ context.Context, projectID string) (*source.Project, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	project, ok := f.projects[projectID]
	if !ok {
		return nil, errors.New("unknown project")
	}
	return project, nil
}

// failingCache errors on every operation to exercise degradation.
type failingCache struct{}

func (failingCache) Get(context.Context, string) (*source.Project, error) {
	return nil, errors.New("cache down")
}
func (failingCache) Set(context.Context, *source.Project) error {
	return errors.New("cache down")
}

type EnrichSuite struct {
	suite.Suite
	resolver *fakeResolver
	ctx      context.Context
}

func TestEnrichSuite(t *testing.T) {
	suite.Run(t, new(EnrichSuite))
}

func (s *EnrichSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *EnrichSuite) SetupTest() {
	s.resolver = &fakeResolver{projects: map[string]*source.Project{
		"proj-1": {ID: "proj-1", Name: "Mine Expansion", Location: "Northern District"},
	}}
	s.ctx = context.Background()
}

func (s *EnrichSuite) TestResolve() {
	s.Run("empty reference resolves to nothing", func() {
		svc := New(s.resolver, NewMemoryCache(time.Minute))
		project, err := svc.Resolve(s.ctx, "")
		s.Require().NoError(err)
		s.Nil(project)
		s.Zero(s.resolver.calls)
	})

	s.Run("second resolve hits the cache", func() {
		svc := New(s.resolver, NewMemoryCache(time.Minute))

		first, err := svc.Resolve(s.ctx, "proj-1")
		s.Require().NoError(err)
		s.Equal("Mine Expansion", first.Name)

		second, err := svc.Resolve(s.ctx, "proj-1")
		s.Require().NoError(err)
		s.Equal(first.Name, second.Name)
		s.Equal(1, s.resolver.calls)
	})

	s.Run("expired entry refetches", func() {
		svc := New(s.resolver, NewMemoryCache(-time.Second))

		_, err := svc.Resolve(s.ctx, "proj-1")
		s.Require().NoError(err)
		_, err = svc.Resolve(s.ctx, "proj-1")
		s.Require().NoError(err)
		s.Equal(2, s.resolver.calls)
	})

	s.Run("cache failure degrades to a source fetch", func() {
		svc := New(s.resolver, failingCache{})

		project, err := svc.Resolve(s.ctx, "proj-1")
		s.Require().NoError(err)
		s.Equal("Mine Expansion", project.Name)
	})

	s.Run("resolver error surfaces", func() {
		s.resolver.err = errors.New("source down")
		svc := New(s.resolver, NewMemoryCache(time.Minute))

		_, err := svc.Resolve(s.ctx, "proj-1")
		s.Require().Error(err)
	})
}

func (s *EnrichSuite) TestMemoryCache() {
	s.Run("nil and id-less projects are not cached", func() {
		cache := NewMemoryCache(time.Minute)
		s.Require().NoError(cache.Set(s.ctx, nil))
		s.Require().NoError(cache.Set(s.ctx, &source.Project{Name: "no id"}))

		got, err := cache.Get(s.ctx, "")
		s.Require().NoError(err)
		s.Nil(got)
	})

	s.Run("expired entries are dropped on read", func() {
		cache := NewMemoryCache(-time.Second)
		s.Require().NoError(cache.Set(s.ctx, &source.Project{ID: "proj-1", Name: "Stale"}))
		s.Require().NoError(cache.Set(s.ctx, &source.Project{ID: "proj-2", Name: "Stale Too"}))

		got, err := cache.Get(s.ctx, "proj-1")
		s.Require().NoError(err)
		s.Nil(got)

		cache.mu.RLock()
		_, held := cache.entries["proj-1"]
		remaining := len(cache.entries)
		cache.mu.RUnlock()
		s.False(held)
		s.Equal(1, remaining)
	})

	s.Run("returned project is a copy", func() {
		cache := NewMemoryCache(time.Minute)
		s.Require().NoError(cache.Set(s.ctx, &source.Project{ID: "proj-1", Name: "Original"}))

		got, err := cache.Get(s.ctx, "proj-1")
		s.Require().NoError(err)
		got.Name = "mutated"

		again, err := cache.Get(s.ctx, "proj-1")
		s.Require().NoError(err)
		s.Equal("Original", again.Name)
	})
}
