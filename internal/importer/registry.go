// Package importer orchestrates import runs against the remote
// compliance source: it resolves record type configurations, fetches and
// filters source items, and drives batched per-item reconciliation.
package importer

import (
	"fmt"

	"regsync/internal/importer/strategy"
	"regsync/internal/records/store"
	"regsync/pkg/identity"
)

// RecordTypeConfig binds a logical record type to the source-system
// identifiers needed to filter a remote query and the strategy that
// reconciles its items.
type RecordTypeConfig struct {
	// Name is the logical record type ("Order", "Inspection", ...).
	Name string
	// SourceType and SourceMilestone identify the type in remote queries.
	SourceType      string
	SourceMilestone string
	// Projects optionally restricts the query to specific source projects.
	Projects []string
	// NewStrategy builds the per-run strategy carrying the caller
	// identity for provenance stamping.
	NewStrategy func(st store.Store, caller identity.Identity) strategy.Strategy
}

// Registry is the static table of record type configurations.
type Registry struct {
	configs []RecordTypeConfig
	byName  map[string]int
}

// NewRegistry validates the configuration table at startup: names must
// be unique and every config needs a strategy factory.
func NewRegistry(configs []RecordTypeConfig) (*Registry, error) {
	byName := make(map[string]int, len(configs))
	for i, cfg := range configs {
		if cfg.Name == "" {
			return nil, fmt.Errorf("record type config %d has no name", i)
		}
		if cfg.NewStrategy == nil {
			return nil, fmt.Errorf("record type %q has no strategy factory", cfg.Name)
		}
		if _, dup := byName[cfg.Name]; dup {
			return nil, fmt.Errorf("record type %q registered twice", cfg.Name)
		}
		byName[cfg.Name] = i
	}
	return &Registry{configs: configs, byName: byName}, nil
}

// DefaultRegistry returns the built-in record type table.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry([]RecordTypeConfig{
		{
			Name:            "Order",
			SourceType:      "Order",
			SourceMilestone: "Enforcement",
			NewStrategy: func(st store.Store, caller identity.Identity) strategy.Strategy {
				return strategy.NewOrder(st, caller)
			},
		},
		{
			Name:            "Inspection",
			SourceType:      "Inspection",
			SourceMilestone: "Compliance",
			NewStrategy: func(st store.Store, caller identity.Identity) strategy.Strategy {
				return strategy.NewInspection(st, caller)
			},
		},
		{
			Name:            "Certificate",
			SourceType:      "Certificate",
			SourceMilestone: "Authorization",
			NewStrategy: func(st store.Store, caller identity.Identity) strategy.Strategy {
				return strategy.NewCertificate(st, caller)
			},
		},
	})
	if err != nil {
		// The built-in table is validated by tests; an error here is a
		// programming bug, not a runtime condition.
		panic(err)
	}
	return registry
}

// All returns every registered record type exactly once.
func (r *Registry) All() []RecordTypeConfig {
	return append([]RecordTypeConfig(nil), r.configs...)
}

// Some returns the configs for the named types. Unknown names contribute
// nothing; they are silently skipped, not fatal.
func (r *Registry) Some(names []string) []RecordTypeConfig {
	var out []RecordTypeConfig
	for _, name := range names {
		if i, ok := r.byName[name]; ok {
			out = append(out, r.configs[i])
		}
	}
	return out
}
