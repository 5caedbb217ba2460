// Package strategy holds the per-record-type transform/reconcile
// implementations behind one shared contract.
//
// A strategy turns a raw source item into a normalized record, finds its
// persisted counterpart by stable external reference, and creates or
// updates the master plus its access-scoped flavours as one logical unit.
package strategy

import (
	"context"
	"errors"

	"regsync/internal/importer/source"
	"regsync/internal/records/models"
)

// ErrMissingInput is returned by Transform when the raw item is nil.
var ErrMissingInput = errors.New("missing source item")

// ErrPartialCreate reports a master/flavour write that partially landed
// and could not be rolled back. Operators must be able to detect these
// from the audit record and replay the item.
var ErrPartialCreate = errors.New("partial master/flavour create")

// Action names what a reconcile did.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Result reports the outcome of a create or update.
type Result struct {
	Action   Action
	Master   *models.Record
	Flavours []*models.Record
}

// Strategy is the shared per-record-type contract.
type Strategy interface {
	// Transform produces a normalized record from a raw source item and
	// its resolved enrichment data. It is pure: nil input returns
	// ErrMissingInput, and absent optional fields map to zero values,
	// never to an error.
	Transform(item *source.Item, project *source.Project) (*models.Record, error)

	// FindExisting looks up the persisted master by (schema, sourceRefId).
	// Point lookup; returns (nil, nil) when no master exists.
	FindExisting(ctx context.Context, rec *models.Record) (*models.Record, error)

	// Create writes the master and its flavours in one logical unit,
	// rolling back partial writes.
	Create(ctx context.Context, rec *models.Record) (*Result, error)

	// Update patches the master and its flavours, creating any flavour
	// the source data now implies but the store lacks.
	Update(ctx context.Context, rec *models.Record, existing *models.Record) (*Result, error)

	// IsFeeOrder classifies administrative fee-orders excluded from
	// import. Only the Order family ever returns true.
	IsFeeOrder(rec *models.Record) bool
}
