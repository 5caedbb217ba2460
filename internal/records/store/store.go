// Package store persists normalized compliance records.
//
// One logical collection holds masters and flavours, distinguished by the
// (schema, audience) discriminator pair. The contract is intentionally
// narrow: field-equality and set-membership filters only, single-document
// writes, and a uniqueness guarantee on (schema, audience, sourceRefId)
// so concurrent imports of the same external id cannot create two masters.
package store

import (
	"context"

	"regsync/internal/records/models"
)

// Filter selects records by field equality. A []string value matches when
// the stored field equals any element (set membership).
//
// Supported keys: _id, schema, audience, sourceRefId, master,
// sourceSystemRef.
type Filter map[string]any

// Store is the persistence collaborator for masters, flavours and their
// shared collection. Implementations return sentinel.ErrNotFound for
// missing records and sentinel.ErrConflict when the uniqueness constraint
// on (schema, audience, sourceRefId) rejects an insert.
type Store interface {
	FindOne(ctx context.Context, filter Filter) (*models.Record, error)
	Find(ctx context.Context, filter Filter) ([]*models.Record, error)
	Insert(ctx context.Context, rec *models.Record) error
	// Update replaces the stored record with the same ID.
	Update(ctx context.Context, rec *models.Record) error
	// Delete removes a record by ID. Used only to roll back partial
	// master/flavour writes.
	Delete(ctx context.Context, id string) error
}
