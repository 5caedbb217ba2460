package taskaudit

import "context"

// Store persists task audit records. Get returns sentinel.ErrNotFound
// when no record exists with the given id.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
}
