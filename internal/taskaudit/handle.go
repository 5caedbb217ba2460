package taskaudit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle gives one run merge-update access to its audit record. The
// first Update creates the record; later calls update it in place by the
// stored id. Updates are idempotent merges, safe to call from the
// concurrent item-processing tasks of a single run.
type Handle struct {
	store Store

	mu  sync.Mutex
	rec *Record
}

// NewHandle creates a handle bound to a store but no record yet.
func NewHandle(store Store) *Handle {
	return &Handle{store: store}
}

// ID returns the audit record id, or "" before the first Update.
func (h *Handle) ID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rec == nil {
		return ""
	}
	return h.rec.ID
}

// Update merges the partial fields into the record and persists it.
// Returns a copy of the resulting record.
func (h *Handle) Update(ctx context.Context, partial Update) (*Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rec == nil {
		h.rec = &Record{
			ID:        uuid.NewString(),
			Status:    StatusRunning,
			StartedAt: time.Now().UTC(),
		}
	}

	if partial.Status != nil {
		h.rec.Status = *partial.Status
	}
	if partial.DataSource != nil {
		h.rec.DataSource = *partial.DataSource
	}
	if partial.ItemTotal != nil {
		h.rec.ItemTotal = *partial.ItemTotal
	}
	if partial.ItemsProcessed != nil {
		h.rec.ItemsProcessed = *partial.ItemsProcessed
	}
	if partial.FinishedAt != nil {
		h.rec.FinishedAt = partial.FinishedAt
	}
	if partial.AddedBy != nil {
		h.rec.AddedBy = *partial.AddedBy
	}
	h.rec.IndividualRecordStatus = append(h.rec.IndividualRecordStatus, partial.Failures...)

	if err := h.store.Save(ctx, h.rec); err != nil {
		return nil, err
	}

	snapshot := *h.rec
	snapshot.IndividualRecordStatus = append([]ItemFailure(nil), h.rec.IndividualRecordStatus...)
	return &snapshot, nil
}
