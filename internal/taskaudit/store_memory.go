package taskaudit

import (
	"context"
	"sync"

	"regsync/pkg/platform/sentinel"
)

// InMemory implements Store with a mutex-guarded map.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInMemory creates an empty in-memory task store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*Record)}
}

func (s *InMemory) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *rec
	stored.IndividualRecordStatus = append([]ItemFailure(nil), rec.IndividualRecordStatus...)
	s.records[rec.ID] = &stored
	return nil
}

func (s *InMemory) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *rec
	out.IndividualRecordStatus = append([]ItemFailure(nil), rec.IndividualRecordStatus...)
	return &out, nil
}
