package store

import (
	"context"
	"sync"

	"regsync/internal/records/models"
	platstrings "regsync/pkg/platform/strings"
	"regsync/pkg/platform/sentinel"
)

// InMemory implements Store with a mutex-guarded map. It mirrors the
// Mongo store's uniqueness behaviour so unit tests exercise the same
// conflict paths the production store produces.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*models.Record
	unique  map[string]string // schema|audience|sourceRefId -> record ID
}

// NewInMemory creates an empty in-memory record store.
func NewInMemory() *InMemory {
	return &InMemory{
		records: make(map[string]*models.Record),
		unique:  make(map[string]string),
	}
}

func uniqueKey(rec *models.Record) string {
	return string(rec.Schema) + "|" + string(rec.Audience) + "|" + rec.SourceRefID
}

func (s *InMemory) FindOne(_ context.Context, filter Filter) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if matches(rec, filter) {
			return clone(rec), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Find(_ context.Context, filter Filter) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, rec := range s.records {
		if matches(rec, filter) {
			out = append(out, clone(rec))
		}
	}
	return out, nil
}

func (s *InMemory) Insert(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return sentinel.ErrConflict
	}
	key := uniqueKey(rec)
	if _, exists := s.unique[key]; exists {
		return sentinel.ErrConflict
	}
	s.records[rec.ID] = clone(rec)
	s.unique[key] = rec.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[rec.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	// The idempotency key never changes on update; keep the index aligned
	// in case a caller rewrites it anyway.
	delete(s.unique, uniqueKey(existing))
	s.records[rec.ID] = clone(rec)
	s.unique[uniqueKey(rec)] = rec.ID
	return nil
}

func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.unique, uniqueKey(existing))
	delete(s.records, id)
	return nil
}

// matches applies the filter's field-equality / set-membership semantics.
func matches(rec *models.Record, filter Filter) bool {
	for key, want := range filter {
		have, known := fieldValue(rec, key)
		if !known {
			return false
		}
		switch w := want.(type) {
		case string:
			if have != w {
				return false
			}
		case models.Schema:
			if have != string(w) {
				return false
			}
		case models.Audience:
			if have != string(w) {
				return false
			}
		case []string:
			if !platstrings.Contains(w, have) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func fieldValue(rec *models.Record, key string) (string, bool) {
	switch key {
	case "_id":
		return rec.ID, true
	case "schema":
		return string(rec.Schema), true
	case "audience":
		return string(rec.Audience), true
	case "sourceRefId":
		return rec.SourceRefID, true
	case "master":
		return rec.Master, true
	case "sourceSystemRef":
		return rec.SourceSystemRef, true
	default:
		return "", false
	}
}

// clone copies a record deeply enough that callers cannot mutate stored
// state through returned pointers.
func clone(rec *models.Record) *models.Record {
	out := *rec
	out.Read = append([]string(nil), rec.Read...)
	out.Write = append([]string(nil), rec.Write...)
	out.FlavourRecords = append([]string(nil), rec.FlavourRecords...)
	if rec.IssuedTo != nil {
		issuedTo := *rec.IssuedTo
		issuedTo.Read = append([]string(nil), rec.IssuedTo.Read...)
		if rec.IssuedTo.DateOfBirth != nil {
			dob := *rec.IssuedTo.DateOfBirth
			issuedTo.DateOfBirth = &dob
		}
		out.IssuedTo = &issuedTo
	}
	if rec.Documents != nil {
		out.Documents = make([]models.Document, len(rec.Documents))
		for i, doc := range rec.Documents {
			doc.Read = append([]string(nil), doc.Read...)
			doc.Write = append([]string(nil), doc.Write...)
			out.Documents[i] = doc
		}
	}
	return &out
}
