// Package store provides RecordStore implementations. Uniqueness, insertion
// order, and the Submitted→Decrypted transition are enforced here; services
// translate the sentinel errors into domain errors.
package store

import (
	"context"
	"sync"
	"time"

	"sealedreg/internal/registry/models"
	"sealedreg/pkg/platform/sentinel"
)

// InMemory keeps records in a mutex-guarded map plus an insertion-ordered
// owner list. It is the default store for local runs and unit tests.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*models.Record
	owners  []string
}

// NewInMemory constructs an empty in-memory record store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*models.Record)}
}

// Exists reports whether a record for owner was ever admitted.
func (s *InMemory) Exists(_ context.Context, owner string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[owner]
	return ok, nil
}

// Insert stores a new record. Returns sentinel.ErrConflict when the owner is
// already registered; uniqueness is permanent.
func (s *InMemory) Insert(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Owner]; ok {
		return sentinel.ErrConflict
	}
	s.insertLocked(record)
	return nil
}

// InsertBatch stores all records or none. Duplicates against the store and
// within the batch are detected before any mutation.
func (s *InMemory) InsertBatch(_ context.Context, records []*models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := s.records[r.Owner]; ok {
			return sentinel.ErrConflict
		}
		if _, ok := seen[r.Owner]; ok {
			return sentinel.ErrConflict
		}
		seen[r.Owner] = struct{}{}
	}
	for _, r := range records {
		s.insertLocked(r)
	}
	return nil
}

func (s *InMemory) insertLocked(record *models.Record) {
	copied := *record
	s.records[record.Owner] = &copied
	s.owners = append(s.owners, record.Owner)
}

// Get returns a copy of the record, or sentinel.ErrNotFound.
func (s *InMemory) Get(_ context.Context, owner string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

// MarkDecrypted applies the disclosed plaintext and flips the record to
// Decrypted in one step. Returns sentinel.ErrNotFound for unknown owners and
// sentinel.ErrInvalidState when the record was already decrypted.
func (s *InMemory) MarkDecrypted(_ context.Context, owner, plainName string, plainAge int, plainContact string, now time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if record.Decrypted() {
		return nil, sentinel.ErrInvalidState
	}
	record.PlainName = plainName
	record.PlainAge = plainAge
	record.PlainContact = plainContact
	record.DecryptedAt = &now
	record.State = models.StateDecrypted
	copied := *record
	return &copied, nil
}

// ListOwners returns the registered owners in insertion order. The returned
// slice is a copy, stable under concurrent writes.
func (s *InMemory) ListOwners(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.owners...), nil
}

// Count returns the number of admitted records.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.owners), nil
}
