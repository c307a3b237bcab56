package store

import (
	"context"
	"fmt"
	"sync"

	"credentia/internal/ledger/models"
	"credentia/pkg/platform/sentinel"
)

// InMemoryStore keeps committed credentials in process memory, keyed by record ID
// with insertion order preserved. It is safe for concurrent access and loses
// everything on restart.
type InMemoryStore struct {
	mu         sync.RWMutex
	records    map[models.RecordID]models.CredentialRecord
	byStudent  map[string]models.RecordID
	order      []models.RecordID
	baseNumber int64
}

// Option configures the InMemoryStore.
type Option func(*InMemoryStore)

// WithBaseBlockNumber overrides the block number given to the first record.
func WithBaseBlockNumber(base int64) Option {
	return func(s *InMemoryStore) {
		s.baseNumber = base
	}
}

// NewInMemoryStore constructs an empty ledger store.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		records:    make(map[models.RecordID]models.CredentialRecord),
		byStudent:  make(map[string]models.RecordID),
		baseNumber: models.BaseBlockNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append commits a record. The duplicate check and the insert happen under one
// lock so concurrent appends cannot both claim the same student ID.
func (s *InMemoryStore) Append(_ context.Context, record models.CredentialRecord) (models.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byStudent[record.StudentID]; taken {
		return models.CredentialRecord{}, fmt.Errorf("student id %q: %w", record.StudentID, sentinel.ErrConflict)
	}
	if _, taken := s.records[record.RecordID]; taken {
		return models.CredentialRecord{}, fmt.Errorf("record id %s: %w", record.RecordID, sentinel.ErrConflict)
	}

	record.BlockNumber = s.baseNumber + int64(len(s.order))
	s.records[record.RecordID] = record
	s.byStudent[record.StudentID] = record.RecordID
	s.order = append(s.order, record.RecordID)
	return record, nil
}

// FindByID returns the record with exactly this ID or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, id models.RecordID) (models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[id]; ok {
		return record, nil
	}
	return models.CredentialRecord{}, sentinel.ErrNotFound
}

// ExistsByStudentID reports whether a credential was already committed for studentID.
func (s *InMemoryStore) ExistsByStudentID(_ context.Context, studentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byStudent[studentID]
	return ok, nil
}

// Len returns the number of committed records.
func (s *InMemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

// List returns a copy of all records in commit order.
func (s *InMemoryStore) List(_ context.Context) ([]models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CredentialRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
