package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"tempora/internal/credential/models"
)

// InMemoryStore stores credentials in memory for tests and local runs.
type InMemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]*models.Credential
}

// New constructs an empty in-memory credential store.
func New() *InMemoryStore {
	return &InMemoryStore{credentials: make(map[string]*models.Credential)}
}

func (s *InMemoryStore) Save(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copyRow := *credential
	s.credentials[credential.ID] = &copyRow
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.credentials[id]
	if !ok {
		return nil, ErrNotFound
	}
	copyRow := *row
	return &copyRow, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]*models.Credential, 0, len(s.credentials))
	for _, row := range s.credentials {
		copyRow := *row
		rows = append(rows, &copyRow)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].IssuedAt.Before(rows[j].IssuedAt) })
	return rows, nil
}

// Revoke performs the check-and-set under the store lock so concurrent
// sweeps cannot double-revoke.
func (s *InMemoryStore) Revoke(_ context.Context, id, reason string, at time.Time) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.credentials[id]
	if !ok {
		return nil, ErrNotFound
	}
	if row.RevokedAt != nil {
		return nil, ErrAlreadyRevoked
	}
	row.RevokedAt = &at
	row.RevocationReason = &reason
	copyRow := *row
	return &copyRow, nil
}
