package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"tempora/internal/temporal/models"
	dErrors "tempora/pkg/domain-errors"
)

type commitmentKey struct {
	credentialID string
	epoch        int
}

// InMemoryStore stores commitments in memory for tests and local runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[commitmentKey]*models.Commitment
}

// New constructs an empty in-memory commitment store.
func New() *InMemoryStore {
	return &InMemoryStore{rows: make(map[commitmentKey]*models.Commitment)}
}

func (s *InMemoryStore) CreateBatch(_ context.Context, commitments []*models.Commitment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range commitments {
		key := commitmentKey{c.CredentialID, c.Epoch}
		if _, exists := s.rows[key]; exists {
			return dErrors.New(dErrors.CodeConflict, "commitment already exists for credential and epoch")
		}
	}
	for _, c := range commitments {
		copyRow := *c
		s.rows[commitmentKey{c.CredentialID, c.Epoch}] = &copyRow
	}
	return nil
}

func (s *InMemoryStore) FindByCredentialAndEpoch(_ context.Context, credentialID string, epoch int) (*models.Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[commitmentKey{credentialID, epoch}]
	if !ok {
		return nil, ErrNotFound
	}
	copyRow := *row
	return &copyRow, nil
}

func (s *InMemoryStore) ListByCredential(_ context.Context, credentialID string) ([]*models.Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []*models.Commitment
	for key, row := range s.rows {
		if key.credentialID != credentialID {
			continue
		}
		copyRow := *row
		rows = append(rows, &copyRow)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Epoch < rows[j].Epoch })
	return rows, nil
}

// MarkRevealed performs the check-and-set under the store lock so two
// concurrent reveals for the same row serialize: at most one succeeds.
func (s *InMemoryStore) MarkRevealed(_ context.Context, credentialID string, epoch int, secret string, at time.Time) (*models.Commitment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[commitmentKey{credentialID, epoch}]
	if !ok {
		return nil, ErrNotFound
	}
	if row.Revealed {
		return nil, ErrAlreadyRevealed
	}
	row.Revealed = true
	row.RevealedSecret = &secret
	row.RevealedAt = &at
	copyRow := *row
	return &copyRow, nil
}

func (s *InMemoryStore) ListUnrevealedDueBefore(_ context.Context, cutoff time.Time) ([]*models.Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []*models.Commitment
	for _, row := range s.rows {
		if row.Revealed || !row.RevealDeadline.Before(cutoff) {
			continue
		}
		copyRow := *row
		rows = append(rows, &copyRow)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CredentialID != rows[j].CredentialID {
			return rows[i].CredentialID < rows[j].CredentialID
		}
		return rows[i].Epoch < rows[j].Epoch
	})
	return rows, nil
}

func (s *InMemoryStore) RescheduleUnrevealed(_ context.Context, credentialID string, deadline time.Time) ([]*models.RescheduledEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var moved []*models.RescheduledEntry
	for key, row := range s.rows {
		if key.credentialID != credentialID || row.Revealed {
			continue
		}
		moved = append(moved, &models.RescheduledEntry{
			Epoch:       row.Epoch,
			OldDeadline: row.RevealDeadline,
			NewDeadline: deadline,
		})
		row.RevealDeadline = deadline
	}
	sort.Slice(moved, func(i, j int) bool { return moved[i].Epoch < moved[j].Epoch })
	return moved, nil
}
