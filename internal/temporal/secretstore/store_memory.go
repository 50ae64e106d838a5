package secretstore

import (
	"context"
	"sync"
)

// InMemoryStore keeps secret bundles in memory for tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	bundles map[string]Bundle
}

// NewInMemory constructs an empty in-memory secret store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{bundles: make(map[string]Bundle)}
}

func (s *InMemoryStore) Put(_ context.Context, bundle Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bundles[bundle.CredentialID]; exists {
		return ErrExists
	}
	copySecrets := append([]string{}, bundle.Secrets...)
	bundle.Secrets = copySecrets
	s.bundles[bundle.CredentialID] = bundle
	return nil
}

func (s *InMemoryStore) Secret(_ context.Context, credentialID string, epoch int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bundle, ok := s.bundles[credentialID]
	if !ok {
		return "", ErrNotFound
	}
	if epoch < 0 || epoch >= len(bundle.Secrets) {
		return "", ErrNotFound
	}
	return bundle.Secrets[epoch], nil
}

// Drop removes a bundle. Test helper for corruption scenarios.
func (s *InMemoryStore) Drop(credentialID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bundles, credentialID)
}

// Corrupt replaces the secret at one epoch. Test helper for tamper scenarios.
func (s *InMemoryStore) Corrupt(credentialID string, epoch int, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bundle, ok := s.bundles[credentialID]
	if !ok || epoch < 0 || epoch >= len(bundle.Secrets) {
		return
	}
	bundle.Secrets[epoch] = secret
}
