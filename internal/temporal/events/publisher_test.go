package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first n appends, then delegates to the memory store.
type flakyStore struct {
	mu        sync.Mutex
	failures  int
	attempts  int
	delegated *InMemoryStore
}

func (s *flakyStore) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	s.attempts++
	fail := s.attempts <= s.failures
	s.mu.Unlock()
	if fail {
		return errors.New("transient storage failure")
	}
	return s.delegated.Append(ctx, event)
}

func (s *flakyStore) ListByCredential(ctx context.Context, credentialID string) ([]Event, error) {
	return s.delegated.ListByCredential(ctx, credentialID)
}

func TestPublisherRetriesTransientFailures(t *testing.T) {
	store := &flakyStore{failures: 2, delegated: NewInMemoryStore()}
	pub := NewPublisher(store,
		WithPublisherLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMaxRetries(4),
	)

	event := Event{ID: "e1", CredentialID: "cred-1", Epoch: 0, RevealedSecret: "s", CreatedAt: time.Now()}
	require.NoError(t, pub.Emit(context.Background(), event))

	stored, err := pub.List(context.Background(), "cred-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "e1", stored[0].ID)
	assert.Equal(t, 3, store.attempts, "two failures then one success")
}

func TestPublisherGivesUpAfterMaxRetries(t *testing.T) {
	store := &flakyStore{failures: 100, delegated: NewInMemoryStore()}
	pub := NewPublisher(store,
		WithPublisherLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMaxRetries(2),
	)

	err := pub.Emit(context.Background(), Event{ID: "e1", CredentialID: "cred-1"})
	require.Error(t, err)
	assert.Equal(t, 3, store.attempts, "initial attempt plus two retries")
}

func TestPublisherAsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(8))

	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Emit(context.Background(), Event{ID: "e", CredentialID: "cred-1", Epoch: i}))
	}
	pub.Close()

	stored, err := store.ListByCredential(context.Background(), "cred-1")
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestPublisherStampsCreatedAt(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	require.NoError(t, pub.Emit(context.Background(), Event{ID: "e1", CredentialID: "cred-1"}))
	stored, err := store.ListByCredential(context.Background(), "cred-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].CreatedAt.IsZero())
}
