// Package events is the append-only audit trail for temporal reveals.
// One event is created per successful reveal, immediately after the
// commitment row is marked revealed. Events are never mutated or deleted.
package events

import (
	"context"
	"time"

	dErrors "tempora/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "reveal event not found")

// Event records one successful reveal.
type Event struct {
	ID             string    `json:"id"`
	CommitmentID   string    `json:"commitment_id"`
	CredentialID   string    `json:"credential_id"`
	Epoch          int       `json:"epoch"`
	RevealedSecret string    `json:"revealed_secret"`
	TxRef          string    `json:"tx_ref"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists reveal events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCredential(ctx context.Context, credentialID string) ([]Event, error)
}
