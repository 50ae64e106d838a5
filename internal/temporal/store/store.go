package store

import (
	"context"
	"time"

	"tempora/internal/temporal/models"
	dErrors "tempora/pkg/domain-errors"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the requested commitment does not exist
// - Return ErrAlreadyRevealed when MarkRevealed loses the check-and-set
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "commitment not found")

	// ErrAlreadyRevealed is returned by MarkRevealed when the row is already
	// revealed. Revealed rows are immutable.
	ErrAlreadyRevealed = dErrors.New(dErrors.CodeAlreadyRevealed, "commitment already revealed")
)

// Store persists temporal commitments, one row per credential and epoch.
type Store interface {
	// CreateBatch inserts all commitment rows for one credential atomically.
	CreateBatch(ctx context.Context, commitments []*models.Commitment) error

	// FindByCredentialAndEpoch looks a row up by its composite key.
	FindByCredentialAndEpoch(ctx context.Context, credentialID string, epoch int) (*models.Commitment, error)

	// ListByCredential returns all rows for a credential, epoch ascending.
	// An empty slice (not an error) when none exist.
	ListByCredential(ctx context.Context, credentialID string) ([]*models.Commitment, error)

	// MarkRevealed sets revealed/revealedSecret/revealedAt in one guarded
	// write. The check and the set are a single compare-and-swap: of two
	// concurrent reveals for the same row, exactly one succeeds and the
	// loser observes ErrAlreadyRevealed.
	MarkRevealed(ctx context.Context, credentialID string, epoch int, secret string, at time.Time) (*models.Commitment, error)

	// ListUnrevealedDueBefore returns unrevealed rows whose deadline is
	// strictly before the cutoff, across all credentials.
	ListUnrevealedDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Commitment, error)

	// RescheduleUnrevealed moves every unrevealed deadline for the
	// credential to the given time. Demo-only; see the simulate endpoint.
	RescheduleUnrevealed(ctx context.Context, credentialID string, deadline time.Time) ([]*models.RescheduledEntry, error)
}
