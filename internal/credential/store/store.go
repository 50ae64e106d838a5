package store

import (
	"context"
	"time"

	"tempora/internal/credential/models"
	dErrors "tempora/pkg/domain-errors"
)

// Error Contract:
// - FindByID returns ErrNotFound when the credential does not exist
// - Revoke returns ErrAlreadyRevoked when the credential is already revoked,
//   so sweep callers can distinguish a lost race from a real failure

var (
	ErrNotFound       = dErrors.New(dErrors.CodeNotFound, "credential not found")
	ErrAlreadyRevoked = dErrors.New(dErrors.CodeConflict, "credential already revoked")
)

// Store persists credential records.
type Store interface {
	Save(ctx context.Context, credential *models.Credential) error
	FindByID(ctx context.Context, id string) (*models.Credential, error)
	List(ctx context.Context) ([]*models.Credential, error)

	// Revoke sets the revocation fields only when the credential is not yet
	// revoked; the guard makes revocation idempotent under concurrent sweeps.
	Revoke(ctx context.Context, id, reason string, at time.Time) (*models.Credential, error)
}
