// Package secretstore holds the issuer-side secret bundles backing temporal
// commitments. Secrets live on the other side of the trust boundary from the
// public commitment rows: written once at issuance, read per epoch at
// reveal, and never reachable through the commitment store's access path.
package secretstore

import (
	"context"

	dErrors "tempora/pkg/domain-errors"
)

var (
	// ErrNotFound is returned when no bundle (or epoch) exists.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "secret bundle not found")

	// ErrExists guards the write-once rule: a credential's bundle is never
	// overwritten.
	ErrExists = dErrors.New(dErrors.CodeConflict, "secret bundle already exists")
)

// Bundle is the full secret side of one credential's chain.
type Bundle struct {
	CredentialID string   `json:"credential_id"`
	Secrets      []string `json:"secrets"`
	BaseSecret   string   `json:"base_secret"`
}

// Store is the write-once-then-read-only secret bundle store.
type Store interface {
	// Put stores the bundle for a credential. ErrExists if one is present.
	Put(ctx context.Context, bundle Bundle) error

	// Secret returns the secret for one epoch of a credential.
	// ErrNotFound when the bundle is missing or the epoch is out of range.
	Secret(ctx context.Context, credentialID string, epoch int) (string, error)
}
