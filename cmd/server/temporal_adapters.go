package main

import (
	"context"
	"time"

	credentialstore "tempora/internal/credential/store"
	"tempora/internal/temporal/secretstore"
	temporalservice "tempora/internal/temporal/service"
)

// credentialLifecycleWrapper adapts the credential store to the temporal
// service's CredentialLifecycle interface. The conversion lives at the
// composition root so the temporal module stays decoupled from
// credential/models.
type credentialLifecycleWrapper struct {
	store credentialstore.Store
}

func (w *credentialLifecycleWrapper) Get(ctx context.Context, credentialID string) (*temporalservice.CredentialRef, error) {
	credential, err := w.store.FindByID(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	return &temporalservice.CredentialRef{
		ID:        credential.ID,
		RevokedAt: credential.RevokedAt,
	}, nil
}

func (w *credentialLifecycleWrapper) Revoke(ctx context.Context, credentialID, reason string, at time.Time) error {
	_, err := w.store.Revoke(ctx, credentialID, reason, at)
	return err
}

// secretSourceWrapper adapts a secretstore.Store to the temporal service's
// SecretSource interface.
type secretSourceWrapper struct {
	store secretstore.Store
}

func (w *secretSourceWrapper) Put(ctx context.Context, bundle temporalservice.SecretBundle) error {
	return w.store.Put(ctx, secretstore.Bundle{
		CredentialID: bundle.CredentialID,
		Secrets:      bundle.Secrets,
		BaseSecret:   bundle.BaseSecret,
	})
}

func (w *secretSourceWrapper) Secret(ctx context.Context, credentialID string, epoch int) (string, error) {
	return w.store.Secret(ctx, credentialID, epoch)
}
