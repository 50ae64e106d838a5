package events

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists reveal events in PostgreSQL. Append-only: there is
// no update or delete path, matching the audit-trail contract.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO temporal_reveal_events (id, commitment_id, credential_id, epoch, revealed_secret, tx_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := s.db.ExecContext(ctx, query,
		event.ID, event.CommitmentID, event.CredentialID, event.Epoch,
		event.RevealedSecret, event.TxRef, event.CreatedAt,
	); err != nil {
		return fmt.Errorf("append reveal event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCredential(ctx context.Context, credentialID string) ([]Event, error) {
	query := `
		SELECT id, commitment_id, credential_id, epoch, revealed_secret, tx_ref, created_at
		FROM temporal_reveal_events
		WHERE credential_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, credentialID)
	if err != nil {
		return nil, fmt.Errorf("list reveal events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.CommitmentID, &e.CredentialID, &e.Epoch,
			&e.RevealedSecret, &e.TxRef, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reveal event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reveal events: %w", err)
	}
	return out, nil
}
