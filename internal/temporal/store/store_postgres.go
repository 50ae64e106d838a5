package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tempora/internal/temporal/models"
)

// PostgresStore persists temporal commitments in PostgreSQL.
//
// Schema: migrations/0001_init.sql. The (credential_id, epoch) unique
// constraint backs the issuance no-overwrite rule, and MarkRevealed relies
// on a conditional UPDATE for its compare-and-swap.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgres constructs a PostgreSQL-backed commitment store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a commitment store bound to a transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{tx: tx}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer() dbExecutor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresStore) CreateBatch(ctx context.Context, commitments []*models.Commitment) error {
	if len(commitments) == 0 {
		return fmt.Errorf("commitment batch is empty")
	}
	query := `
		INSERT INTO temporal_commitments (id, credential_id, epoch, commitment, reveal_deadline, revealed)
		VALUES ($1, $2, $3, $4, $5, false)
	`

	insertAll := func(exec dbExecutor) error {
		for _, c := range commitments {
			if _, err := exec.ExecContext(ctx, query,
				c.ID, c.CredentialID, c.Epoch, c.Commitment, c.RevealDeadline,
			); err != nil {
				return fmt.Errorf("insert commitment epoch %d: %w", c.Epoch, err)
			}
		}
		return nil
	}

	if s.tx != nil {
		return insertAll(s.tx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commitment batch: %w", err)
	}
	if err := insertAll(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit commitment batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByCredentialAndEpoch(ctx context.Context, credentialID string, epoch int) (*models.Commitment, error) {
	query := `
		SELECT id, credential_id, epoch, commitment, reveal_deadline, revealed, revealed_secret, revealed_at
		FROM temporal_commitments
		WHERE credential_id = $1 AND epoch = $2
	`
	row, err := scanCommitment(s.execer().QueryRowContext(ctx, query, credentialID, epoch))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find commitment: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) ListByCredential(ctx context.Context, credentialID string) ([]*models.Commitment, error) {
	query := `
		SELECT id, credential_id, epoch, commitment, reveal_deadline, revealed, revealed_secret, revealed_at
		FROM temporal_commitments
		WHERE credential_id = $1
		ORDER BY epoch ASC
	`
	rows, err := s.execer().QueryContext(ctx, query, credentialID)
	if err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	defer rows.Close()
	return collectCommitments(rows)
}

// MarkRevealed is a compare-and-swap: the WHERE revealed = false clause
// guarantees that of two concurrent reveals only one row update lands.
func (s *PostgresStore) MarkRevealed(ctx context.Context, credentialID string, epoch int, secret string, at time.Time) (*models.Commitment, error) {
	query := `
		UPDATE temporal_commitments
		SET revealed = true, revealed_secret = $3, revealed_at = $4
		WHERE credential_id = $1 AND epoch = $2 AND revealed = false
		RETURNING id, credential_id, epoch, commitment, reveal_deadline, revealed, revealed_secret, revealed_at
	`
	row, err := scanCommitment(s.execer().QueryRowContext(ctx, query, credentialID, epoch, secret, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Distinguish a missing row from a lost race.
			if _, findErr := s.FindByCredentialAndEpoch(ctx, credentialID, epoch); findErr != nil {
				return nil, findErr
			}
			return nil, ErrAlreadyRevealed
		}
		return nil, fmt.Errorf("mark revealed: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) ListUnrevealedDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Commitment, error) {
	query := `
		SELECT id, credential_id, epoch, commitment, reveal_deadline, revealed, revealed_secret, revealed_at
		FROM temporal_commitments
		WHERE revealed = false AND reveal_deadline < $1
		ORDER BY credential_id, epoch ASC
	`
	rows, err := s.execer().QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list due commitments: %w", err)
	}
	defer rows.Close()
	return collectCommitments(rows)
}

func (s *PostgresStore) RescheduleUnrevealed(ctx context.Context, credentialID string, deadline time.Time) ([]*models.RescheduledEntry, error) {
	query := `
		UPDATE temporal_commitments
		SET reveal_deadline = $2
		FROM (
			SELECT epoch, reveal_deadline AS old_deadline
			FROM temporal_commitments
			WHERE credential_id = $1 AND revealed = false
		) prior
		WHERE temporal_commitments.credential_id = $1
		  AND temporal_commitments.revealed = false
		  AND temporal_commitments.epoch = prior.epoch
		RETURNING temporal_commitments.epoch, prior.old_deadline
	`
	rows, err := s.execer().QueryContext(ctx, query, credentialID, deadline)
	if err != nil {
		return nil, fmt.Errorf("reschedule commitments: %w", err)
	}
	defer rows.Close()

	var moved []*models.RescheduledEntry
	for rows.Next() {
		entry := &models.RescheduledEntry{NewDeadline: deadline}
		if err := rows.Scan(&entry.Epoch, &entry.OldDeadline); err != nil {
			return nil, fmt.Errorf("scan rescheduled entry: %w", err)
		}
		moved = append(moved, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rescheduled entries: %w", err)
	}
	return moved, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommitment(scanner rowScanner) (*models.Commitment, error) {
	var c models.Commitment
	var secret sql.NullString
	var revealedAt sql.NullTime
	if err := scanner.Scan(
		&c.ID, &c.CredentialID, &c.Epoch, &c.Commitment,
		&c.RevealDeadline, &c.Revealed, &secret, &revealedAt,
	); err != nil {
		return nil, err
	}
	if secret.Valid {
		c.RevealedSecret = &secret.String
	}
	if revealedAt.Valid {
		c.RevealedAt = &revealedAt.Time
	}
	return &c, nil
}

func collectCommitments(rows *sql.Rows) ([]*models.Commitment, error) {
	var out []*models.Commitment
	for rows.Next() {
		c, err := scanCommitment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commitments: %w", err)
	}
	return out, nil
}
