package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tempora/internal/credential/models"
)

// PostgresStore persists credential records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, credential *models.Credential) error {
	query := `
		INSERT INTO credentials (id, student_name, degree, university, graduation_date, student_id,
			vc_cid, attestation_uid, attestation_tx_hash, issuer_did, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := s.db.ExecContext(ctx, query,
		credential.ID, credential.StudentName, credential.Degree, credential.University,
		credential.GraduationDate, credential.StudentID, credential.VcCID,
		credential.AttestationUID, credential.AttestationTxHash, credential.IssuerDID,
		credential.IssuedAt,
	); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	query := selectCredential + ` WHERE id = $1`
	row, err := scanCredential(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Credential, error) {
	query := selectCredential + ` ORDER BY issued_at ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*models.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

// Revoke relies on the revoked_at IS NULL guard for idempotence under
// concurrent sweeps.
func (s *PostgresStore) Revoke(ctx context.Context, id, reason string, at time.Time) (*models.Credential, error) {
	query := `
		UPDATE credentials
		SET revoked_at = $2, revocation_reason = $3
		WHERE id = $1 AND revoked_at IS NULL
		RETURNING id, student_name, degree, university, graduation_date, student_id,
			vc_cid, attestation_uid, attestation_tx_hash, issuer_did, issued_at,
			revoked_at, revocation_reason
	`
	row, err := scanCredential(s.db.QueryRowContext(ctx, query, id, at, reason))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, findErr := s.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, ErrAlreadyRevoked
		}
		return nil, fmt.Errorf("revoke credential: %w", err)
	}
	return row, nil
}

const selectCredential = `
	SELECT id, student_name, degree, university, graduation_date, student_id,
		vc_cid, attestation_uid, attestation_tx_hash, issuer_did, issued_at,
		revoked_at, revocation_reason
	FROM credentials`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(scanner rowScanner) (*models.Credential, error) {
	var c models.Credential
	var studentID, reason sql.NullString
	var revokedAt sql.NullTime
	if err := scanner.Scan(
		&c.ID, &c.StudentName, &c.Degree, &c.University, &c.GraduationDate,
		&studentID, &c.VcCID, &c.AttestationUID, &c.AttestationTxHash,
		&c.IssuerDID, &c.IssuedAt, &revokedAt, &reason,
	); err != nil {
		return nil, err
	}
	if studentID.Valid {
		c.StudentID = &studentID.String
	}
	if revokedAt.Valid {
		c.RevokedAt = &revokedAt.Time
	}
	if reason.Valid {
		c.RevocationReason = &reason.String
	}
	return &c, nil
}
