package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tempora/internal/attest"
	"tempora/internal/credential/models"
	"tempora/internal/credential/store"
	temporalmodels "tempora/internal/temporal/models"
	dErrors "tempora/pkg/domain-errors"
	"tempora/pkg/requesttime"
)

// Scheduler creates the temporal commitment schedule for a new credential.
type Scheduler interface {
	IssueSchedule(ctx context.Context, credentialID string, issueDate time.Time, periods int, baseSecret string) (*temporalmodels.Schedule, error)
}

// Store defines the persistence interface for credential records.
type Store interface {
	Save(ctx context.Context, credential *models.Credential) error
	FindByID(ctx context.Context, id string) (*models.Credential, error)
	List(ctx context.Context) ([]*models.Credential, error)
	Revoke(ctx context.Context, id, reason string, at time.Time) (*models.Credential, error)
}

type Option func(*Service)

const defaultTemporalPeriods = 5

// Service issues and manages credential records. The verifiable-credential
// document, IPFS pinning, and on-chain attestation are external concerns;
// their handles come from the attestation client (stubbed in this build).
type Service struct {
	store     Store
	scheduler Scheduler
	attestor  attest.Stub
	logger    *slog.Logger
	issuerDID string
	periods   int
}

func NewService(st Store, scheduler Scheduler, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:     st,
		scheduler: scheduler,
		attestor:  attest.NewStub(),
		logger:    logger,
		issuerDID: "did:key:tempora-dev",
		periods:   defaultTemporalPeriods,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithIssuerDID sets the DID recorded as credential issuer.
func WithIssuerDID(did string) Option {
	return func(s *Service) {
		if did != "" {
			s.issuerDID = did
		}
	}
}

// WithDefaultPeriods sets the temporal period count used when the issue
// request does not specify one.
func WithDefaultPeriods(periods int) Option {
	return func(s *Service) {
		if periods > 0 {
			s.periods = periods
		}
	}
}

// IssueResult pairs the stored credential with its temporal schedule.
type IssueResult struct {
	Credential *models.Credential       `json:"credential"`
	Schedule   *temporalmodels.Schedule `json:"temporal_schedule"`
}

// Issue creates the credential record and its temporal commitment schedule.
func (s *Service) Issue(ctx context.Context, req *models.IssueRequest) (*IssueResult, error) {
	now := requesttime.Now(ctx)

	periods := req.TemporalPeriods
	if periods == 0 {
		periods = s.periods
	}

	credential := &models.Credential{
		ID:                uuid.New().String(),
		StudentName:       req.StudentName,
		Degree:            req.Degree,
		University:        req.University,
		GraduationDate:    req.GraduationDate,
		VcCID:             s.attestor.CID(),
		AttestationUID:    s.attestor.AttestationUID(),
		AttestationTxHash: s.attestor.TxRef(),
		IssuerDID:         s.issuerDID,
		IssuedAt:          now,
	}
	if req.StudentID != "" {
		studentID := req.StudentID
		credential.StudentID = &studentID
	}

	if err := s.store.Save(ctx, credential); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to save credential")
	}

	schedule, err := s.scheduler.IssueSchedule(ctx, credential.ID, now, periods, "")
	if err != nil {
		// The credential row exists but carries no commitments; surface the
		// failure so the caller can retry issuance under a fresh id.
		s.logger.ErrorContext(ctx, "temporal schedule creation failed after credential save",
			"credential_id", credential.ID,
			"error", err,
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", credential.ID,
		"university", credential.University,
		"temporal_periods", periods,
	)
	return &IssueResult{Credential: credential, Schedule: schedule}, nil
}

// Get returns one credential by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Credential, error) {
	credential, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load credential")
	}
	return credential, nil
}

// List returns all credentials, oldest first.
func (s *Service) List(ctx context.Context) ([]*models.Credential, error) {
	credentials, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list credentials")
	}
	return credentials, nil
}

// Revoke marks a credential revoked with an operator-supplied reason.
func (s *Service) Revoke(ctx context.Context, id, reason string) (*models.Credential, error) {
	now := requesttime.Now(ctx)
	credential, err := s.store.Revoke(ctx, id, reason, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrAlreadyRevoked) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to revoke credential")
	}
	s.logger.InfoContext(ctx, "credential revoked",
		"credential_id", id,
		"reason", reason,
	)
	return credential, nil
}
