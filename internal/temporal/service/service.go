package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"tempora/internal/attest"
	"tempora/internal/temporal/chain"
	"tempora/internal/temporal/events"
	"tempora/internal/temporal/metrics"
	"tempora/internal/temporal/models"
	"tempora/internal/temporal/store"
	dErrors "tempora/pkg/domain-errors"
	"tempora/pkg/requesttime"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,SecretSource,CredentialLifecycle

// Store defines the persistence interface for commitment rows.
// Error Contract:
// - FindByCredentialAndEpoch returns store.ErrNotFound when no row exists
// - MarkRevealed returns store.ErrAlreadyRevealed when losing the CAS
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	CreateBatch(ctx context.Context, commitments []*models.Commitment) error
	FindByCredentialAndEpoch(ctx context.Context, credentialID string, epoch int) (*models.Commitment, error)
	ListByCredential(ctx context.Context, credentialID string) ([]*models.Commitment, error)
	MarkRevealed(ctx context.Context, credentialID string, epoch int, secret string, at time.Time) (*models.Commitment, error)
	ListUnrevealedDueBefore(ctx context.Context, cutoff time.Time) ([]*models.Commitment, error)
	RescheduleUnrevealed(ctx context.Context, credentialID string, deadline time.Time) ([]*models.RescheduledEntry, error)
}

// SecretSource reads issuer-held chain secrets. Write-once at issuance,
// read-many at reveal; never reachable via the public commitment path.
type SecretSource interface {
	Put(ctx context.Context, bundle SecretBundle) error
	Secret(ctx context.Context, credentialID string, epoch int) (string, error)
}

// SecretBundle mirrors secretstore.Bundle at the service boundary.
type SecretBundle struct {
	CredentialID string
	Secrets      []string
	BaseSecret   string
}

// CredentialRef is the minimal view of the parent credential the workflow
// needs: existence and revocation state.
type CredentialRef struct {
	ID        string
	RevokedAt *time.Time
}

// CredentialLifecycle is the external credential collaborator.
// Error Contract:
// - Get returns a not_found-coded error when the credential does not exist
// - Revoke must be a no-op returning an error if the credential is already
//   revoked; the sweep treats that as "lost the race", not a failure
type CredentialLifecycle interface {
	Get(ctx context.Context, credentialID string) (*CredentialRef, error)
	Revoke(ctx context.Context, credentialID, reason string, at time.Time) error
}

type Option func(*Service)

const (
	defaultSweepConcurrency = 4
)

// Service orchestrates chain generation into durable per-epoch commitment
// rows, processes reveals with replay protection, and sweeps lapsed
// commitments into credential revocations.
type Service struct {
	store            Store
	secrets          SecretSource
	credentials      CredentialLifecycle
	publisher        *events.Publisher
	logger           *slog.Logger
	metrics          *metrics.Metrics
	tracer           trace.Tracer
	intervalMonths   int
	gracePeriodDays  int
	sweepConcurrency int
	txRef            func() string
}

func NewService(st Store, secrets SecretSource, credentials CredentialLifecycle, publisher *events.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:            st,
		secrets:          secrets,
		credentials:      credentials,
		publisher:        publisher,
		logger:           logger,
		intervalMonths:   chain.DefaultIntervalMonths,
		gracePeriodDays:  chain.DefaultGracePeriodDays,
		sweepConcurrency: defaultSweepConcurrency,
		txRef:            attest.NewStub().TxRef,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer("tempora/temporal")
	}
	if svc.intervalMonths <= 0 {
		svc.intervalMonths = chain.DefaultIntervalMonths
	}
	if svc.gracePeriodDays <= 0 {
		svc.gracePeriodDays = chain.DefaultGracePeriodDays
	}
	if svc.sweepConcurrency <= 0 {
		svc.sweepConcurrency = defaultSweepConcurrency
	}
	return svc
}

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithIntervalMonths sets the spacing between consecutive reveal deadlines.
func WithIntervalMonths(months int) Option {
	return func(s *Service) {
		if months > 0 {
			s.intervalMonths = months
		}
	}
}

// WithGracePeriodDays sets how long after a deadline a reveal is still
// accepted before the sweep revokes the credential.
func WithGracePeriodDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.gracePeriodDays = days
		}
	}
}

// WithSweepConcurrency bounds parallel revocations during a sweep.
func WithSweepConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepConcurrency = n
		}
	}
}

// WithTxRef overrides the attestation handle source for reveal events.
func WithTxRef(f func() string) Option {
	return func(s *Service) {
		if f != nil {
			s.txRef = f
		}
	}
}

// IssueSchedule generates an N-period chain for the credential, persists one
// commitment row per epoch, and stores the secrets in the separate bundle
// store. Only public commitments and deadlines are returned; secrets never
// leave the issuer side at issuance time.
func (s *Service) IssueSchedule(ctx context.Context, credentialID string, issueDate time.Time, periods int, baseSecret string) (*models.Schedule, error) {
	ctx, span := s.tracer.Start(ctx, "temporal.IssueSchedule",
		trace.WithAttributes(attribute.String("credential_id", credentialID), attribute.Int("periods", periods)))
	var retErr error
	defer func() { endSpan(span, retErr) }()

	if credentialID == "" {
		retErr = dErrors.New(dErrors.CodeValidation, "credential_id is required")
		return nil, retErr
	}

	if _, err := s.credentials.Get(ctx, credentialID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			retErr = dErrors.New(dErrors.CodeNotFound, "credential not found")
			return nil, retErr
		}
		retErr = dErrors.Wrap(err, dErrors.CodeStorage, "failed to look up credential")
		return nil, retErr
	}

	existing, err := s.store.ListByCredential(ctx, credentialID)
	if err != nil {
		retErr = dErrors.Wrap(err, dErrors.CodeStorage, "failed to check existing schedule")
		return nil, retErr
	}
	if len(existing) > 0 {
		// No silent overwrite: commitments are published once.
		retErr = dErrors.New(dErrors.CodeValidation, "temporal schedule already exists for credential")
		return nil, retErr
	}

	generated, err := chain.Generate(periods, baseSecret)
	if err != nil {
		// The generator's invalid_argument code would survive a Wrap;
		// callers see schedule parameter problems as validation failures.
		retErr = dErrors.New(dErrors.CodeValidation, err.Error())
		return nil, retErr
	}

	rows := make([]*models.Commitment, 0, periods)
	entries := make([]models.ScheduleEntry, 0, periods)
	for epoch, commitment := range generated.Commitments {
		deadline := chain.Deadline(issueDate, epoch, s.intervalMonths)
		rows = append(rows, &models.Commitment{
			ID:             uuid.New().String(),
			CredentialID:   credentialID,
			Epoch:          epoch,
			Commitment:     commitment,
			RevealDeadline: deadline,
		})
		entries = append(entries, models.ScheduleEntry{
			Epoch:          epoch,
			Commitment:     commitment,
			RevealDeadline: deadline,
		})
	}

	// Secrets first: a bundle without rows is harmless, rows without a
	// bundle would make every future reveal fail verification.
	if err := s.secrets.Put(ctx, SecretBundle{
		CredentialID: credentialID,
		Secrets:      generated.Secrets,
		BaseSecret:   generated.BaseSecret,
	}); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			retErr = dErrors.New(dErrors.CodeValidation, "secret bundle already exists for credential")
			return nil, retErr
		}
		retErr = dErrors.Wrap(err, dErrors.CodeStorage, "failed to store secret bundle")
		return nil, retErr
	}

	if err := s.store.CreateBatch(ctx, rows); err != nil {
		retErr = dErrors.Wrap(err, dErrors.CodeStorage, "failed to persist commitments")
		return nil, retErr
	}

	if s.metrics != nil {
		s.metrics.SchedulesIssued.Inc()
		s.metrics.CommitmentsCreated.Add(float64(len(rows)))
	}
	s.logger.InfoContext(ctx, "temporal schedule issued",
		"credential_id", credentialID,
		"periods", periods,
		"first_deadline", entries[0].RevealDeadline,
	)

	return &models.Schedule{
		CredentialID: credentialID,
		Commitments:  entries,
		NextDeadline: entries[0].RevealDeadline,
	}, nil
}

// Reveal discloses the secret for one epoch once its deadline has passed.
// A replayed reveal is an error (already_revealed), not a no-op: a second
// attempt indicates caller confusion or replay and must not look like
// success.
func (s *Service) Reveal(ctx context.Context, credentialID string, epoch int) (*models.RevealReceipt, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "temporal.Reveal",
		trace.WithAttributes(attribute.String("credential_id", credentialID), attribute.Int("epoch", epoch)))
	var retErr error
	defer func() {
		endSpan(span, retErr)
		if s.metrics != nil {
			s.metrics.RevealLatency.Observe(time.Since(start).Seconds())
		}
	}()

	now := requesttime.Now(ctx)

	commitment, err := s.store.FindByCredentialAndEpoch(ctx, credentialID, epoch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			retErr = s.failReveal("not_found", dErrors.New(dErrors.CodeNotFound, "commitment not found"))
			return nil, retErr
		}
		retErr = s.failReveal("storage", dErrors.Wrap(err, dErrors.CodeStorage, "failed to load commitment"))
		return nil, retErr
	}

	if commitment.Revealed {
		retErr = s.failReveal("already_revealed", dErrors.New(dErrors.CodeAlreadyRevealed,
			alreadyRevealedMessage(commitment)))
		return nil, retErr
	}

	if !chain.CanReveal(now, commitment.RevealDeadline) {
		retErr = s.failReveal("not_yet_due", dErrors.New(dErrors.CodeNotYetDue,
			notYetDueMessage(now, commitment.RevealDeadline)))
		return nil, retErr
	}

	secret, err := s.secrets.Secret(ctx, credentialID, epoch)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// Commitment rows exist but the bundle is gone: data corruption,
			// surfaced as a verification failure rather than a crash.
			s.logVerificationFailure(ctx, commitment, "secret bundle missing")
			retErr = s.failReveal("verification_failed",
				dErrors.New(dErrors.CodeVerificationFailed, "secret verification failed"))
			return nil, retErr
		}
		retErr = s.failReveal("storage", dErrors.Wrap(err, dErrors.CodeStorage, "failed to read secret"))
		return nil, retErr
	}

	verification := chain.VerifyReveal(secret, commitment.Commitment, epoch)
	if !verification.Valid {
		// Fatal and non-retryable: possible tampering, never silently
		// converted into a successful reveal.
		s.logVerificationFailure(ctx, commitment, verification.Message)
		retErr = s.failReveal("verification_failed",
			dErrors.New(dErrors.CodeVerificationFailed, "secret verification failed"))
		return nil, retErr
	}

	updated, err := s.store.MarkRevealed(ctx, credentialID, epoch, secret, now)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyRevealed) {
			// Lost the CAS to a concurrent reveal.
			retErr = s.failReveal("already_revealed",
				dErrors.New(dErrors.CodeAlreadyRevealed, "commitment already revealed"))
			return nil, retErr
		}
		retErr = s.failReveal("storage", dErrors.Wrap(err, dErrors.CodeStorage, "failed to mark commitment revealed"))
		return nil, retErr
	}

	// The commitment update has landed; the event write is queued
	// unconditionally and retried inside the publisher. Its failure is
	// logged there, never rolled back here.
	_ = s.publisher.Emit(ctx, events.Event{
		ID:             uuid.New().String(),
		CommitmentID:   updated.ID,
		CredentialID:   credentialID,
		Epoch:          epoch,
		RevealedSecret: secret,
		TxRef:          s.txRef(),
		CreatedAt:      now,
	})

	if s.metrics != nil {
		s.metrics.RevealsSucceeded.Inc()
	}
	s.logger.InfoContext(ctx, "temporal secret revealed",
		"credential_id", credentialID,
		"epoch", epoch,
		"verification", verification.Message,
	)

	return &models.RevealReceipt{
		CredentialID: credentialID,
		Epoch:        epoch,
		Secret:       secret,
		Commitment:   updated.Commitment,
		RevealedAt:   *updated.RevealedAt,
		Verification: verification.Message,
	}, nil
}

// Status builds the read-only timeline view for one credential.
// "Nothing revealed yet" is normal state, not a failure.
func (s *Service) Status(ctx context.Context, credentialID string) (*models.TimelineSummary, error) {
	ctx, span := s.tracer.Start(ctx, "temporal.Status",
		trace.WithAttributes(attribute.String("credential_id", credentialID)))
	var retErr error
	defer func() { endSpan(span, retErr) }()

	commitments, err := s.store.ListByCredential(ctx, credentialID)
	if err != nil {
		retErr = dErrors.Wrap(err, dErrors.CodeStorage, "failed to load commitments")
		return nil, retErr
	}
	if len(commitments) == 0 {
		retErr = dErrors.New(dErrors.CodeNotFound, "no temporal commitments found")
		return nil, retErr
	}

	now := requesttime.Now(ctx)
	summary := &models.TimelineSummary{
		CredentialID: credentialID,
		TotalPeriods: len(commitments),
		Timeline:     make([]models.TimelineEntry, 0, len(commitments)),
	}

	for _, c := range commitments {
		if c.Revealed {
			summary.Revealed++
		} else {
			summary.Pending++
			if chain.IsExpired(now, c.RevealDeadline, s.gracePeriodDays) {
				summary.Expired++
			}
		}
		summary.Timeline = append(summary.Timeline, models.TimelineEntry{
			Epoch:           c.Epoch,
			Commitment:      truncateCommitment(c.Commitment),
			RevealDeadline:  c.RevealDeadline,
			Revealed:        c.Revealed,
			RevealedAt:      c.RevealedAt,
			Status:          c.ComputeStatus(now),
			DaysUntilReveal: c.DaysUntilReveal(now),
		})
	}
	summary.AutoRevokeRisk = summary.Expired > 0

	return summary, nil
}

// SweepExpired finds unrevealed commitments whose grace period has lapsed
// and revokes their parent credentials. Idempotent: already-revoked parents
// are skipped, and a reveal that lands between the scan and the revocation
// write wins (revealed state is re-checked immediately before revoking).
// One failed revocation never aborts the rest; failures are collected
// per item.
func (s *Service) SweepExpired(ctx context.Context) (*models.RevocationBatch, error) {
	ctx, span := s.tracer.Start(ctx, "temporal.SweepExpired")
	var retErr error
	defer func() { endSpan(span, retErr) }()

	now := requesttime.Now(ctx)
	cutoff := now.AddDate(0, 0, -s.gracePeriodDays)

	candidates, err := s.store.ListUnrevealedDueBefore(ctx, cutoff)
	if err != nil {
		retErr = dErrors.Wrap(err, dErrors.CodeStorage, "failed to scan for expired commitments")
		return nil, retErr
	}

	// The scan cutoff is a coarse filter; the calendar-day grace rule is
	// authoritative.
	var expired []*models.Commitment
	seen := make(map[string]bool)
	for _, c := range candidates {
		if !chain.IsExpired(now, c.RevealDeadline, s.gracePeriodDays) {
			continue
		}
		// One revocation per credential, keyed on its earliest lapsed epoch.
		if seen[c.CredentialID] {
			continue
		}
		seen[c.CredentialID] = true
		expired = append(expired, c)
	}

	batch := &models.RevocationBatch{
		CheckedAt:          now,
		ExpiredCommitments: len(expired),
		Revoked:            []models.RevokedCredential{},
	}

	revoked := make([]*models.RevokedCredential, len(expired))
	failures := make([]*models.SweepFailure, len(expired))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweepConcurrency)
	for i, c := range expired {
		i, c := i, c
		g.Go(func() error {
			revoked[i], failures[i] = s.revokeExpired(gctx, c, now)
			// Per-item failures are reported, never propagated: returning an
			// error here would cancel the remaining revocations.
			return nil
		})
	}
	_ = g.Wait()

	for i := range expired {
		if revoked[i] != nil {
			batch.Revoked = append(batch.Revoked, *revoked[i])
		}
		if failures[i] != nil {
			batch.Failures = append(batch.Failures, *failures[i])
		}
	}

	if s.metrics != nil {
		s.metrics.SweepRuns.Inc()
		s.metrics.ExpiredCommitments.Set(float64(len(expired)))
		s.metrics.CredentialsRevoked.Add(float64(len(batch.Revoked)))
		s.metrics.SweepFailures.Add(float64(len(batch.Failures)))
	}
	s.logger.InfoContext(ctx, "expiry sweep complete",
		"expired_commitments", len(expired),
		"revoked", len(batch.Revoked),
		"failures", len(batch.Failures),
	)

	return batch, nil
}

func (s *Service) revokeExpired(ctx context.Context, c *models.Commitment, now time.Time) (*models.RevokedCredential, *models.SweepFailure) {
	fail := func(err error) (*models.RevokedCredential, *models.SweepFailure) {
		return nil, &models.SweepFailure{
			CredentialID: c.CredentialID,
			Epoch:        c.Epoch,
			Error:        err.Error(),
		}
	}

	ref, err := s.credentials.Get(ctx, c.CredentialID)
	if err != nil {
		return fail(fmt.Errorf("load credential: %w", err))
	}
	if ref.RevokedAt != nil {
		// Already revoked; reporting it again would double-count.
		return nil, nil
	}

	// A reveal may have landed between the scan and now; re-check so a
	// reveal arriving a split-second before the sweep wins.
	fresh, err := s.store.FindByCredentialAndEpoch(ctx, c.CredentialID, c.Epoch)
	if err != nil {
		return fail(fmt.Errorf("recheck commitment: %w", err))
	}
	if fresh.Revealed {
		return nil, nil
	}

	reason := fmt.Sprintf("temporal commitment expired: epoch %d not revealed by %s",
		c.Epoch, c.RevealDeadline.UTC().Format(time.RFC3339))
	if err := s.credentials.Revoke(ctx, c.CredentialID, reason, now); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			// Another sweeper got there first.
			return nil, nil
		}
		return fail(fmt.Errorf("revoke credential: %w", err))
	}

	s.logger.WarnContext(ctx, "credential auto-revoked",
		"credential_id", c.CredentialID,
		"epoch", c.Epoch,
		"deadline", c.RevealDeadline,
	)
	return &models.RevokedCredential{
		CredentialID: c.CredentialID,
		Epoch:        c.Epoch,
		Deadline:     c.RevealDeadline,
	}, nil
}

// Simulate moves every unrevealed deadline for the credential into the
// past so all epochs become revealable. Demo tooling only; the handler
// gates it behind configuration.
func (s *Service) Simulate(ctx context.Context, credentialID string) ([]*models.RescheduledEntry, error) {
	now := requesttime.Now(ctx)
	moved, err := s.store.RescheduleUnrevealed(ctx, credentialID, now.Add(-time.Minute))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to reschedule commitments")
	}
	if len(moved) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no unrevealed commitments found")
	}
	s.logger.InfoContext(ctx, "temporal deadlines simulated",
		"credential_id", credentialID,
		"rescheduled", len(moved),
	)
	return moved, nil
}

// Events returns the reveal audit trail for a credential.
func (s *Service) Events(ctx context.Context, credentialID string) ([]events.Event, error) {
	trail, err := s.publisher.List(ctx, credentialID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load reveal events")
	}
	return trail, nil
}

func (s *Service) failReveal(reason string, err error) error {
	if s.metrics != nil {
		s.metrics.RevealsFailed.WithLabelValues(reason).Inc()
	}
	return err
}

func (s *Service) logVerificationFailure(ctx context.Context, c *models.Commitment, detail string) {
	s.logger.ErrorContext(ctx, "temporal secret verification failed",
		"credential_id", c.CredentialID,
		"epoch", c.Epoch,
		"commitment_id", c.ID,
		"detail", detail,
	)
}

func alreadyRevealedMessage(c *models.Commitment) string {
	if c.RevealedAt != nil {
		return fmt.Sprintf("commitment already revealed at %s", c.RevealedAt.UTC().Format(time.RFC3339))
	}
	return "commitment already revealed"
}

func notYetDueMessage(now, deadline time.Time) string {
	remaining := deadline.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return fmt.Sprintf("cannot reveal before deadline %s (%d days remaining)",
		deadline.UTC().Format(time.RFC3339), days)
}

func truncateCommitment(commitment string) string {
	if len(commitment) <= 16 {
		return commitment
	}
	return commitment[:16] + "..."
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
