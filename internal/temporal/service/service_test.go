package service_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tempora/internal/temporal/chain"
	"tempora/internal/temporal/events"
	"tempora/internal/temporal/models"
	"tempora/internal/temporal/service"
	"tempora/internal/temporal/service/mocks"
	"tempora/internal/temporal/store"
	dErrors "tempora/pkg/domain-errors"
	"tempora/pkg/requesttime"
)

type fixture struct {
	store       *mocks.MockStore
	secrets     *mocks.MockSecretSource
	credentials *mocks.MockCredentialLifecycle
	eventStore  *events.InMemoryStore
	svc         *service.Service
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		store:       mocks.NewMockStore(ctrl),
		secrets:     mocks.NewMockSecretSource(ctrl),
		credentials: mocks.NewMockCredentialLifecycle(ctrl),
		eventStore:  events.NewInMemoryStore(),
	}
	publisher := events.NewPublisher(f.eventStore)
	f.svc = service.NewService(f.store, f.secrets, f.credentials, publisher, slog.New(slog.DiscardHandler), opts...)
	return f
}

func activeCredential(id string) *service.CredentialRef {
	return &service.CredentialRef{ID: id}
}

func TestIssueSchedule(t *testing.T) {
	issueDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("creates one commitment per period with stacked deadlines", func(t *testing.T) {
		f := newFixture(t)
		f.credentials.EXPECT().Get(gomock.Any(), "cred-1").Return(activeCredential("cred-1"), nil)
		f.store.EXPECT().ListByCredential(gomock.Any(), "cred-1").Return(nil, nil)

		var stored service.SecretBundle
		var rows []*models.Commitment
		gomock.InOrder(
			// Secrets must land before the public rows.
			f.secrets.EXPECT().Put(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, bundle service.SecretBundle) error {
					stored = bundle
					return nil
				}),
			f.store.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, batch []*models.Commitment) error {
					rows = batch
					return nil
				}),
		)

		schedule, err := f.svc.IssueSchedule(ctx, "cred-1", issueDate, 3, "")
		require.NoError(t, err)
		require.Len(t, schedule.Commitments, 3)
		require.Len(t, rows, 3)
		require.Len(t, stored.Secrets, 3)

		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), schedule.Commitments[0].RevealDeadline)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), schedule.Commitments[1].RevealDeadline)
		assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), schedule.Commitments[2].RevealDeadline)
		assert.Equal(t, schedule.Commitments[0].RevealDeadline, schedule.NextDeadline)

		for epoch, entry := range schedule.Commitments {
			result := chain.VerifyReveal(stored.Secrets[epoch], entry.Commitment, epoch)
			assert.True(t, result.Valid, "epoch %d: %s", epoch, result.Message)
		}
	})

	t.Run("rejects unknown credential", func(t *testing.T) {
		f := newFixture(t)
		f.credentials.EXPECT().Get(gomock.Any(), "ghost").Return(nil, dErrors.New(dErrors.CodeNotFound, "credential not found"))

		_, err := f.svc.IssueSchedule(ctx, "ghost", issueDate, 3, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("rejects duplicate schedule", func(t *testing.T) {
		f := newFixture(t)
		f.credentials.EXPECT().Get(gomock.Any(), "cred-1").Return(activeCredential("cred-1"), nil)
		f.store.EXPECT().ListByCredential(gomock.Any(), "cred-1").Return([]*models.Commitment{{Epoch: 0}}, nil)

		_, err := f.svc.IssueSchedule(ctx, "cred-1", issueDate, 3, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects period counts outside bounds", func(t *testing.T) {
		for _, periods := range []int{0, -1, 21} {
			f := newFixture(t)
			f.credentials.EXPECT().Get(gomock.Any(), "cred-1").Return(activeCredential("cred-1"), nil)
			f.store.EXPECT().ListByCredential(gomock.Any(), "cred-1").Return(nil, nil)

			_, err := f.svc.IssueSchedule(ctx, "cred-1", issueDate, periods, "")
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "periods=%d", periods)
		}
	})

	t.Run("custom interval months spaces deadlines", func(t *testing.T) {
		f := newFixture(t, service.WithIntervalMonths(6))
		f.credentials.EXPECT().Get(gomock.Any(), "cred-1").Return(activeCredential("cred-1"), nil)
		f.store.EXPECT().ListByCredential(gomock.Any(), "cred-1").Return(nil, nil)
		f.secrets.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil)
		f.store.EXPECT().CreateBatch(gomock.Any(), gomock.Any()).Return(nil)

		schedule, err := f.svc.IssueSchedule(ctx, "cred-1", issueDate, 2, "")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), schedule.Commitments[0].RevealDeadline)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), schedule.Commitments[1].RevealDeadline)
	})
}

func revealFixtureChain(t *testing.T) *chain.Chain {
	t.Helper()
	generated, err := chain.Generate(3, "test-base-secret")
	require.NoError(t, err)
	return generated
}

func TestReveal(t *testing.T) {
	generated := revealFixtureChain(t)
	deadline := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	after := requesttime.WithTime(context.Background(), deadline.AddDate(0, 0, 1))
	before := requesttime.WithTime(context.Background(), deadline.AddDate(0, 0, -10))

	pending := func() *models.Commitment {
		return &models.Commitment{
			ID:             "row-0",
			CredentialID:   "cred-1",
			Epoch:          0,
			Commitment:     generated.Commitments[0],
			RevealDeadline: deadline,
		}
	}

	t.Run("reveals a due epoch and records the event", func(t *testing.T) {
		f := newFixture(t)
		revealedAt := deadline.AddDate(0, 0, 1)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 0).Return(pending(), nil)
		f.secrets.EXPECT().Secret(gomock.Any(), "cred-1", 0).Return(generated.Secrets[0], nil)
		f.store.EXPECT().MarkRevealed(gomock.Any(), "cred-1", 0, generated.Secrets[0], revealedAt).DoAndReturn(
			func(_ context.Context, _ string, _ int, secret string, at time.Time) (*models.Commitment, error) {
				c := pending()
				c.Revealed = true
				c.RevealedSecret = &secret
				c.RevealedAt = &at
				return c, nil
			})

		receipt, err := f.svc.Reveal(after, "cred-1", 0)
		require.NoError(t, err)
		assert.Equal(t, generated.Secrets[0], receipt.Secret)
		assert.Equal(t, generated.Commitments[0], receipt.Commitment)
		assert.Equal(t, revealedAt, receipt.RevealedAt)
		assert.Contains(t, receipt.Verification, "verified for epoch 0")

		trail, err := f.eventStore.ListByCredential(context.Background(), "cred-1")
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, "row-0", trail[0].CommitmentID)
		assert.Equal(t, generated.Secrets[0], trail[0].RevealedSecret)
		assert.NotEmpty(t, trail[0].TxRef)
	})

	t.Run("unknown commitment", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 7).Return(nil, store.ErrNotFound)

		_, err := f.svc.Reveal(after, "cred-1", 7)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("replayed reveal is rejected", func(t *testing.T) {
		f := newFixture(t)
		revealedAt := deadline.AddDate(0, 0, 1)
		c := pending()
		c.Revealed = true
		c.RevealedAt = &revealedAt
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 0).Return(c, nil)

		_, err := f.svc.Reveal(after, "cred-1", 0)
		require.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyRevealed))
		assert.Contains(t, err.Error(), "already revealed at 2025-01-02T00:00:00Z")
	})

	t.Run("reveal before deadline reports time remaining", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 0).Return(pending(), nil)

		_, err := f.svc.Reveal(before, "cred-1", 0)
		require.True(t, dErrors.HasCode(err, dErrors.CodeNotYetDue))
		assert.Contains(t, err.Error(), "2025-01-01T00:00:00Z")
		assert.Contains(t, err.Error(), "10 days remaining")
	})

	t.Run("reveal exactly at deadline succeeds", func(t *testing.T) {
		f := newFixture(t)
		atDeadline := requesttime.WithTime(context.Background(), deadline)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 0).Return(pending(), nil)
		f.secrets.EXPECT().Secret(gomock.Any(), "cred-1", 0).Return(generated.Secrets[0], nil)
		f.store.EXPECT().MarkRevealed(gomock.Any(), "cred-1", 0, generated.Secrets[0], deadline).DoAndReturn(
			func(_ context.Context, _ string, _ int, secret string, at time.Time) (*models.Commitment, error) {
				c := pending()
				c.Revealed = true
				c.RevealedSecret = &secret
				c.RevealedAt = &at
				return c, nil
			})

		_, err := f.svc.Reveal(atDeadline, "cred-1", 0)
		assert.NoError(t, err)
	})

	t.Run("tampered secret fails verification", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 0).Return(pending(), nil)
		f.secrets.EXPECT().Secret(gomock.Any(), "cred-1", 0).Return("tampered-secret", nil)

		_, err := f.svc.Reveal(after, "cred-1", 0)
		require.True(t, dErrors.HasCode(err, dErrors.CodeVerificationFailed))

		trail, listErr := f.eventStore.ListByCredential(context.Background(), "cred-1")
		require.NoError(t, listErr)
		assert.Empty(t, trail, "failed verification must not produce an event")
	})

	t.Run("missing secret bundle fails verification", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 0).Return(pending(), nil)
		f.secrets.EXPECT().Secret(gomock.Any(), "cred-1", 0).Return("", dErrors.New(dErrors.CodeNotFound, "no bundle"))

		_, err := f.svc.Reveal(after, "cred-1", 0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeVerificationFailed))
	})

	t.Run("losing the mark-revealed race reads as replay", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 0).Return(pending(), nil)
		f.secrets.EXPECT().Secret(gomock.Any(), "cred-1", 0).Return(generated.Secrets[0], nil)
		f.store.EXPECT().MarkRevealed(gomock.Any(), "cred-1", 0, generated.Secrets[0], gomock.Any()).
			Return(nil, store.ErrAlreadyRevealed)

		_, err := f.svc.Reveal(after, "cred-1", 0)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyRevealed))
	})
}

func TestStatus(t *testing.T) {
	generated := revealFixtureChain(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := requesttime.WithTime(context.Background(), now)

	t.Run("aggregates revealed, pending and expired", func(t *testing.T) {
		f := newFixture(t)
		revealedAt := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
		rows := []*models.Commitment{
			{ID: "row-0", CredentialID: "cred-1", Epoch: 0, Commitment: generated.Commitments[0],
				RevealDeadline: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				Revealed:       true, RevealedAt: &revealedAt},
			{ID: "row-1", CredentialID: "cred-1", Epoch: 1, Commitment: generated.Commitments[1],
				RevealDeadline: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "row-2", CredentialID: "cred-1", Epoch: 2, Commitment: generated.Commitments[2],
				RevealDeadline: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		}
		f.store.EXPECT().ListByCredential(gomock.Any(), "cred-1").Return(rows, nil)

		summary, err := f.svc.Status(ctx, "cred-1")
		require.NoError(t, err)
		assert.Equal(t, 3, summary.TotalPeriods)
		assert.Equal(t, 1, summary.Revealed)
		assert.Equal(t, 2, summary.Pending)
		assert.Equal(t, 1, summary.Expired, "epoch 1 lapsed past the 30-day grace period")
		assert.True(t, summary.AutoRevokeRisk)

		require.Len(t, summary.Timeline, 3)
		assert.Equal(t, models.StatusRevealed, summary.Timeline[0].Status)
		assert.Equal(t, models.StatusCanReveal, summary.Timeline[1].Status)
		assert.Equal(t, models.StatusLocked, summary.Timeline[2].Status)
		assert.Equal(t, generated.Commitments[0][:16]+"...", summary.Timeline[0].Commitment,
			"full commitments stay out of the status payload")
	})

	t.Run("unknown credential", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().ListByCredential(gomock.Any(), "ghost").Return(nil, nil)

		_, err := f.svc.Status(ctx, "ghost")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestSweepExpired(t *testing.T) {
	now := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	ctx := requesttime.WithTime(context.Background(), now)
	lapsed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	expiredRow := func(credID string, epoch int) *models.Commitment {
		return &models.Commitment{
			ID:             fmt.Sprintf("%s-row-%d", credID, epoch),
			CredentialID:   credID,
			Epoch:          epoch,
			RevealDeadline: lapsed,
		}
	}

	t.Run("revokes credentials with lapsed commitments", func(t *testing.T) {
		f := newFixture(t)
		row := expiredRow("cred-1", 0)
		f.store.EXPECT().ListUnrevealedDueBefore(gomock.Any(), gomock.Any()).Return([]*models.Commitment{row}, nil)
		f.credentials.EXPECT().Get(gomock.Any(), "cred-1").Return(activeCredential("cred-1"), nil)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 0).Return(row, nil)
		f.credentials.EXPECT().Revoke(gomock.Any(), "cred-1", gomock.Any(), now).DoAndReturn(
			func(_ context.Context, _ string, reason string, _ time.Time) error {
				assert.Contains(t, reason, "epoch 0 not revealed by 2026-01-01T00:00:00Z")
				return nil
			})

		batch, err := f.svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, batch.ExpiredCommitments)
		require.Len(t, batch.Revoked, 1)
		assert.Equal(t, "cred-1", batch.Revoked[0].CredentialID)
		assert.Empty(t, batch.Failures)
	})

	t.Run("one credential is revoked once even with several lapsed epochs", func(t *testing.T) {
		f := newFixture(t)
		rows := []*models.Commitment{expiredRow("cred-1", 0), expiredRow("cred-1", 1)}
		f.store.EXPECT().ListUnrevealedDueBefore(gomock.Any(), gomock.Any()).Return(rows, nil)
		f.credentials.EXPECT().Get(gomock.Any(), "cred-1").Return(activeCredential("cred-1"), nil)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 0).Return(rows[0], nil)
		f.credentials.EXPECT().Revoke(gomock.Any(), "cred-1", gomock.Any(), now).Return(nil)

		batch, err := f.svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, batch.ExpiredCommitments)
		assert.Len(t, batch.Revoked, 1)
	})

	t.Run("a reveal landing between scan and revoke wins", func(t *testing.T) {
		f := newFixture(t)
		row := expiredRow("cred-1", 0)
		revealed := *row
		revealed.Revealed = true
		f.store.EXPECT().ListUnrevealedDueBefore(gomock.Any(), gomock.Any()).Return([]*models.Commitment{row}, nil)
		f.credentials.EXPECT().Get(gomock.Any(), "cred-1").Return(activeCredential("cred-1"), nil)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-1", 0).Return(&revealed, nil)

		batch, err := f.svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Empty(t, batch.Revoked)
		assert.Empty(t, batch.Failures)
	})

	t.Run("one failure does not abort the rest", func(t *testing.T) {
		f := newFixture(t, service.WithSweepConcurrency(1))
		rows := []*models.Commitment{expiredRow("cred-bad", 0), expiredRow("cred-good", 0)}
		f.store.EXPECT().ListUnrevealedDueBefore(gomock.Any(), gomock.Any()).Return(rows, nil)

		f.credentials.EXPECT().Get(gomock.Any(), "cred-bad").Return(nil, errors.New("backend down"))

		f.credentials.EXPECT().Get(gomock.Any(), "cred-good").Return(activeCredential("cred-good"), nil)
		f.store.EXPECT().FindByCredentialAndEpoch(gomock.Any(), "cred-good", 0).Return(rows[1], nil)
		f.credentials.EXPECT().Revoke(gomock.Any(), "cred-good", gomock.Any(), now).Return(nil)

		batch, err := f.svc.SweepExpired(ctx)
		require.NoError(t, err)
		require.Len(t, batch.Revoked, 1)
		assert.Equal(t, "cred-good", batch.Revoked[0].CredentialID)
		require.Len(t, batch.Failures, 1)
		assert.Equal(t, "cred-bad", batch.Failures[0].CredentialID)
		assert.Contains(t, batch.Failures[0].Error, "backend down")
	})

	t.Run("already revoked credential is skipped silently", func(t *testing.T) {
		f := newFixture(t)
		row := expiredRow("cred-1", 0)
		revokedAt := now.AddDate(0, 0, -1)
		f.store.EXPECT().ListUnrevealedDueBefore(gomock.Any(), gomock.Any()).Return([]*models.Commitment{row}, nil)
		f.credentials.EXPECT().Get(gomock.Any(), "cred-1").Return(&service.CredentialRef{ID: "cred-1", RevokedAt: &revokedAt}, nil)

		batch, err := f.svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Empty(t, batch.Revoked)
		assert.Empty(t, batch.Failures)
	})

	t.Run("commitment still inside grace period is not revoked", func(t *testing.T) {
		f := newFixture(t)
		// Deadline 20 days ago: past due but within the 30 day grace period.
		row := expiredRow("cred-1", 0)
		row.RevealDeadline = now.AddDate(0, 0, -20)
		f.store.EXPECT().ListUnrevealedDueBefore(gomock.Any(), gomock.Any()).Return([]*models.Commitment{row}, nil)

		batch, err := f.svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, batch.ExpiredCommitments)
		assert.Empty(t, batch.Revoked)
	})
}

func TestSimulate(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := requesttime.WithTime(context.Background(), now)

	t.Run("reschedules unrevealed deadlines into the past", func(t *testing.T) {
		f := newFixture(t)
		moved := []*models.RescheduledEntry{{Epoch: 0}, {Epoch: 1}}
		f.store.EXPECT().RescheduleUnrevealed(gomock.Any(), "cred-1", now.Add(-time.Minute)).Return(moved, nil)

		got, err := f.svc.Simulate(ctx, "cred-1")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("nothing to reschedule", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().RescheduleUnrevealed(gomock.Any(), "cred-1", gomock.Any()).Return(nil, nil)

		_, err := f.svc.Simulate(ctx, "cred-1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
