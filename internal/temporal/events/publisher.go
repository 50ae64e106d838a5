package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Publisher appends reveal events through the storage layer so tests can
// swap sinks easily. A reveal that has landed must not stay unaudited, so
// failed appends are retried with exponential backoff instead of being
// dropped; the commitment update is never rolled back on event failure.
type Publisher struct {
	store      Store
	events     chan Event
	wg         sync.WaitGroup
	logger     *slog.Logger
	async      bool
	maxRetries uint64
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine; the queue send
// blocks when full rather than dropping audit records.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for retry and failure reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMaxRetries bounds the append retries before giving up.
func WithMaxRetries(n uint64) PublisherOption {
	return func(p *Publisher) {
		p.maxRetries = n
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, maxRetries: 5}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents runs in a goroutine and persists queued events.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.appendWithRetry(context.Background(), event); err != nil {
			p.logFailure(event, err)
		}
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Emit records a reveal event. In async mode it queues unconditionally; in
// sync mode it appends inline with backoff retry.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if p.async {
		p.events <- event
		return nil
	}
	if err := p.appendWithRetry(ctx, event); err != nil {
		p.logFailure(event, err)
		return err
	}
	return nil
}

func (p *Publisher) appendWithRetry(ctx context.Context, event Event) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	return backoff.Retry(func() error {
		return p.store.Append(ctx, event)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, p.maxRetries), ctx))
}

func (p *Publisher) logFailure(event Event, err error) {
	if p.logger == nil {
		return
	}
	// A revealed commitment without its audit event needs operator attention.
	p.logger.Error("failed to persist reveal event after retries",
		"error", err,
		"credential_id", event.CredentialID,
		"epoch", event.Epoch,
		"commitment_id", event.CommitmentID,
	)
}

// List returns the audit trail for a credential.
func (p *Publisher) List(ctx context.Context, credentialID string) ([]Event, error) {
	return p.store.ListByCredential(ctx, credentialID)
}
