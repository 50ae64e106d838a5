package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tempora/internal/platform/middleware"
	"tempora/internal/temporal/events"
	"tempora/internal/temporal/models"
	dErrors "tempora/pkg/domain-errors"
	"tempora/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the interface for temporal commitment operations.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	Reveal(ctx context.Context, credentialID string, epoch int) (*models.RevealReceipt, error)
	Status(ctx context.Context, credentialID string) (*models.TimelineSummary, error)
	SweepExpired(ctx context.Context) (*models.RevocationBatch, error)
	Simulate(ctx context.Context, credentialID string) ([]*models.RescheduledEntry, error)
	Events(ctx context.Context, credentialID string) ([]events.Event, error)
}

type Option func(*Handler)

// WithSimulation exposes the deadline-rewind endpoint. Demo and test
// environments only; the flag defaults to off.
func WithSimulation() Option {
	return func(h *Handler) {
		h.enableSimulate = true
	}
}

type Handler struct {
	service        Service
	logger         *slog.Logger
	enableSimulate bool
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/temporal/reveal", h.HandleReveal)
	r.Get("/api/temporal/status/{credentialID}", h.HandleStatus)
	r.Post("/api/temporal/check-expiry", h.HandleCheckExpiry)
	r.Get("/api/temporal/events/{credentialID}", h.HandleEvents)
	if h.enableSimulate {
		r.Post("/api/temporal/simulate/{credentialID}", h.HandleSimulate)
	}
}

// HandleReveal discloses the pre-image for one epoch once its deadline has
// passed. Failed verification is reported to the caller as an internal error;
// the detail stays in the server log.
func (h *Handler) HandleReveal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RevealRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	receipt, err := h.service.Reveal(ctx, req.CredentialID, *req.Epoch)
	if err != nil {
		h.logger.ErrorContext(ctx, "reveal failed",
			"error", err,
			"request_id", requestID,
			"credential_id", req.CredentialID,
			"epoch", *req.Epoch,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, receipt)
}

// HandleStatus returns the commitment timeline for a credential.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	credentialID, ok := h.credentialIDParam(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Status(ctx, credentialID)
	if err != nil {
		h.logger.ErrorContext(ctx, "status lookup failed",
			"error", err,
			"request_id", requestID,
			"credential_id", credentialID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleCheckExpiry sweeps all unrevealed commitments past their grace period
// and revokes the affected credentials.
func (h *Handler) HandleCheckExpiry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	batch, err := h.service.SweepExpired(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "expiry sweep failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, batch)
}

// HandleEvents returns the append-only reveal event log for a credential.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	credentialID, ok := h.credentialIDParam(w, r)
	if !ok {
		return
	}

	eventLog, err := h.service.Events(ctx, credentialID)
	if err != nil {
		h.logger.ErrorContext(ctx, "event log lookup failed",
			"error", err,
			"request_id", requestID,
			"credential_id", credentialID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"credential_id": credentialID,
		"events":        eventLog,
	})
}

// HandleSimulate rewinds all pending deadlines for a credential into the past.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	credentialID, ok := h.credentialIDParam(w, r)
	if !ok {
		return
	}

	rescheduled, err := h.service.Simulate(ctx, credentialID)
	if err != nil {
		h.logger.ErrorContext(ctx, "deadline simulation failed",
			"error", err,
			"request_id", requestID,
			"credential_id", credentialID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"credential_id": credentialID,
		"rescheduled":   rescheduled,
	})
}

func (h *Handler) credentialIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	credentialID := chi.URLParam(r, "credentialID")
	if err := uuid.Validate(credentialID); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential id"))
		return "", false
	}
	return credentialID, true
}
