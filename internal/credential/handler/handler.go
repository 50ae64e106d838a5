package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tempora/internal/credential/models"
	"tempora/internal/credential/service"
	"tempora/internal/platform/middleware"
	dErrors "tempora/pkg/domain-errors"
	"tempora/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the interface for credential lifecycle operations.
type Service interface {
	Issue(ctx context.Context, req *models.IssueRequest) (*service.IssueResult, error)
	Get(ctx context.Context, id string) (*models.Credential, error)
	List(ctx context.Context) ([]*models.Credential, error)
	Revoke(ctx context.Context, id, reason string) (*models.Credential, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register wires the read-only endpoints. Issuance and revocation are
// registered separately so the router can guard them with issuer auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/credentials", h.HandleList)
	r.Get("/api/credentials/{id}", h.HandleGet)
}

// RegisterIssuer wires the endpoints that mutate credential state.
func (h *Handler) RegisterIssuer(r chi.Router) {
	r.Post("/api/credentials/issue", h.HandleIssue)
	r.Post("/api/credentials/{id}/revoke", h.HandleRevoke)
}

// HandleIssue creates a credential together with its temporal commitment
// schedule.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Issue(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "issue credential failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}

// HandleGet returns one credential.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	credential, err := h.service.Get(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "get credential failed",
			"error", err,
			"request_id", requestID,
			"credential_id", id,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, credential)
}

// HandleList returns all credentials, oldest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	credentials, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list credentials failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"credentials": credentials,
		"count":       len(credentials),
	})
}

// HandleRevoke revokes a credential with an operator-supplied reason.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	id, ok := h.idParam(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	credential, err := h.service.Revoke(ctx, id, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "revoke credential failed",
			"error", err,
			"request_id", requestID,
			"credential_id", id,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, credential)
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := uuid.Validate(id); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential id"))
		return "", false
	}
	return id, true
}
