package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	credentialhandler "tempora/internal/credential/handler"
	"tempora/internal/platform/health"
	"tempora/internal/platform/middleware"
	temporalhandler "tempora/internal/temporal/handler"
	"tempora/pkg/requesttime"
)

// Deps carries the wired handlers the router mounts.
type Deps struct {
	Credentials *credentialhandler.Handler
	Temporal    *temporalhandler.Handler
	Health      *health.Handler
	Auth        middleware.JWTValidator
}

// NewRouter wires all endpoints with the middleware stack. Reveal and status
// endpoints are public: holders and verifiers call them without issuer
// credentials. Issuance and revocation require a bearer token.
func NewRouter(deps Deps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	deps.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	deps.Temporal.Register(r)
	deps.Credentials.Register(r)

	r.Group(func(g chi.Router) {
		g.Use(middleware.RequireAuth(deps.Auth, logger))
		deps.Credentials.RegisterIssuer(g)
	})

	return r
}
