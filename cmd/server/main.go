package main

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	credentialhandler "tempora/internal/credential/handler"
	credentialservice "tempora/internal/credential/service"
	credentialstore "tempora/internal/credential/store"
	"tempora/internal/platform/config"
	"tempora/internal/platform/database"
	"tempora/internal/platform/health"
	"tempora/internal/platform/httpserver"
	"tempora/internal/platform/logger"
	"tempora/internal/platform/middleware"
	"tempora/internal/temporal/events"
	temporalhandler "tempora/internal/temporal/handler"
	"tempora/internal/temporal/metrics"
	"tempora/internal/temporal/secretstore"
	temporalservice "tempora/internal/temporal/service"
	temporalstore "tempora/internal/temporal/store"
	httptransport "tempora/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing tempora",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"simulation_enabled", cfg.EnableSimulate,
	)

	pool, err := database.New(database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    database.DefaultConfig().MaxOpenConns,
		MaxIdleConns:    database.DefaultConfig().MaxIdleConns,
		ConnMaxLifetime: database.DefaultConfig().ConnMaxLifetime,
	})
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	var (
		credStore  credentialstore.Store
		commStore  temporalservice.Store
		eventStore events.Store
	)
	if pool != nil {
		credStore = credentialstore.NewPostgres(pool.DB())
		commStore = temporalstore.NewPostgres(pool.DB())
		eventStore = events.NewPostgres(pool.DB())
		log.Info("using postgres stores")
	} else {
		credStore = credentialstore.New()
		commStore = temporalstore.New()
		eventStore = events.NewInMemoryStore()
		log.Info("no DATABASE_URL set, using in-memory stores")
	}

	secrets, err := buildSecretStore(cfg)
	if err != nil {
		log.Error("secret store init failed", "error", err)
		os.Exit(1)
	}

	publisher := events.NewPublisher(eventStore,
		events.WithAsyncBuffer(256),
		events.WithPublisherLogger(log),
	)
	defer publisher.Close()

	temporalMetrics := metrics.New()

	temporalSvc := temporalservice.NewService(
		commStore,
		&secretSourceWrapper{store: secrets},
		&credentialLifecycleWrapper{store: credStore},
		publisher,
		log,
		temporalservice.WithMetrics(temporalMetrics),
		temporalservice.WithIntervalMonths(cfg.IntervalMonths),
		temporalservice.WithGracePeriodDays(cfg.GracePeriodDays),
	)

	credentialSvc := credentialservice.NewService(
		credStore,
		temporalSvc,
		log,
		credentialservice.WithIssuerDID(cfg.IssuerDID),
		credentialservice.WithDefaultPeriods(cfg.DefaultPeriods),
	)

	temporalOpts := []temporalhandler.Option{}
	if cfg.EnableSimulate {
		temporalOpts = append(temporalOpts, temporalhandler.WithSimulation())
	}

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Credentials: credentialhandler.New(credentialSvc, log),
		Temporal:    temporalhandler.New(temporalSvc, log, temporalOpts...),
		Health:      healthHandler,
		Auth:        middleware.NewHMACValidator([]byte(cfg.JWTSigningKey)),
	}, log)

	srv := httpserver.New(cfg.Addr, router)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.SweepInterval > 0 {
		go runSweepLoop(sweepCtx, temporalSvc, cfg.SweepInterval, log)
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	if pool != nil {
		_ = pool.Close()
	}
	log.Info("server stopped")
}

// buildSecretStore selects encrypted file storage when configured, falling
// back to in-memory storage for local development.
func buildSecretStore(cfg config.Server) (secretstore.Store, error) {
	if cfg.SecretsDir == "" {
		return secretstore.NewInMemory(), nil
	}
	key, err := hex.DecodeString(cfg.SecretsKey)
	if err != nil {
		return nil, err
	}
	return secretstore.NewFileStore(cfg.SecretsDir, key)
}

// runSweepLoop periodically revokes credentials whose commitments lapsed past
// the grace period. The check-expiry endpoint does the same on demand.
func runSweepLoop(ctx context.Context, svc *temporalservice.Service, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			batch, err := svc.SweepExpired(ctx)
			if err != nil {
				log.ErrorContext(ctx, "scheduled expiry sweep failed", "error", err)
				continue
			}
			log.InfoContext(ctx, "scheduled expiry sweep complete",
				"expired", batch.ExpiredCommitments,
				"revoked", len(batch.Revoked),
				"failures", len(batch.Failures),
			)
		}
	}
}
