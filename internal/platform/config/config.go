package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	Environment     string
	DatabaseURL     string
	JWTSigningKey   string
	IssuerDID       string
	SecretsDir      string
	SecretsKey      string
	IntervalMonths  int
	GracePeriodDays int
	DefaultPeriods  int
	EnableSimulate  bool
	SweepInterval   time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("TEMPORA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	environment := os.Getenv("TEMPORA_ENV")
	if environment == "" {
		environment = "development"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	issuerDID := os.Getenv("TEMPORA_ISSUER_DID")

	var sweepInterval time.Duration
	if raw := os.Getenv("TEMPORA_SWEEP_INTERVAL"); raw != "" {
		if duration, err := time.ParseDuration(raw); err == nil {
			sweepInterval = duration
		}
	}

	return Server{
		Addr:            addr,
		Environment:     environment,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSigningKey:   jwtSigningKey,
		IssuerDID:       issuerDID,
		SecretsDir:      os.Getenv("TEMPORA_SECRETS_DIR"),
		SecretsKey:      os.Getenv("TEMPORA_SECRETS_KEY"),
		IntervalMonths:  envInt("TEMPORA_INTERVAL_MONTHS", 0),
		GracePeriodDays: envInt("TEMPORA_GRACE_DAYS", 0),
		DefaultPeriods:  envInt("TEMPORA_DEFAULT_PERIODS", 0),
		EnableSimulate:  os.Getenv("TEMPORA_ENABLE_SIMULATE") == "true",
		SweepInterval:   sweepInterval,
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
