package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the temporal workflow.
type Metrics struct {
	SchedulesIssued     prometheus.Counter
	CommitmentsCreated  prometheus.Counter
	RevealsSucceeded    prometheus.Counter
	RevealsFailed       *prometheus.CounterVec
	RevealLatency       prometheus.Histogram
	SweepRuns           prometheus.Counter
	CredentialsRevoked  prometheus.Counter
	SweepFailures       prometheus.Counter
	ExpiredCommitments  prometheus.Gauge
}

// New creates and registers all temporal metrics.
func New() *Metrics {
	return &Metrics{
		SchedulesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempora_schedules_issued_total",
			Help: "Total number of temporal commitment schedules issued",
		}),
		CommitmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempora_commitments_created_total",
			Help: "Total number of commitment rows created",
		}),
		RevealsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempora_reveals_succeeded_total",
			Help: "Total number of successful reveals",
		}),
		RevealsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tempora_reveals_failed_total",
			Help: "Total number of failed reveals, labeled by reason",
		}, []string{"reason"}),
		RevealLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tempora_reveal_latency_seconds",
			Help:    "Latency of reveal processing in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		SweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempora_sweep_runs_total",
			Help: "Total number of expiry sweeps executed",
		}),
		CredentialsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempora_credentials_auto_revoked_total",
			Help: "Total number of credentials auto-revoked by the expiry sweep",
		}),
		SweepFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempora_sweep_failures_total",
			Help: "Total number of per-item failures during expiry sweeps",
		}),
		ExpiredCommitments: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tempora_expired_commitments",
			Help: "Unrevealed commitments past grace period at the last sweep",
		}),
	}
}
