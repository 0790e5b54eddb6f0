package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Register once at
// startup; services treat a nil *Metrics as "metrics disabled".
type Metrics struct {
	PoliciesRegistered  prometheus.Counter
	PoliciesDeactivated prometheus.Counter
	ClaimsSubmitted     prometheus.Counter
	ClaimsApproved      prometheus.Counter
	ClaimsRejected      prometheus.Counter
	SyncApplied         prometheus.Counter
	SyncFailures        prometheus.Counter
	MirrorRecords       prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PoliciesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurechain_policies_registered_total",
			Help: "Total number of policies registered on the authoritative ledger",
		}),
		PoliciesDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurechain_policies_deactivated_total",
			Help: "Total number of policies deactivated",
		}),
		ClaimsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurechain_claims_submitted_total",
			Help: "Total number of claims submitted",
		}),
		ClaimsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurechain_claims_approved_total",
			Help: "Total number of claims approved",
		}),
		ClaimsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurechain_claims_rejected_total",
			Help: "Total number of claims rejected",
		}),
		SyncApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurechain_sync_events_applied_total",
			Help: "Total number of ledger events applied to the mirror store",
		}),
		SyncFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurechain_sync_failures_total",
			Help: "Total number of sync events that could not resolve their authoritative reference",
		}),
		MirrorRecords: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "insurechain_mirror_records",
			Help: "Current number of records held by the mirror store",
		}),
	}
}
