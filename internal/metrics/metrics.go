// Package metrics exposes Prometheus gauges and counters for the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/your-org/epc-sgw/internal/messages"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sgw_active_sessions",
		Help: "Number of active PDN sessions.",
	})

	activeBearers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sgw_active_bearers",
		Help: "Number of bearers currently in ACTIVE state.",
	})

	paaV4Leases = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sgw_paa_v4_leases",
		Help: "Number of leased IPv4 PAA addresses.",
	})

	createSessionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgw_create_session_total",
		Help: "Create Session Request outcomes by cause.",
	}, []string{"cause"})

	modifyBearerTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgw_modify_bearer_total",
		Help: "Modify Bearer Request outcomes by cause.",
	}, []string{"cause"})

	deleteSessionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sgw_delete_session_total",
		Help: "Sessions torn down via Delete Session Request.",
	})

	kernelTunnelErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sgw_kernel_tunnel_errors_total",
		Help: "Kernel tunnel programming failures (logged, never affect the S11 cause).",
	})
)

// Recorder implements engine.MetricsSink.
type Recorder struct{}

// NewRecorder builds a metrics recorder backed by the package-level
// promauto collectors.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func causeLabel(c messages.Cause) string {
	switch c {
	case messages.CauseRequestAccepted:
		return "request_accepted"
	case messages.CauseContextNotFound:
		return "context_not_found"
	case messages.CauseInvalidPeer:
		return "invalid_peer"
	case messages.CauseMobilityAPNNotAllowed:
		return "apn_not_allowed"
	default:
		return "other"
	}
}

func (r *Recorder) SessionCreated(cause messages.Cause) {
	createSessionTotal.WithLabelValues(causeLabel(cause)).Inc()
	if cause == messages.CauseRequestAccepted {
		activeSessions.Inc()
	}
}

func (r *Recorder) SessionDeleted() {
	deleteSessionTotal.Inc()
	activeSessions.Dec()
}

func (r *Recorder) BearerModified(cause messages.Cause) {
	modifyBearerTotal.WithLabelValues(causeLabel(cause)).Inc()
	if cause == messages.CauseRequestAccepted {
		activeBearers.Inc()
	}
}

func (r *Recorder) KernelError() {
	kernelTunnelErrorsTotal.Inc()
}

// SetPAALeases reports the current IPv4 lease count (polled from
// internal/paa.IPv4Pool.AllocatedCount by the caller).
func (r *Recorder) SetPAALeases(n int) {
	paaV4Leases.Set(float64(n))
}
