package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module: admission and
// reconciliation volumes, rejection reasons, and decryption latency.
type Metrics struct {
	RegistrationsTotal      prometheus.Counter
	BatchRegistrationsTotal prometheus.Counter
	FinalizationsTotal      prometheus.Counter
	RejectionsTotal         *prometheus.CounterVec
	RecordsTotal            prometheus.Gauge
	RecordsDecrypted        prometheus.Gauge
	DecryptionLatency       prometheus.Histogram
	FinalizeDuration        prometheus.Histogram
}

// New creates a Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sealedreg_registrations_total",
			Help: "Total number of successful single admissions",
		}),
		BatchRegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sealedreg_batch_registrations_total",
			Help: "Total number of successful batch admissions",
		}),
		FinalizationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sealedreg_finalizations_total",
			Help: "Total number of successful reconciliations",
		}),
		RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sealedreg_rejections_total",
			Help: "Total rejected operations by reason code",
		}, []string{"reason"}),
		RecordsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sealedreg_records_total",
			Help: "Records ever admitted",
		}),
		RecordsDecrypted: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sealedreg_records_decrypted",
			Help: "Records reconciled with a plaintext disclosure",
		}),
		DecryptionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sealedreg_decryption_latency_seconds",
			Help:    "Time between admission and reconciliation per record",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}),
		FinalizeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sealedreg_finalize_duration_seconds",
			Help:    "Duration of finalize operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveFinalize records the duration of a finalize operation. Call with
// time.Now() at the start of the operation.
func (m *Metrics) ObserveFinalize(start time.Time) {
	m.FinalizeDuration.Observe(time.Since(start).Seconds())
}

// IncrementRejection counts a rejected operation under its reason code.
func (m *Metrics) IncrementRejection(reason string) {
	m.RejectionsTotal.WithLabelValues(reason).Inc()
}
