package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the record module. Tracks create and
// update counts, denied writes, and critical path durations.
type Metrics struct {
	RecordsCreated prometheus.Counter
	RecordsUpdated prometheus.Counter
	WritesDenied   *prometheus.CounterVec
	AddDuration    prometheus.Histogram
	UpdateDuration prometheus.Histogram
}

// New creates a Metrics instance with all record module metrics registered.
func New() *Metrics {
	return &Metrics{
		RecordsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parareg_records_created_total",
			Help: "Total number of genesis records committed",
		}),
		RecordsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parareg_records_updated_total",
			Help: "Total number of record versions committed by update",
		}),
		WritesDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "parareg_record_writes_denied_total",
			Help: "Record writes rejected before mutation, by error code",
		}, []string{"code"}),
		AddDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "parareg_add_record_duration_seconds",
			Help:    "Duration of AddRecord operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		UpdateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "parareg_update_record_duration_seconds",
			Help:    "Duration of UpdateRecord operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCreated records a committed genesis record.
func (m *Metrics) IncrementCreated() {
	m.RecordsCreated.Inc()
}

// IncrementUpdated records a committed update version.
func (m *Metrics) IncrementUpdated() {
	m.RecordsUpdated.Inc()
}

// IncrementDenied records a write rejected with the given error code.
func (m *Metrics) IncrementDenied(code string) {
	m.WritesDenied.WithLabelValues(code).Inc()
}

// ObserveAdd records the duration of an AddRecord operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAdd(start time.Time) {
	m.AddDuration.Observe(time.Since(start).Seconds())
}

// ObserveUpdate records the duration of an UpdateRecord operation.
func (m *Metrics) ObserveUpdate(start time.Time) {
	m.UpdateDuration.Observe(time.Since(start).Seconds())
}
