package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the institution module.
type Metrics struct {
	InstitutionsRegistered prometheus.Counter
	InstitutionsVerified   prometheus.Counter
	MembershipsAssigned    prometheus.Counter
}

// New creates a Metrics instance with all institution module metrics registered.
func New() *Metrics {
	return &Metrics{
		InstitutionsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parareg_institutions_registered_total",
			Help: "Total number of institutions registered",
		}),
		InstitutionsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parareg_institutions_verified_total",
			Help: "Total number of institutions verified",
		}),
		MembershipsAssigned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parareg_memberships_assigned_total",
			Help: "Total number of researcher memberships assigned",
		}),
	}
}

// IncrementRegistered records a successful institution registration.
func (m *Metrics) IncrementRegistered() {
	m.InstitutionsRegistered.Inc()
}

// IncrementVerified records a verification that actually flipped the flag.
func (m *Metrics) IncrementVerified() {
	m.InstitutionsVerified.Inc()
}

// IncrementMemberships records a membership assignment.
func (m *Metrics) IncrementMemberships() {
	m.MembershipsAssigned.Inc()
}
