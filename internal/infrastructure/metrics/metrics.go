// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the narrow view of the collectors the services write to.
type Recorder interface {
	AccessDecision(level string)
	StatusTransition(outcome string)
	PatientCodeDraw(collision bool)
	LookupRejected()
}

type Collectors struct {
	accessDecisions   *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	patientCodeDraws  *prometheus.CounterVec
	lookupsRejected   prometheus.Counter
}

// New builds the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		accessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "records",
			Name:      "access_decisions_total",
			Help:      "Access evaluations by resulting level.",
		}, []string{"level"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "records",
			Name:      "status_transitions_total",
			Help:      "Record status transition attempts by outcome.",
		}, []string{"outcome"}),
		patientCodeDraws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "patient_code_draws_total",
			Help:      "Patient code draws, split by whether the code was taken.",
		}, []string{"result"}),
		lookupsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "directory",
			Name:      "patient_lookups_rate_limited_total",
			Help:      "Patient code lookups refused by the rate limiter.",
		}),
	}

	reg.MustRegister(c.accessDecisions, c.statusTransitions, c.patientCodeDraws, c.lookupsRejected)
	return c
}

func (c *Collectors) AccessDecision(level string) {
	c.accessDecisions.WithLabelValues(level).Inc()
}

func (c *Collectors) StatusTransition(outcome string) {
	c.statusTransitions.WithLabelValues(outcome).Inc()
}

func (c *Collectors) PatientCodeDraw(collision bool) {
	result := "fresh"
	if collision {
		result = "collision"
	}
	c.patientCodeDraws.WithLabelValues(result).Inc()
}

func (c *Collectors) LookupRejected() {
	c.lookupsRejected.Inc()
}

// Nop discards every observation.
type Nop struct{}

func (Nop) AccessDecision(string)   {}
func (Nop) StatusTransition(string) {}
func (Nop) PatientCodeDraw(bool)    {}
func (Nop) LookupRejected()         {}
