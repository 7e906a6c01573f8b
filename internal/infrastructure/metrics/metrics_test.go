package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.AccessDecision("owner")
	c.AccessDecision("owner")
	c.AccessDecision("none")
	c.StatusTransition("conflict")
	c.PatientCodeDraw(true)
	c.PatientCodeDraw(false)
	c.LookupRejected()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.accessDecisions.WithLabelValues("owner")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.accessDecisions.WithLabelValues("none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.statusTransitions.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.patientCodeDraws.WithLabelValues("collision")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.patientCodeDraws.WithLabelValues("fresh")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lookupsRejected))
}

func TestRecorderImplementations(t *testing.T) {
	var _ Recorder = (*Collectors)(nil)
	var r Recorder = Nop{}
	assert.NotPanics(t, func() {
		r.AccessDecision("owner")
		r.LookupRejected()
	})
}
