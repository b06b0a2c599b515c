package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSchedulingMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)

	m.ObserveOperation("book", "ok")
	m.ObserveOperation("book", "ok")
	m.ObserveOperation("book", "slot_unavailable")
	m.ObservePersistFailure()
	m.ObserveAssistant("ok", 1.2)
	m.SetAppointmentCounts(map[string]int{"scheduled": 3, "completed": 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("book", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("book", "slot_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.appointments.WithLabelValues("scheduled")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.assistantLatency))

	m.SetAppointmentCounts(map[string]int{"cancelled": 1})
	assert.Equal(t, 1, testutil.CollectAndCount(m.appointments))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveOperation("book", "ok")
	m.ObservePersistFailure()
	m.ObserveAssistant("ok", 1)
	m.SetAppointmentCounts(map[string]int{"scheduled": 1})
}
