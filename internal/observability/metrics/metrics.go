package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for schedule mutations.
type SchedulingMetrics struct {
	operationsTotal  *prometheus.CounterVec
	persistFailures  prometheus.Counter
	assistantLatency *prometheus.HistogramVec
	appointments     *prometheus.GaugeVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "schedule",
			Name:      "operations_total",
			Help:      "Schedule operations by outcome",
		}, []string{"operation", "result"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "schedule",
			Name:      "persist_failures_total",
			Help:      "Snapshots the persistence store rejected",
		}),
		assistantLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "assistant",
			Name:      "latency_seconds",
			Help:      "Latency of natural-language assistant round trips",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"status"}),
		appointments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "schedule",
			Name:      "appointments",
			Help:      "Appointments currently held by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.persistFailures, m.assistantLatency, m.appointments)
	return m
}

func (m *SchedulingMetrics) ObserveOperation(operation, result string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, result).Inc()
}

func (m *SchedulingMetrics) ObservePersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

func (m *SchedulingMetrics) ObserveAssistant(status string, seconds float64) {
	if m == nil {
		return
	}
	m.assistantLatency.WithLabelValues(status).Observe(seconds)
}

// SetAppointmentCounts replaces the per-status gauge values.
func (m *SchedulingMetrics) SetAppointmentCounts(counts map[string]int) {
	if m == nil {
		return
	}
	m.appointments.Reset()
	for status, n := range counts {
		m.appointments.WithLabelValues(status).Set(float64(n))
	}
}
