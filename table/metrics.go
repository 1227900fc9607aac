package table

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		operations: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_operations_total",
				Help: "DynamoDB operations, by table, operation, and outcome.",
			},
			[]string{"table", "op", "outcome"},
		)),
		duration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lattice_operation_duration_seconds",
				Help:    "DynamoDB operation latency, including retries.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"table", "op"},
		)),
	}
}

// register tolerates re-registration so tables sharing a Registerer share
// the collectors.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(C)
		}
		panic(err)
	}
	return c
}

func (m *metrics) observe(table, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(table, op, outcome).Inc()
	m.duration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
}
