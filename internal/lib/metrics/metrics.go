// Package metrics объявляет метрики prometheus для рассылки.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics собирает счётчики отправок и проходов рассылки.
type Metrics struct {
	MessagesSent   prometheus.Counter
	MessagesFailed prometheus.Counter
	Sweeps         prometheus.Counter
	SweepDuration  prometheus.Histogram
}

// New создаёт метрики и регистрирует их в reg. При nil-регистраторе
// метрики работают, но никуда не экспортируются.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "controtec_messages_sent_total",
			Help: "Messages handed to the messaging backend.",
		}),
		MessagesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "controtec_messages_failed_total",
			Help: "Messages the messaging backend refused.",
		}),
		Sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "controtec_sweeps_total",
			Help: "Completed dispatch sweeps.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "controtec_sweep_duration_seconds",
			Help:    "Duration of a dispatch sweep.",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 3600},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.MessagesSent, m.MessagesFailed, m.Sweeps, m.SweepDuration)
	}
	return m
}

// ObserveSweep фиксирует завершённый проход.
func (m *Metrics) ObserveSweep(sent, failed int, took time.Duration) {
	if m == nil {
		return
	}
	m.MessagesSent.Add(float64(sent))
	m.MessagesFailed.Add(float64(failed))
	m.Sweeps.Inc()
	m.SweepDuration.Observe(took.Seconds())
}
