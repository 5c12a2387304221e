// Package metrics exposes Prometheus instruments for the windowed alarm.
package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/oshokin/window-alarm/internal/domain/alarm"
)

const metricPrefix = "window_alarm_"

// Metrics groups the alarm instruments.
type Metrics struct {
	registry *prometheus.Registry

	firings         prometheus.Counter
	acknowledgments prometheus.Counter
	repairs         *prometheus.CounterVec
	status          prometheus.Gauge
	nextFire        prometheus.Gauge
}

// New creates the instruments and registers them in a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		firings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "firings_total",
			Help: "Total transitions into the ringing status",
		}),
		acknowledgments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "acknowledgements_total",
			Help: "Total acknowledgements of a ringing alarm",
		}),
		repairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "repairs_total",
				Help: "Persisted fields reset to defaults at startup",
			},
			[]string{"field"},
		),
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "status",
			Help: "Runtime status: 0 off, 1 armed, 2 ringing",
		}),
		nextFire: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "next_fire_minute",
			Help: "Minute of day of the next scheduled firing",
		}),
	}

	collectors := []prometheus.Collector{m.firings, m.acknowledgments, m.repairs, m.status, m.nextFire}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return m, nil
}

// ObserveFiring counts one firing.
func (m *Metrics) ObserveFiring() {
	m.firings.Inc()
}

// ObserveAcknowledgment counts one acknowledgement.
func (m *Metrics) ObserveAcknowledgment() {
	m.acknowledgments.Inc()
}

// ObserveRepairs counts the repaired persisted fields.
func (m *Metrics) ObserveRepairs(fields []string) {
	for _, field := range fields {
		m.repairs.WithLabelValues(field).Inc()
	}
}

// SetState records the current status and next firing minute.
func (m *Metrics) SetState(status domain.Status, nextFireMinute int) {
	m.status.Set(float64(status))
	m.nextFire.Set(float64(nextFireMinute))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs server until it is shut down.
func Serve(server *http.Server) error {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	return nil
}
