// Package metrics defines Prometheus metrics for the frontdesk service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all registered Prometheus collectors.
type Metrics struct {
	HTTPDuration         *prometheus.HistogramVec
	QuestionsTotal       *prometheus.CounterVec
	ResolutionsTotal     prometheus.Counter
	TimedOutTotal        prometheus.Counter
	WebSocketClients     prometheus.Gauge
	EventsDeliveredTotal prometheus.Counter
}

// Register registers all metrics with the given registry and returns the Metrics instance.
func Register(reg prometheus.Registerer) (*Metrics, error) {
	m := New()
	if err := RegisterWith(reg, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterWith registers a pre-built Metrics instance with the given registry.
func RegisterWith(reg prometheus.Registerer, m *Metrics) error {
	collectors := []prometheus.Collector{
		m.HTTPDuration,
		m.QuestionsTotal,
		m.ResolutionsTotal,
		m.TimedOutTotal,
		m.WebSocketClients,
		m.EventsDeliveredTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// New creates uninitialised metric instances (used internally and by the HTTP middleware).
func New() *Metrics {
	return &Metrics{
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "frontdesk_http_request_duration_seconds",
				Help:    "Duration of HTTP request handling in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "route", "status"},
		),
		QuestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frontdesk_questions_total",
				Help: "Total customer questions processed, by outcome.",
			},
			[]string{"outcome"},
		),
		ResolutionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_resolutions_total",
			Help: "Total help requests resolved by a supervisor.",
		}),
		TimedOutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_requests_timed_out_total",
			Help: "Total pending help requests marked unresolved by the sweeper.",
		}),
		WebSocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "frontdesk_websocket_clients",
			Help: "Currently connected dashboard WebSocket clients.",
		}),
		EventsDeliveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_events_delivered_total",
			Help: "Total bus events pushed to WebSocket clients.",
		}),
	}
}

// Question outcomes recorded in QuestionsTotal.
const (
	OutcomeKnowledge = "knowledge"
	OutcomeMatcher   = "matcher"
	OutcomeEscalated = "escalated"
	OutcomeError     = "error"
)
