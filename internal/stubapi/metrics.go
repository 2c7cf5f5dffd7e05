package stubapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks traffic served by the stub.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Lookups         *prometheus.CounterVec
	Profiles        prometheus.Counter
}

// NewMetrics registers the stub metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_stub_requests_total",
			Help: "Requests served by the stub, by operation and status code",
		}, []string{"operation", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboard_stub_request_duration_seconds",
			Help:    "Time spent serving stub requests",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_stub_corporation_lookups_total",
			Help: "Corporation number lookups, by verdict",
		}, []string{"verdict"}),
		Profiles: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboard_stub_profiles_accepted_total",
			Help: "Profiles accepted by the stub",
		}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(operation string, status int, start time.Time) {
	m.Requests.WithLabelValues(operation, statusLabel(status)).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
