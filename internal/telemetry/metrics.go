package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tournevent/ratebridge/pkg/carrier"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	CarrierErrors     *prometheus.CounterVec
	TokenAcquisitions *prometheus.CounterVec
}

// NewMetrics creates metrics registered with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates metrics registered with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebridge_requests_total",
				Help: "Total number of requests by operation, carrier, and status",
			},
			[]string{"operation", "carrier", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratebridge_request_duration_seconds",
				Help:    "Request duration in seconds by operation and carrier",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "carrier"},
		),
		CarrierErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebridge_carrier_errors_total",
				Help: "Total carrier errors by carrier and error kind",
			},
			[]string{"carrier", "kind"},
		),
		TokenAcquisitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebridge_token_acquisitions_total",
				Help: "Total carrier credential acquisitions by carrier and status",
			},
			[]string{"carrier", "status"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, carrier, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, carrier, status).Inc()
	m.RequestDuration.WithLabelValues(operation, carrier).Observe(duration)
}

// RecordError records a carrier error metric.
func (m *Metrics) RecordError(carrier, kind string) {
	m.CarrierErrors.WithLabelValues(carrier, kind).Inc()
}

// RecordTokenAcquisition records a credential acquisition attempt. Its
// signature matches the oauth acquire hook.
func (m *Metrics) RecordTokenAcquisition(carrierID string, err error) {
	m.TokenAcquisitions.WithLabelValues(carrierID, status(err)).Inc()
}

// ObserveRates implements carrier.Observer.
func (m *Metrics) ObserveRates(carrierID string, _ int, err error, seconds float64) {
	m.RecordRequest("rates", carrierID, status(err), seconds)
	if err != nil {
		m.RecordError(carrierID, string(carrier.KindOf(err)))
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ carrier.Observer = (*Metrics)(nil)
