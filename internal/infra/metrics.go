package infra

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics groups the Prometheus collectors of the service. Every method is
// safe on a nil receiver so services can run without metrics in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	transacciones *prometheus.CounterVec
	montos        *prometheus.CounterVec
	cierres       *prometheus.CounterVec
	diferencias   prometheus.Histogram
	jobs          *prometheus.CounterVec
}

// NewMetrics creates a private registry with the Go and process collectors
// plus the micaja collectors.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		transacciones: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transacciones_total",
				Help:      "Transactions recorded by type and payment method",
			},
			[]string{"tipo", "metodo_pago"},
		),
		montos: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transacciones_monto_total",
				Help:      "Summed amount of recorded transactions by payment method",
			},
			[]string{"metodo_pago"},
		),
		cierres: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cierres_caja_total",
				Help:      "Cash closings created, split by alert flag",
			},
			[]string{"alerta"},
		),
		diferencias: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cierre_diferencia_abs",
				Help:      "Absolute cash variance at closing time",
				Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 5000},
			},
		),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Background jobs processed by type and result",
			},
			[]string{"job_type", "result"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpLatency,
		m.transacciones, m.montos,
		m.cierres, m.diferencias,
		m.jobs,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordTransaccion(tipo, metodo string, monto decimal.Decimal) {
	if m == nil {
		return
	}
	m.transacciones.WithLabelValues(tipo, metodo).Inc()
	m.montos.WithLabelValues(metodo).Add(monto.InexactFloat64())
}

func (m *Metrics) RecordCierre(diferencia decimal.Decimal, alerta bool) {
	if m == nil {
		return
	}
	m.cierres.WithLabelValues(strconv.FormatBool(alerta)).Inc()
	m.diferencias.Observe(diferencia.Abs().InexactFloat64())
}

func (m *Metrics) RecordJob(jobType string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.jobs.WithLabelValues(jobType, result).Inc()
}
