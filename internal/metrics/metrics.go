// Package metrics define los collectors Prometheus del relay.
// Todos los métodos aceptan receptor nil (métricas deshabilitadas).
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight *prometheus.GaugeVec

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	smtpFailures     *prometheus.CounterVec
	auditFailures    prometheus.Counter
	rateLimited      prometheus.Counter

	gatherer prometheus.Gatherer
}

// New crea y registra los collectors. reg nil = registry nuevo y propio.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método",
		}, []string{"method"}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maildispatch_dispatch_total",
			Help: "Envíos por resultado",
		}, []string{"outcome"}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "maildispatch_dispatch_duration_seconds",
			Help:    "Duración de un dispatch completo (lookup + smtp + audit)",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		smtpFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maildispatch_smtp_failures_total",
			Help: "Fallos SMTP por código de diagnóstico",
		}, []string{"code"}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildispatch_audit_failures_total",
			Help: "Envíos realizados cuyo registro de auditoría falló",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildispatch_rate_limited_total",
			Help: "Requests rechazadas por rate limit",
		}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{
		m.httpRequests, m.httpDuration, m.httpInflight,
		m.dispatchTotal, m.dispatchDuration, m.smtpFailures, m.auditFailures, m.rateLimited,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
	}
	return nil
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// HTTPInflight marca un request en vuelo; la función devuelta lo libera.
func (m *Metrics) HTTPInflight(method string) func() {
	if m == nil {
		return func() {}
	}
	g := m.httpInflight.WithLabelValues(method)
	g.Inc()
	return g.Dec
}

// ObserveHTTP registra un request terminado. route es el patrón, no el path crudo.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Dispatch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(outcome).Inc()
	m.dispatchDuration.Observe(d.Seconds())
}

func (m *Metrics) SMTPFailure(code string) {
	if m == nil {
		return
	}
	m.smtpFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) AuditFailure() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
