// Package metrics содержит метрики Prometheus HTTP-сервера и аутентификации.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics хранит зарегистрированные метрики.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// TokensIssuedTotal считает выпущенные пары по способу входа: password, refresh, google.
	TokensIssuedTotal *prometheus.CounterVec
	// AuthFailuresTotal считает неудачные попытки по причине.
	AuthFailuresTotal *prometheus.CounterVec
	// RevokedTokensFlushed считает удалённые задачей очистки записи.
	RevokedTokensFlushed prometheus.Counter

	registry *prometheus.Registry
}

// New создаёт метрики и регистрирует их в registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driving_school_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "driving_school_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		TokensIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driving_school_tokens_issued_total",
				Help: "Token pairs issued, by grant",
			},
			[]string{"grant"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "driving_school_auth_failures_total",
				Help: "Failed authentication attempts, by reason",
			},
			[]string{"reason"},
		),
		RevokedTokensFlushed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "driving_school_revoked_tokens_flushed_total",
				Help: "Expired revocation records removed by the flush job",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TokensIssuedTotal,
		m.AuthFailuresTotal,
		m.RevokedTokensFlushed,
	)
	return m
}

// TokenIssued отмечает выпуск пары токенов.
func (m *Metrics) TokenIssued(grant string) {
	m.TokensIssuedTotal.WithLabelValues(grant).Inc()
}

// AuthFailed отмечает неудачную попытку аутентификации.
func (m *Metrics) AuthFailed(reason string) {
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// Flushed отмечает количество удалённых записей отзыва.
func (m *Metrics) Flushed(n int64) {
	m.RevokedTokensFlushed.Add(float64(n))
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware считает запросы и их длительность. Путь берётся из шаблона маршрута chi,
// чтобы идентификаторы не раздували число меток.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
