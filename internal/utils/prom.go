package utils

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors of the dashboard. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	TableLoads     *prometheus.CounterVec
	TableRows      *prometheus.GaugeVec
	ReloadDuration prometheus.Histogram
	HTTPDuration   *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TableLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campaigndash",
			Name:      "table_loads_total",
			Help:      "Source table loads by table and result.",
		}, []string{"table", "result"}),
		TableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "campaigndash",
			Name:      "table_rows",
			Help:      "Rows held by the current table snapshot.",
		}, []string{"table"}),
		ReloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "campaigndash",
			Name:      "reload_duration_seconds",
			Help:      "Time to reload both source tables.",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "campaigndash",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(m.TableLoads, m.TableRows, m.ReloadDuration, m.HTTPDuration)
	return m
}

func (m *Metrics) ObserveLoad(table string, rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.TableLoads.WithLabelValues(table, "error").Inc()
		return
	}
	m.TableLoads.WithLabelValues(table, "ok").Inc()
	m.TableRows.WithLabelValues(table).Set(float64(rows))
}

func (m *Metrics) ObserveReload(d time.Duration) {
	if m == nil {
		return
	}
	m.ReloadDuration.Observe(d.Seconds())
}

// Instrument records request latency under the matched chi route pattern.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.HTTPDuration.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Observe(time.Since(start).Seconds())
	})
}
