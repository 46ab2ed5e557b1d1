package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// age-refresh worker
	RefreshRuns     *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	RefreshedRows   prometheus.Gauge
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hrhub",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hrhub",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "hrhub",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hrhub",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hrhub",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		RefreshRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hrhub",
				Subsystem: "refresh",
				Name:      "runs_total",
				Help:      "Age refresh runs by result.",
			},
			[]string{"result"}, // result=done|skipped|failed
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "hrhub",
				Subsystem: "refresh",
				Name:      "duration_seconds",
				Help:      "Age refresh pass duration.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		RefreshedRows: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "hrhub",
				Subsystem: "refresh",
				Name:      "rows",
				Help:      "Rows touched by the last age refresh pass.",
			},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.DbQueryDuration, p.DbErrorsTotal, p.RefreshRuns, p.RefreshDuration, p.RefreshedRows)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// ObserveRefresh wraps one worker refresh pass.
func (p *Prom) ObserveRefresh(fn func() (int64, error)) (int64, error) {
	start := time.Now()
	rows, err := fn()

	p.RefreshDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		p.RefreshRuns.WithLabelValues("failed").Inc()
		return rows, err
	}

	p.RefreshRuns.WithLabelValues("done").Inc()
	p.RefreshedRows.Set(float64(rows))
	return rows, nil
}
