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

	// Accounts + reports
	AuthAttempts    *prometheus.CounterVec
	ReportRowsTotal *prometheus.CounterVec

	// Housekeeping
	SweepRunsTotal *prometheus.CounterVec
	SweptRowsTotal *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "todolist",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "todolist",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "todolist",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "todolist",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "todolist",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "todolist",
				Subsystem: "auth",
				Name:      "attempts_total",
				Help:      "Sign-in and registration attempts by kind and result.",
			},
			[]string{"kind", "result"}, // kind=login|admin_login|register, result=ok|rejected|error
		),
		ReportRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "todolist",
				Subsystem: "reports",
				Name:      "rows_total",
				Help:      "CSV lines written per report, header included.",
			},
			[]string{"report"},
		),
		SweepRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "todolist",
				Subsystem: "worker",
				Name:      "sweeps_total",
				Help:      "Housekeeping task runs by task and result.",
			},
			[]string{"task", "result"},
		),
		SweptRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "todolist",
				Subsystem: "worker",
				Name:      "swept_rows_total",
				Help:      "Rows removed by housekeeping tasks.",
			},
			[]string{"task"},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.AuthAttempts, p.ReportRowsTotal,
		p.SweepRunsTotal, p.SweptRowsTotal,
	)

	return p
}

// ObserveAuth is nil-safe so services can run without metrics.
func (p *Prom) ObserveAuth(kind, result string) {
	if p == nil {
		return
	}
	p.AuthAttempts.WithLabelValues(kind, result).Inc()
}

func (p *Prom) ObserveReport(name string, lines int) {
	if p == nil {
		return
	}
	p.ReportRowsTotal.WithLabelValues(name).Add(float64(lines))
}

func (p *Prom) ObserveSweep(task, result string, rows int) {
	if p == nil {
		return
	}
	p.SweepRunsTotal.WithLabelValues(task, result).Inc()
	if rows > 0 {
		p.SweptRowsTotal.WithLabelValues(task).Add(float64(rows))
	}
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
