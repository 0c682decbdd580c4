package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDB_CountsErrorsByClass(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("users.create", func() error {
		return &pgconn.PgError{Code: "23505"}
	})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))
}

func TestObserveDB_NilPromStillRuns(t *testing.T) {
	var p *Prom
	called := false

	err := p.ObserveDB("noop", func() error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}

func TestClassifyDBErr(t *testing.T) {
	assert.Equal(t, "foreign_key_violation", classifyDBErr(&pgconn.PgError{Code: "23503"}))
	assert.Equal(t, "pg_42P01", classifyDBErr(&pgconn.PgError{Code: "42P01"}))
	assert.Equal(t, "timeout", classifyDBErr(errors.New("context deadline exceeded")))
	assert.Equal(t, "connection", classifyDBErr(errors.New("connection refused")))
	assert.Equal(t, "unknown", classifyDBErr(errors.New("boom")))
}

func TestGinHandleMiddleware_RecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/Tasks/Details/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/Tasks/Details/7", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/Tasks/Details/:id", "200")))
}

func TestObserveAuthAndReport(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveAuth("login", "ok")
	p.ObserveReport("user_tasks_summary", 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.AuthAttempts.WithLabelValues("login", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.ReportRowsTotal.WithLabelValues("user_tasks_summary")))

	var nilProm *Prom
	nilProm.ObserveAuth("login", "ok")
	nilProm.ObserveReport("x", 1)
}

func TestObserveSweep(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveSweep("password_resets", "ok", 4)
	p.ObserveSweep("password_resets", "ok", 0)
	p.ObserveSweep("password_resets", "error", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.SweepRunsTotal.WithLabelValues("password_resets", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.SweepRunsTotal.WithLabelValues("password_resets", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(p.SweptRowsTotal.WithLabelValues("password_resets")))
}

func TestObserveDB_NoRowsIsNotAnError(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("users.get_by_id", func() error { return pgx.ErrNoRows })
	require.ErrorIs(t, err, pgx.ErrNoRows)

	assert.Equal(t, 0, testutil.CollectAndCount(p.DbErrorsTotal))
}
