package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/tables/{tableKey}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/api/tables/users", "/api/tables/orders"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/tables/{tableKey}", "418"))
	assert.Equal(t, 2.0, got)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requestsInFlight))
}

func TestRecordTableReadAndExport(t *testing.T) {
	m := New()

	m.RecordTableRead("users", nil)
	m.RecordTableRead("users", errors.New("boom"))
	m.RecordExport("orders", 120, nil)
	m.RecordExport("orders", 0, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.tableReads.WithLabelValues("users", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tableReads.WithLabelValues("users", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exportsTotal.WithLabelValues("orders", "ok")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.exportRows.WithLabelValues("orders")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveExportSlots(func() float64 { return 2 })
	m.RecordTableRead("users", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `tableview_table_page_reads_total{result="ok",table="users"} 1`), body)
	assert.Contains(t, body, "tableview_table_exports_active 2")
	assert.Contains(t, body, "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordTableRead("users", nil)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.tableReads.WithLabelValues("users", "ok")))
}
