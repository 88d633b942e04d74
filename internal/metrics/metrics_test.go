package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRecord(t *testing.T) {
	c := NewWithRegistry(prometheus.NewRegistry())

	c.ObserveLoad("risk_data", "ok", 2, 15*time.Millisecond)
	c.ObserveLoad("risk_data", "empty", 0, time.Millisecond)
	c.ObserveRule("financial_impact", "apply")
	c.ObserveDiagnostic("COLUMN_MISSING")
	c.ObserveDiagnostic("COLUMN_MISSING")
	c.ObserveSummary("disabled")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.loads.WithLabelValues("risk_data", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.loadedRows.WithLabelValues("risk_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rules.WithLabelValues("financial_impact", "apply")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.diagnostics.WithLabelValues("COLUMN_MISSING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.summaries.WithLabelValues("disabled")))
}

func TestNilCollectorsAreNoops(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.ObserveLoad("x", "ok", 1, time.Second)
		c.ObserveRule("r", "adjust")
		c.ObserveDiagnostic("NON_NUMERIC")
		c.ObserveSummary("ok")
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.ObserveRule("kpi_progress", "apply")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `esgdash_rule_evaluations_total{kind="apply",rule="kpi_progress"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
