package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"esgdash/adapters/llm"
	"esgdash/adapters/tabular"
	"esgdash/app"
	"esgdash/internal/config"
	"esgdash/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const riskCSV = "Subcategory,Risk_Category,Probability,Severity\n" +
	"Flood,Physical,0.2,\"1,000,000\"\n" +
	"Drought,Physical,0.1,500000\n"

func newTestServer(t *testing.T, summarizer *llm.MockLLMClient) *Server {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"risk_data.csv":          riskCSV,
		"compliance_tracker.csv": "Regulation,Compliance_Status\nTCFD,Compliant\nSFDR,In Progress\nCSRD,Compliant\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	catalog, err := config.DefaultCatalog()
	require.NoError(t, err)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	loader := app.NewLoader(catalog, nil, m, nil, tabular.NewFileReader(dir, nil))
	pipeline := app.NewPipeline(loader, app.NewCalculator(m, nil), app.NewAdjuster(m, nil), nil)

	summaries := app.NewSummaryService(nil, 0, m, nil)
	if summarizer != nil {
		summaries = app.NewSummaryService(llm.NewSummarizer(summarizer, "", 0), 0, m, nil)
	}

	s, err := NewServer(Deps{
		Catalog:   catalog,
		Loader:    loader,
		Pipeline:  pipeline,
		Summaries: summaries,
		Metrics:   m,
		GinMode:   gin.TestMode,
	})
	require.NoError(t, err)
	return s
}

func do(s *Server, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestNewServerRequiresPipeline(t *testing.T) {
	_, err := NewServer(Deps{})
	assert.Error(t, err)
}

func TestPages(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name     string
		target   string
		status   int
		contains []string
	}{
		{"landing", "/", http.StatusOK, []string{"Climate Risk Analysis", "<strong>climate risks</strong>"}},
		{"risk page", "/datasets/risk_data", http.StatusOK, []string{
			"Total Financial Impact: $250,000.00",
			`name="set[0]"`,
			`max="2000000"`,
			"/download/risk_data/chart/0.png",
		}},
		{"risk page with query scenario", "/datasets/risk_data?" + url.Values{"set[Flood]": {"2000000"}}.Encode(), http.StatusOK, []string{
			"Adjusted Total Financial Impact: $450,000.00",
			"Adjusted data",
		}},
		{"group counts", "/datasets/compliance_tracker", http.StatusOK, []string{"Compliant: 2", "In Progress: 1"}},
		{"empty dataset", "/datasets/kpi_data", http.StatusOK, []string{"No KPI Dashboard data available."}},
		{"unknown dataset", "/datasets/nope", http.StatusNotFound, []string{"Unknown dataset"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodGet, tt.target, "", "")
			assert.Equal(t, tt.status, w.Code)
			for _, want := range tt.contains {
				assert.Contains(t, w.Body.String(), want)
			}
			assert.NotEmpty(t, w.Header().Get(requestIDHeader))
		})
	}
}

func TestAdjustForm(t *testing.T) {
	s := newTestServer(t, nil)
	form := url.Values{"set[0]": {"5000000"}, "set[1]": {"500000"}}

	w := do(s, http.MethodPost, "/datasets/risk_data/adjust", form.Encode(), "application/x-www-form-urlencoded")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Total Financial Impact: $250,000.00")
	assert.Contains(t, body, "Adjusted Total Financial Impact: $450,000.00", "5,000,000 is clamped to 2,000,000")
	assert.NotContains(t, body, "AI summary", "summarizer disabled")
}

func TestDownloads(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/download/risk_data.csv", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="risk_data.csv"`)
	assert.Equal(t, "Subcategory,Risk_Category,Probability,Severity,Financial_Impact\n"+
		"Flood,Physical,0.2,\"1,000,000\",200000\n"+
		"Drought,Physical,0.1,500000,50000\n", w.Body.String())

	w = do(s, http.MethodGet, "/download/risk_data/adjusted.csv?"+url.Values{"set[0]": {"2000000"}}.Encode(), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Flood,Physical,0.2,2000000,400000\n")

	w = do(s, http.MethodGet, "/download/risk_data.xlsx", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	w = do(s, http.MethodGet, "/download/risk_data/chart/0.png", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(s, http.MethodGet, "/download/risk_data/summary.txt", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Total Financial Impact: $250,000.00\n"+
		"Adjusted Total Financial Impact: $250,000.00\n"+
		"Physical: 2\n", w.Body.String())
}

func TestDownloadNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		target string
		body   string
	}{
		{"/download/kpi_data.csv", "No KPI Dashboard data available."},
		{"/download/risk_data.pdf", `unsupported format ".pdf"`},
		{"/download/nope.csv", `dataset "nope" not found`},
		{"/download/risk_data/chart/9.png", ""},
		{"/download/risk_data/chart/first.png", `chart "first.png" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := do(s, http.MethodGet, tt.target, "", "")
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAPIDataset(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/api/datasets/risk_data?"+url.Values{"set[Flood]": {"2000000"}}.Encode(), "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Status        string     `json:"status"`
		Total         float64    `json:"total"`
		AdjustedTotal float64    `json:"adjusted_total"`
		Columns       []string   `json:"columns"`
		Rows          [][]string `json:"rows"`
		AdjustedRows  [][]string `json:"adjusted_rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, 250000.0, got.Total)
	assert.Equal(t, 450000.0, got.AdjustedTotal)
	assert.Equal(t, "Financial_Impact", got.Columns[4])
	assert.Equal(t, "200000", got.Rows[0][4])
	assert.Equal(t, "400000", got.AdjustedRows[0][4])

	w = do(s, http.MethodGet, "/api/datasets/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var failure struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &failure))
	assert.Equal(t, "NOT_FOUND", failure.Code)
	assert.Equal(t, `dataset "nope" not found`, failure.Error)
}

func TestAPIDatasets(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/api/datasets", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Datasets []datasetStatus `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Datasets, 8)
	assert.Equal(t, datasetStatus{Name: "risk_data", Title: "Climate Risk Analysis", Status: "ok", Rows: 2}, got.Datasets[0])
	assert.Equal(t, "empty", got.Datasets[1].Status)
}

func TestAPISummary(t *testing.T) {
	mock := &llm.MockLLMClient{Response: "Flood drives **most** of the impact."}
	s := newTestServer(t, mock)

	w := do(s, http.MethodPost, "/api/summary", `{"dataset":"risk_data","set":{"Flood":"2000000"}}`, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Summary string `json:"summary"`
		HTML    string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Flood drives **most** of the impact.", got.Summary)
	assert.Contains(t, got.HTML, "<strong>most</strong>")
	require.Equal(t, 1, mock.Calls())
	assert.Contains(t, mock.Prompts[0], "Adjusted Total Financial Impact: $450,000.00")

	w = do(s, http.MethodPost, "/api/summary", `{"text":"  "}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPost, "/api/summary", `{"dataset":"nope"}`, "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(s, http.MethodPost, "/api/summary", `not json`, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPISummaryFailures(t *testing.T) {
	disabled := newTestServer(t, nil)
	w := do(disabled, http.MethodPost, "/api/summary", `{"text":"hello"}`, "application/json")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "CONFIG_INVALID")

	failing := &llm.MockLLMClient{Error: errors.New("rate limited")}
	s := newTestServer(t, failing)
	w = do(s, http.MethodPost, "/api/summary", `{"text":"hello"}`, "application/json")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 1, failing.Calls())
}

func TestSummarizePage(t *testing.T) {
	s := newTestServer(t, &llm.MockLLMClient{Response: "Two of three regulations are compliant."})

	w := do(s, http.MethodPost, "/datasets/compliance_tracker/summarize", "", "application/x-www-form-urlencoded")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<p>Two of three regulations are compliant.</p>")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","datasets":8,"summarizer":false}`, w.Body.String())

	do(s, http.MethodGet, "/datasets/risk_data", "", "")
	w = do(s, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `esgdash_dataset_loads_total{dataset="risk_data",status="ok"} 1`)
}

func TestStaticFiles(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(s, http.MethodGet, "/static/style.css", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDIsKept(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestSetValues(t *testing.T) {
	got := setValues(url.Values{
		"set[0]":     {"1"},
		"set[Flood]": {"2"},
		"set[]":      {"3"},
		"other":      {"4"},
	})
	assert.Equal(t, map[string]string{"0": "1", "Flood": "2"}, got)
	assert.Equal(t, "set%5B0%5D=1", setQuery(map[string]string{"0": "1", "1": " "}))
}
