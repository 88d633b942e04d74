package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"esgdash/adapters/export"
	"esgdash/app"
	"esgdash/domain/table"
	apperrors "esgdash/internal/errors"
	"esgdash/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var exporters = map[string]ports.TableExporter{
	".csv":  export.CSVExporter{},
	".xlsx": export.XLSXExporter{},
}

// downloadRouter serves table, chart and summary files. Scenario values come
// from set[key] query parameters, the same as the dataset pages.
func (s *Server) downloadRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/{file}", s.handleDownloadTable)
	r.Get("/{name}/adjusted.csv", s.handleDownloadAdjusted(".csv"))
	r.Get("/{name}/adjusted.xlsx", s.handleDownloadAdjusted(".xlsx"))
	r.Get("/{name}/chart/{file}", s.handleDownloadChart)
	r.Get("/{name}/summary.txt", s.handleDownloadSummary)
	return r
}

// handleDownloadTable serves the computed table as {name}.csv or {name}.xlsx
func (s *Server) handleDownloadTable(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	ext := strings.ToLower(path.Ext(file))
	exp, ok := exporters[ext]
	if !ok {
		httpError(w, apperrors.New(apperrors.CodeNotFound, "unsupported format "+strconv.Quote(ext)))
		return
	}
	res, ok := s.runPage(w, r, strings.TrimSuffix(file, path.Ext(file)), false)
	if !ok {
		return
	}
	s.writeTable(w, exp, res.Table(), res.Dataset.Name+ext)
}

func (s *Server) handleDownloadAdjusted(ext string) http.HandlerFunc {
	exp := exporters[ext]
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := s.runPage(w, r, chi.URLParam(r, "name"), true)
		if !ok {
			return
		}
		s.writeTable(w, exp, res.AdjustedTable(), res.Dataset.Name+"_adjusted"+ext)
	}
}

// handleDownloadChart renders chart {idx}.png of a dataset
func (s *Server) handleDownloadChart(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	idx, err := strconv.Atoi(strings.TrimSuffix(file, ".png"))
	if err != nil || !strings.HasSuffix(file, ".png") {
		httpError(w, apperrors.NotFound("chart "+strconv.Quote(file)))
		return
	}
	res, ok := s.runPage(w, r, chi.URLParam(r, "name"), true)
	if !ok {
		return
	}
	data, err := res.Chart(idx)
	if err != nil {
		httpError(w, apperrors.WithCode(apperrors.CodeNotFound, err))
		return
	}

	var buf bytes.Buffer
	if err := s.charts.Render(&buf, data); err != nil {
		s.logger.Error("[Download] chart %s/%d: %v", res.Dataset.Name, idx, err)
		httpError(w, apperrors.InternalError("failed to render chart"))
		return
	}
	w.Header().Set("Content-Type", s.charts.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// handleDownloadSummary serves the headline figures as plain text
func (s *Server) handleDownloadSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := s.runPage(w, r, chi.URLParam(r, "name"), true)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.SummaryText(&buf, res.SummaryLines()); err != nil {
		httpError(w, apperrors.InternalError("failed to write summary"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(res.Dataset.Name+"_summary.txt"))
	_, _ = buf.WriteTo(w)
}

// runPage runs the pipeline for a catalog dataset. Empty datasets have
// nothing to download and answer 404.
func (s *Server) runPage(w http.ResponseWriter, r *http.Request, name string, withScenario bool) (*app.PageResult, bool) {
	ds, ok := s.catalog.Dataset(name)
	if !ok {
		httpError(w, apperrors.NotFound("dataset "+strconv.Quote(name)))
		return nil, false
	}
	var values map[string]string
	if withScenario {
		values = setValues(r.URL.Query())
	}
	res := s.pipeline.RunForm(r.Context(), ds.Name, values)
	if res.Empty() {
		httpError(w, apperrors.New(apperrors.CodeNotFound, res.SummaryText()))
		return nil, false
	}
	return res, true
}

func (s *Server) writeTable(w http.ResponseWriter, exp ports.TableExporter, t *table.Table, filename string) {
	var buf bytes.Buffer
	if err := exp.Export(&buf, t); err != nil {
		s.logger.Error("[Download] %s: %v", filename, err)
		httpError(w, apperrors.InternalError("failed to export table"))
		return
	}
	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition", attachment(filename))
	_, _ = buf.WriteTo(w)
}

// httpError writes err as plain text with the status its code maps to
func httpError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), httpStatus(err))
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
