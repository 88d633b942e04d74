package ui

import (
	"net/http"
	"strconv"
	"strings"

	"esgdash/app"
	apperrors "esgdash/internal/errors"

	"github.com/gin-gonic/gin"
)

type datasetStatus struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Rows   int    `json:"rows"`
}

type datasetJSON struct {
	*app.PageResult
	Columns      []string   `json:"columns"`
	Rows         [][]string `json:"rows"`
	AdjustedRows [][]string `json:"adjusted_rows,omitempty"`
	Lines        []string   `json:"summary_lines"`
}

type summaryRequest struct {
	Text    string            `json:"text"`
	Dataset string            `json:"dataset"`
	Set     map[string]string `json:"set"`
}

// handleAPIDatasets loads every catalog dataset and reports its status
func (s *Server) handleAPIDatasets(c *gin.Context) {
	names := s.catalog.Names()
	out := make([]datasetStatus, len(names))
	if s.loader == nil {
		for i, ds := range s.catalog.Datasets {
			out[i] = datasetStatus{Name: ds.Name, Title: ds.Title, Status: "unknown"}
		}
		c.JSON(http.StatusOK, gin.H{"datasets": out})
		return
	}

	results := s.loader.LoadAll(c.Request.Context(), names)
	for i, res := range results {
		ds, _ := s.catalog.Dataset(names[i])
		out[i] = datasetStatus{Name: ds.Name, Title: ds.Title, Status: string(res.Status), Rows: res.Table.Len()}
	}
	c.JSON(http.StatusOK, gin.H{"datasets": out})
}

// handleAPIDataset returns the computed page as JSON. Scenario values are
// taken from set[key] query parameters.
func (s *Server) handleAPIDataset(c *gin.Context) {
	ds, ok := s.catalog.Dataset(c.Param("name"))
	if !ok {
		jsonError(c, apperrors.NotFound("dataset "+strconv.Quote(c.Param("name"))))
		return
	}

	res := s.pipeline.RunForm(c.Request.Context(), ds.Name, setValues(c.Request.URL.Query()))
	out := datasetJSON{PageResult: res, Lines: res.SummaryLines()}
	out.Columns, out.Rows = tableRows(res.Table())
	if res.Adjusted != nil {
		_, out.AdjustedRows = tableRows(res.AdjustedTable())
	}
	c.JSON(http.StatusOK, out)
}

// handleAPISummary summarizes the given text, or the summary lines of a
// dataset page when only a dataset is named
func (s *Server) handleAPISummary(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	text := req.Text
	if strings.TrimSpace(text) == "" && req.Dataset != "" {
		ds, ok := s.catalog.Dataset(req.Dataset)
		if !ok {
			jsonError(c, apperrors.NotFound("dataset "+strconv.Quote(req.Dataset)))
			return
		}
		text = s.pipeline.RunForm(c.Request.Context(), ds.Name, req.Set).SummaryText()
	}

	summary, err := s.summaries.Summarize(c.Request.Context(), text)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"html":    string(renderMarkdown(summary)),
	})
}

func jsonError(c *gin.Context, err error) {
	c.JSON(httpStatus(err), gin.H{"error": err.Error(), "code": apperrors.GetCode(err)})
}

func httpStatus(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeConfigInvalid:
		return http.StatusServiceUnavailable
	case apperrors.CodeExternalService:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
