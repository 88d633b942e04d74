package ui

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"esgdash/app"
	"esgdash/domain/table"
	"esgdash/internal/config"

	"github.com/gin-gonic/gin"
)

const about = `Track **climate risks**, KPIs, regulatory compliance and carbon projects
from plain CSV and Excel files.

Each page recomputes its figures on every visit. Adjustable pages let you
try *what-if* values without changing the underlying data.`

type layout struct {
	Title     string
	Theme     *config.Theme
	Datasets  []config.Dataset
	RequestID string
}

type indexPage struct {
	layout
	About string
}

type scenarioInput struct {
	Key   string
	Label string
	Min   float64
	Max   float64
	Step  float64
	Value float64
}

type chartLink struct {
	Title string
	URL   string
}

type datasetPage struct {
	layout
	Result       *app.PageResult
	Columns      []string
	Rows         [][]string
	AdjColumns   []string
	AdjustedRows [][]string
	Lines        []string
	Inputs       []scenarioInput
	Charts       []chartLink
	Query        string
	AIEnabled    bool
	AISummary    template.HTML
	AIError      string
}

func (s *Server) layout(c *gin.Context, title string) layout {
	return layout{
		Title:     title,
		Theme:     s.catalog.Theme,
		Datasets:  s.catalog.Datasets,
		RequestID: c.GetString(requestIDKey),
	}
}

// handleIndex serves the landing page
func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, "index.html", indexPage{
		layout: s.layout(c, "ESG Dashboard"),
		About:  about,
	})
}

// handleDataset serves one dataset page with its computed figures
func (s *Server) handleDataset(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	values := setValues(c.Request.URL.Query())
	res := s.pipeline.RunForm(c.Request.Context(), ds.Name, values)
	s.renderTemplate(c, http.StatusOK, "dataset.html", s.datasetPage(c, res, values))
}

// handleAdjust recomputes a dataset page with the posted scenario values
func (s *Server) handleAdjust(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		s.renderError(c, http.StatusBadRequest, "Invalid form", err.Error())
		return
	}
	values := setValues(c.Request.PostForm)
	res := s.pipeline.RunForm(c.Request.Context(), ds.Name, values)
	s.renderTemplate(c, http.StatusOK, "dataset.html", s.datasetPage(c, res, values))
}

// handleSummarizePage asks the summarizer about the page figures and shows
// the answer, or the failure, on the page
func (s *Server) handleSummarizePage(c *gin.Context) {
	ds, ok := s.dataset(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		s.renderError(c, http.StatusBadRequest, "Invalid form", err.Error())
		return
	}
	values := setValues(c.Request.PostForm)
	res := s.pipeline.RunForm(c.Request.Context(), ds.Name, values)
	page := s.datasetPage(c, res, values)

	summary, err := s.summaries.Summarize(c.Request.Context(), res.SummaryText())
	if err != nil {
		page.AIError = err.Error()
	} else {
		page.AISummary = renderMarkdown(summary)
	}
	s.renderTemplate(c, http.StatusOK, "dataset.html", page)
}

// handleHealth reports liveness
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"datasets":   len(s.catalog.Datasets),
		"summarizer": s.summaries.Enabled(),
	})
}

// dataset resolves the :name parameter against the catalog. Only catalog
// datasets are served over HTTP.
func (s *Server) dataset(c *gin.Context) (config.Dataset, bool) {
	ds, ok := s.catalog.Dataset(c.Param("name"))
	if !ok {
		s.renderError(c, http.StatusNotFound, "Not found", "Unknown dataset "+strconv.Quote(c.Param("name")))
	}
	return ds, ok
}

func (s *Server) datasetPage(c *gin.Context, res *app.PageResult, values map[string]string) datasetPage {
	page := datasetPage{
		layout:    s.layout(c, res.Dataset.Title),
		Result:    res,
		Lines:     res.SummaryLines(),
		Query:     setQuery(values),
		AIEnabled: s.summaries.Enabled(),
	}
	if res.Empty() {
		return page
	}

	page.Columns, page.Rows = tableRows(res.Table())
	if res.Adjusted != nil {
		page.AdjColumns, page.AdjustedRows = tableRows(res.AdjustedTable())
	}
	for i, ch := range res.Dataset.Charts {
		u := "/download/" + url.PathEscape(res.Dataset.Name) + "/chart/" + strconv.Itoa(i) + ".png"
		if page.Query != "" && ch.Adjusted {
			u += "?" + page.Query
		}
		page.Charts = append(page.Charts, chartLink{Title: ch.Title, URL: u})
	}
	if res.Adjustable {
		page.Inputs = scenarioInputs(res)
	}
	return page
}

// scenarioInputs builds one bounded input per row of the adjustable column,
// prefilled with the adjusted value when there is one
func scenarioInputs(res *app.PageResult) []scenarioInput {
	ds := res.Dataset
	t := res.Table()
	inputs := make([]scenarioInput, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		lo, hi, step, value := app.SliderRange(t, ds.Adjust, i)
		if res.Adjusted != nil {
			if v, ok := app.Numeric(res.AdjustedTable().Value(i, ds.Adjust.Column)); ok {
				value = v
			}
		}
		key := strconv.Itoa(i)
		name := key
		if ds.Label != "" {
			name = t.Value(i, ds.Label).String()
		}
		inputs = append(inputs, scenarioInput{
			Key: key, Label: name, Min: lo, Max: hi, Step: step, Value: value,
		})
	}
	return inputs
}

func (s *Server) renderError(c *gin.Context, status int, title, message string) {
	s.renderTemplate(c, status, "error.html", struct {
		layout
		Message string
	}{s.layout(c, title), message})
}

func tableRows(t *table.Table) ([]string, [][]string) {
	columns := t.Columns()
	rows := make([][]string, t.Len())
	for i := range rows {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = t.Value(i, col).String()
		}
		rows[i] = row
	}
	return columns, rows
}

// setValues extracts scenario values from "set[key]=value" parameters
func setValues(values url.Values) map[string]string {
	out := make(map[string]string)
	for k, v := range values {
		if len(v) == 0 || !strings.HasPrefix(k, "set[") || !strings.HasSuffix(k, "]") {
			continue
		}
		key := strings.TrimSuffix(strings.TrimPrefix(k, "set["), "]")
		if key != "" {
			out[key] = v[0]
		}
	}
	return out
}

func setQuery(values map[string]string) string {
	q := url.Values{}
	for k, v := range values {
		if strings.TrimSpace(v) != "" {
			q.Set("set["+k+"]", v)
		}
	}
	return q.Encode()
}
