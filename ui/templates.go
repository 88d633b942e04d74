package ui

import (
	"bytes"
	"embed"
	"html/template"
	"strconv"
	"strings"

	"esgdash/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

func parseTemplates(theme *config.Theme) (*template.Template, error) {
	if theme == nil {
		theme = config.DefaultTheme()
	}
	funcMap := template.FuncMap{
		"label":       func(s string) string { return strings.ReplaceAll(s, "_", " ") },
		"statusColor": func(status string) string { return theme.Status[status] },
		"markdown":    renderMarkdown,
		"num":         func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	}
	return template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
}

// renderMarkdown converts markdown to HTML. Raw HTML in the input is dropped,
// so summarizer output can be shown as is.
func renderMarkdown(text string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(text), p, r))
}

// renderTemplate executes a template into a buffer first so a failing
// template never sends a half page
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("Template error for %s: %v", templateName, err)
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
