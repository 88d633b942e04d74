package ui

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"esgdash/adapters/export"
	"esgdash/app"
	"esgdash/internal"
	"esgdash/internal/config"
	"esgdash/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Server is the web shell around the dataset pipeline
type Server struct {
	router    *gin.Engine
	catalog   *config.Catalog
	loader    *app.Loader
	pipeline  *app.Pipeline
	summaries *app.SummaryService
	metrics   *metrics.Collectors
	charts    *export.PNGChart
	templates *template.Template
	logger    *internal.Logger
}

// Deps are the collaborators the server renders from
type Deps struct {
	Catalog   *config.Catalog
	Loader    *app.Loader
	Pipeline  *app.Pipeline
	Summaries *app.SummaryService
	Metrics   *metrics.Collectors
	Logger    *internal.Logger
	GinMode   string
}

// NewServer parses the embedded templates and registers all routes
func NewServer(deps Deps) (*Server, error) {
	if deps.Catalog == nil || deps.Pipeline == nil {
		return nil, fmt.Errorf("catalog and pipeline are required")
	}
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger
	}
	if deps.GinMode != "" {
		gin.SetMode(deps.GinMode)
	}

	templates, err := parseTemplates(deps.Catalog.Theme)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		catalog:   deps.Catalog,
		loader:    deps.Loader,
		pipeline:  deps.Pipeline,
		summaries: deps.Summaries,
		metrics:   deps.Metrics,
		charts:    export.NewPNGChart(deps.Catalog.Theme),
		templates: templates,
		logger:    deps.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestID())
	s.router.Use(requestLogger(s.logger))

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		s.logger.Error("[setupMiddleware] Error creating static filesystem: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	// Pages
	s.router.GET("/", s.handleIndex)
	s.router.GET("/datasets/:name", s.handleDataset)
	s.router.POST("/datasets/:name/adjust", s.handleAdjust)
	s.router.POST("/datasets/:name/summarize", s.handleSummarizePage)

	// JSON API
	s.router.GET("/api/datasets", s.handleAPIDatasets)
	s.router.GET("/api/datasets/:name", s.handleAPIDataset)
	s.router.POST("/api/summary", s.handleAPISummary)

	// File downloads are served by a chi router
	s.router.GET("/download/*path", gin.WrapH(http.StripPrefix("/download", s.downloadRouter())))

	s.router.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Handler exposes the router for tests and custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting ESG dashboard on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down web server")
		return srv.Shutdown(shutdownCtx)
	}
}
