package container

import (
	"context"
	"fmt"

	"esgdash/adapters/coercer"
	"esgdash/adapters/llm"
	"esgdash/adapters/s3source"
	"esgdash/adapters/sqlsource"
	"esgdash/adapters/tabular"
	"esgdash/app"
	"esgdash/internal"
	"esgdash/internal/config"
	"esgdash/internal/errors"
	"esgdash/internal/metrics"
	"esgdash/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Metrics *metrics.Collectors

	// Sources, tried in order
	Readers []ports.SourceReader

	// Pipeline stages
	Loader     *app.Loader
	Calculator *app.Calculator
	Adjuster   *app.Adjuster
	Pipeline   *app.Pipeline
	Summaries  *app.SummaryService
}

// New creates the container. Optional integrations (SQL, S3, summarizer)
// are only initialized when configured.
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{Config: cfg, Logger: logger}
	if cfg.Metrics.Enabled {
		c.Metrics = metrics.New()
	}

	if err := c.initReaders(ctx); err != nil {
		c.Shutdown()
		return nil, err
	}
	if err := c.initSummarizer(); err != nil {
		c.Shutdown()
		return nil, err
	}

	c.Loader = app.NewLoader(cfg.Catalog, coercer.Default(), c.Metrics, logger, c.Readers...)
	c.Calculator = app.NewCalculator(c.Metrics, logger)
	c.Adjuster = app.NewAdjuster(c.Metrics, logger)
	c.Pipeline = app.NewPipeline(c.Loader, c.Calculator, c.Adjuster, logger)
	return c, nil
}

func (c *Container) initReaders(ctx context.Context) error {
	if c.Config.Database.Enabled() {
		db, err := sqlsource.Open(ctx, c.Config.Database.Driver, c.Config.Database.URL)
		if err != nil {
			return errors.Wrap(err, "failed to connect to database")
		}
		c.DB = db
		c.Readers = append(c.Readers, sqlsource.NewReader(db, c.Logger))
		c.Logger.Info("[Container] sql sources enabled (%s)", c.Config.Database.Driver)
	}

	if c.Config.S3.Enabled() {
		client, err := s3source.NewClient(ctx, s3source.Config{
			Region:    c.Config.S3.Region,
			Endpoint:  c.Config.S3.Endpoint,
			PathStyle: c.Config.S3.PathStyle,
		})
		if err != nil {
			return errors.ExternalServiceError("s3", err)
		}
		c.Readers = append(c.Readers, s3source.NewReader(client, c.Logger))
		c.Logger.Info("[Container] s3 sources enabled")
	}

	// plain paths last; it accepts anything without a scheme
	c.Readers = append(c.Readers, tabular.NewFileReader(c.Config.Data.Dir, c.Logger))
	return nil
}

func (c *Container) initSummarizer() error {
	ai := c.Config.AI
	if !ai.Enabled() {
		c.Summaries = app.NewSummaryService(nil, ai.Timeout, c.Metrics, c.Logger)
		c.Logger.Info("[Container] summarizer disabled, OPENAI_API_KEY not set")
		return nil
	}

	client, err := llm.NewOpenAIClient(llm.Config{
		APIKey:      ai.OpenAIKey,
		BaseURL:     ai.BaseURL,
		Model:       ai.Model,
		MaxTokens:   ai.MaxTokens,
		Temperature: ai.Temperature,
		Timeout:     ai.Timeout,
	})
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	summarizer := llm.NewSummarizer(client, ai.Model, ai.MaxTokens)
	c.Summaries = app.NewSummaryService(summarizer, ai.Timeout, c.Metrics, c.Logger)
	return nil
}

// Shutdown releases the database connection, if any
func (c *Container) Shutdown() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
