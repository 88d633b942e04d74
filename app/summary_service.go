package app

import (
	"context"
	"strings"
	"time"

	"esgdash/internal"
	apperrors "esgdash/internal/errors"
	"esgdash/internal/metrics"
	"esgdash/ports"
)

// SummaryService guards the optional summarizer: blank input is rejected,
// each request is a single call bounded by timeout, failures are reported
// to the caller and never retried.
type SummaryService struct {
	summarizer ports.Summarizer
	timeout    time.Duration
	metrics    *metrics.Collectors
	logger     *internal.Logger
}

// NewSummaryService creates the service; a nil summarizer disables it
func NewSummaryService(summarizer ports.Summarizer, timeout time.Duration, m *metrics.Collectors, logger *internal.Logger) *SummaryService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SummaryService{summarizer: summarizer, timeout: timeout, metrics: m, logger: logger}
}

// Enabled reports whether a summarizer is configured
func (s *SummaryService) Enabled() bool {
	return s != nil && s.summarizer != nil
}

// Summarize returns a short summary of text
func (s *SummaryService) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperrors.InvalidInput("text to summarize is empty")
	}
	if !s.Enabled() {
		if s != nil {
			s.metrics.ObserveSummary("disabled")
		}
		return "", apperrors.ConfigInvalid("summarization is not configured, set OPENAI_API_KEY")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil {
		s.metrics.ObserveSummary("error")
		s.logger.Warn("[SummaryService] summarization failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return "", apperrors.ExternalServiceError("summarization", err)
	}
	s.metrics.ObserveSummary("ok")
	s.logger.Debug("[SummaryService] summarized %d chars in %s", len(text), time.Since(start).Round(time.Millisecond))
	return summary, nil
}
