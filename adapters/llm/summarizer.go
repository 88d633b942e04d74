package llm

import (
	"context"

	"esgdash/ports"
)

const summaryPrompt = "Summarize the following content:\n\n"

// Summarizer turns arbitrary text into a short summary with one completion
// request. Failures are returned as-is; nothing is retried.
type Summarizer struct {
	client    ports.LLMClient
	model     string
	maxTokens int
}

// NewSummarizer wraps an LLM client
func NewSummarizer(client ports.LLMClient, model string, maxTokens int) *Summarizer {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if maxTokens <= 0 {
		maxTokens = 150
	}
	return &Summarizer{client: client, model: model, maxTokens: maxTokens}
}

// Summarize implements ports.Summarizer
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	return s.client.ChatCompletion(ctx, s.model, summaryPrompt+text, s.maxTokens)
}

var _ ports.Summarizer = (*Summarizer)(nil)
