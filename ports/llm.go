package ports

import "context"

// LLMClient is the chat-completion surface the summarizer needs
type LLMClient interface {
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)
}

// Summarizer condenses free text into a short summary. One call per user
// action; callers report failures instead of retrying.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
