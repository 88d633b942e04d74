package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(Config{})
	assert.Error(t, err)

	c, err := NewOpenAIClient(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", c.BaseURL)
}

func TestOpenAIClientChatCompletion(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Risks are concentrated in floods.  "}}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Temperature: 0.7, Timeout: time.Second})
	require.NoError(t, err)

	out, err := NewSummarizer(c, "gpt-4o-mini", 150).Summarize(context.Background(), "Flood 200000, Drought 50000")
	require.NoError(t, err)

	assert.Equal(t, "Risks are concentrated in floods.", out)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 150, got.MaxTokens)
	assert.Equal(t, 0.7, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Summarize the following content:\n\nFlood 200000, Drought 50000", got.Messages[1].Content)
}

func TestOpenAIClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":"rate limited"}`, "openai http 429"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "missing choices"},
		{"bad json", http.StatusOK, `not json`, "unmarshal response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewOpenAIClient(Config{APIKey: "k", BaseURL: srv.URL, Timeout: time.Second})
			require.NoError(t, err)

			_, err = c.ChatCompletion(context.Background(), "gpt-4o-mini", "text", 150)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.message), err.Error())
			assert.Equal(t, 1, calls, "no retries")
		})
	}
}

func TestOpenAIClientRequiresModel(t *testing.T) {
	c := &OpenAIClient{APIKey: "k", BaseURL: "http://127.0.0.1:0"}
	_, err := c.ChatCompletion(context.Background(), " ", "text", 10)
	assert.EqualError(t, err, "missing model")
}

func TestMockLLMClient(t *testing.T) {
	m := &MockLLMClient{Response: "short"}
	out, err := NewSummarizer(m, "", 0).Summarize(context.Background(), "long text")
	require.NoError(t, err)
	assert.Equal(t, "short", out)
	assert.Equal(t, 1, m.Calls())
	assert.Equal(t, "Summarize the following content:\n\nlong text", m.Prompts[0])

	failing := &MockLLMClient{Error: errors.New("boom")}
	_, err = failing.ChatCompletion(context.Background(), "m", "p", 1)
	assert.EqualError(t, err, "boom")
}
