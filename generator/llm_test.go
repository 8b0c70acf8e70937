package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicLLM_Complete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"# Page"},{"type":"text","text":" body"}]}`))
	}))
	defer srv.Close()

	llm, err := NewAnthropicLLM(&LLMSettings{APIKey: "secret", Model: "claude-test", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	out, err := llm.Complete(context.Background(), Request{Prompt: "write", MaxTokens: 6000})
	require.NoError(t, err)
	assert.Equal(t, "# Page body", out)
	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 6000, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, anthropicMessage{Role: "user", Content: "write"}, got.Messages[0])
}

func TestAnthropicLLM_ErrorsAreTransient(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"api error", http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, "slow down"},
		{"bare status", http.StatusBadGateway, `{}`, "Bad Gateway"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			llm, err := NewAnthropicLLM(&LLMSettings{APIKey: "k", Model: "m", BaseURL: srv.URL})
			require.NoError(t, err)
			_, err = llm.Complete(context.Background(), Request{Prompt: "p", MaxTokens: 10})

			var te *TransientProviderError
			require.True(t, errors.As(err, &te), "got %v", err)
			assert.Equal(t, "anthropic", te.Provider)
			assert.Equal(t, tc.status, te.Status)
			assert.Equal(t, tc.message, te.Message)
		})
	}
}

func TestOpenAILLM_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hello copy"}}]}`))
	}))
	defer srv.Close()

	llm, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "k", Model: "gpt-test", BaseURL: srv.URL})
	require.NoError(t, err)
	out, err := llm.Complete(context.Background(), Request{Prompt: "write", MaxTokens: 123})
	require.NoError(t, err)
	assert.Equal(t, "hello copy", out)
	assert.Equal(t, "gpt-test", got["model"])
	assert.EqualValues(t, 123, got["max_completion_tokens"])
}

func TestOpenAILLM_StatusErrorIsTransient(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	llm, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "k", Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = llm.Complete(context.Background(), Request{Prompt: "p"})

	var te *TransientProviderError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, te.Status)
	assert.Equal(t, 1, calls, "sdk retries must stay disabled")
}

func TestNewLLM(t *testing.T) {
	ctx := context.Background()

	_, err := NewLLM(ctx, nil)
	assert.Error(t, err)
	_, err = NewLLM(ctx, &LLMSettings{Provider: "cohere"})
	assert.Error(t, err)
	_, err = NewLLM(ctx, &LLMSettings{Provider: "deepseek", APIKey: "k", Model: "m"})
	assert.Error(t, err)
	_, err = NewLLM(ctx, &LLMSettings{Provider: "anthropic", Model: "m"})
	assert.Error(t, err)

	llm, err := NewLLM(ctx, &LLMSettings{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, MockLLM{}, llm)

	llm, err = NewLLM(ctx, &LLMSettings{Provider: "anthropic", APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicLLM{}, llm)

	llm, err = NewLLM(ctx, &LLMSettings{Provider: "deepseek", APIKey: "k", Model: "m", BaseURL: "http://localhost:1"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAILLM{}, llm)
}
