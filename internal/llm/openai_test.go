package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time check that OpenAIClient implements Client.
var _ Client = (*OpenAIClient)(nil)

// newTestServer creates an httptest server that responds with the given handler.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func testOptions() Options {
	return Options{Temperature: 0.3, MaxTokens: 512, Timeout: 5 * time.Second}
}

func TestOpenAIClient_Complete(t *testing.T) {
	t.Run("sends system and user messages and returns the completion", func(t *testing.T) {
		var received chatRequest
		var authHeader string

		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			authHeader = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(chatResponse{
				ID:    "chatcmpl-1",
				Model: "gpt-4o-mini-2024",
				Choices: []chatChoice{{
					Message:      chatMessage{Role: "assistant", Content: "  • Point one\n• Point two  "},
					FinishReason: "stop",
				}},
				Usage: chatUsage{PromptTokens: 120, CompletionTokens: 30},
			})
		})

		client := NewOpenAIClient(ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL + "/"}, testOptions())
		resp, err := client.Complete(context.Background(), Request{System: "You summarize papers.", Prompt: "Summarize X"})
		require.NoError(t, err)

		assert.Equal(t, "Bearer sk-test", authHeader)
		assert.Equal(t, "gpt-4o-mini", received.Model)
		require.Len(t, received.Messages, 2)
		assert.Equal(t, "system", received.Messages[0].Role)
		assert.Equal(t, "You summarize papers.", received.Messages[0].Content)
		assert.Equal(t, "user", received.Messages[1].Role)
		assert.Equal(t, 0.3, received.Temperature)
		assert.Equal(t, 512, received.MaxTokens)

		assert.Equal(t, "• Point one\n• Point two", resp.Text)
		assert.Equal(t, "gpt-4o-mini-2024", resp.Model)
		assert.Equal(t, 120, resp.InputTokens)
		assert.Equal(t, 30, resp.OutputTokens)
	})

	t.Run("request max tokens overrides the default", func(t *testing.T) {
		var received chatRequest
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			_ = json.NewEncoder(w).Encode(chatResponse{Choices: []chatChoice{{Message: chatMessage{Content: "ok"}}}})
		})

		client := NewOpenAIClient(ProviderConfig{APIKey: "k", BaseURL: server.URL}, testOptions())
		resp, err := client.Complete(context.Background(), Request{Prompt: "p", MaxTokens: 2000})
		require.NoError(t, err)
		assert.Equal(t, 2000, received.MaxTokens)
		require.Len(t, received.Messages, 1, "no system message when System is empty")
		assert.Equal(t, defaultOpenAIModel, resp.Model)
	})

	t.Run("API error is parsed and attempted once", func(t *testing.T) {
		calls := 0
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"rate_limit_error"}}`))
		})

		client := NewOpenAIClient(ProviderConfig{APIKey: "k", BaseURL: server.URL}, testOptions())
		_, err := client.Complete(context.Background(), Request{Prompt: "p"})
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
		assert.Equal(t, "Rate limit reached", apiErr.Message)
		assert.Equal(t, "rate_limit_error", apiErr.Type)
		assert.True(t, IsTransient(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("unparseable error body is kept verbatim", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		})

		client := NewOpenAIClient(ProviderConfig{APIKey: "k", BaseURL: server.URL}, testOptions())
		_, err := client.Complete(context.Background(), Request{Prompt: "p"})

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "upstream down", apiErr.Message)
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
		})

		client := NewOpenAIClient(ProviderConfig{APIKey: "k", BaseURL: server.URL}, testOptions())
		_, err := client.Complete(context.Background(), Request{Prompt: "p"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty choices")
	})

	t.Run("blank completion is an error", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(chatResponse{Choices: []chatChoice{{Message: chatMessage{Content: "   "}}}})
		})

		client := NewOpenAIClient(ProviderConfig{APIKey: "k", BaseURL: server.URL}, testOptions())
		_, err := client.Complete(context.Background(), Request{Prompt: "p"})
		require.Error(t, err)
	})

	t.Run("network failure is a transient API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		client := NewOpenAIClient(ProviderConfig{APIKey: "k", BaseURL: url}, testOptions())
		_, err := client.Complete(context.Background(), Request{Prompt: "p"})

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Zero(t, apiErr.StatusCode)
		assert.Equal(t, "network_error", apiErr.Type)
		assert.True(t, apiErr.IsTransient())
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		client := NewOpenAIClient(ProviderConfig{APIKey: "k", BaseURL: server.URL}, testOptions())
		_, err := client.Complete(ctx, Request{Prompt: "p"})
		require.Error(t, err)
	})
}

func TestNewOpenAIClient_Defaults(t *testing.T) {
	client := NewOpenAIClient(ProviderConfig{APIKey: "k"}, Options{})
	assert.Equal(t, defaultOpenAIBaseURL, client.baseURL)
	assert.Equal(t, defaultOpenAIModel, client.Model())
	assert.Equal(t, "openai", client.Provider())
	assert.Equal(t, defaultMaxTokens, client.opts.MaxTokens)
	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
}
