// Package llm provides generative-text clients used to write paper summaries.
//
// Three providers are supported over their HTTP JSON APIs: OpenAI chat
// completions, Anthropic messages and Gemini generateContent. Every Complete
// call is attempted exactly once; callers decide what to do on failure.
//
//	client, err := llm.NewClient(llm.FactoryConfig{Provider: "openai", OpenAI: llm.ProviderConfig{APIKey: key}})
//	if errors.Is(err, llm.ErrNotConfigured) {
//		// fall back to non-LLM output
//	}
//	resp, err := client.Complete(ctx, llm.Request{System: "...", Prompt: "..."})
package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxTokens   = 1024
	maxResponseBodyLen = 10 << 20
)

// Request is a single-turn completion request.
type Request struct {
	// System sets the assistant's role and output constraints.
	System string
	// Prompt is the user message.
	Prompt string
	// MaxTokens overrides the client's default completion length when positive.
	MaxTokens int
}

// Response is the generated text and usage metadata.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Client generates text for a prompt.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Provider() string
	Model() string
}

// ProviderConfig holds the connection settings of one provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Options are the generation settings shared by all providers.
type Options struct {
	Temperature float64
	// MaxTokens is the default completion length.
	MaxTokens int
	// Timeout bounds one API call.
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

func (o Options) tokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return o.MaxTokens
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// do sends req and returns the body of a 200 response. Non-200 responses are
// handed to parseErr; transport failures become network APIErrors.
func do(httpClient *http.Client, req *http.Request, provider string, parseErr func(int, []byte) *APIError) ([]byte, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, networkError(provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyLen))
	if err != nil {
		return nil, networkError(provider, fmt.Errorf("read response body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseErr(resp.StatusCode, body)
	}
	return body, nil
}
