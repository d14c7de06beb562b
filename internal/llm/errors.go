package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotConfigured is returned by NewClient when no provider is selected or the
// selected provider has no API key. Callers treat it as "generate without an LLM".
var ErrNotConfigured = errors.New("llm: not configured")

// APIError represents an error returned by an LLM provider API.
type APIError struct {
	// Provider is the name of the LLM provider (e.g., "openai", "gemini").
	Provider string
	// StatusCode is the HTTP status code returned by the API. Zero means no
	// response was received.
	StatusCode int
	// Message is the error message from the API.
	Message string
	// Type is the error type classification from the API.
	Type string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsTransient reports whether the failure is rate limiting (429), a server
// error (5xx) or a network error (StatusCode 0).
func (e *APIError) IsTransient() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// IsTransient reports whether err wraps a transient APIError.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsTransient()
}

func networkError(provider string, err error) *APIError {
	return &APIError{
		Provider: provider,
		Message:  fmt.Sprintf("request failed: %v", err),
		Type:     "network_error",
	}
}

// parseAPIError builds the error for a non-2xx response. fields extracts the
// message and type from the provider's error envelope E; when the body is not
// such an envelope the trimmed body is the message.
func parseAPIError[E any](provider string, statusCode int, body []byte, fields func(E) (message, kind string)) *APIError {
	apiErr := &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    strings.TrimSpace(string(body)),
	}
	var envelope E
	if json.Unmarshal(body, &envelope) != nil {
		return apiErr
	}
	if msg, kind := fields(envelope); msg != "" {
		apiErr.Message, apiErr.Type = msg, kind
	}
	return apiErr
}
