package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/domain"
)

// searchResponse is the JSON body of GET /api/papers.
type searchResponse struct {
	Papers []*domain.Paper `json:"papers"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
	Pages  int             `json:"pages"`
	Source string          `json:"source"`
	Error  string          `json:"error,omitempty"`
}

func newSearchResponse(res *aggregator.Result) searchResponse {
	return searchResponse{
		Papers: res.Papers,
		Total:  res.Total,
		Page:   res.Page,
		Limit:  res.Limit,
		Pages:  res.Pages,
		Source: res.Source,
		Error:  res.Error,
	}
}

type isSavedResponse struct {
	IsSaved bool `json:"isSaved"`
}

type savePaperRequest struct {
	PaperID int64 `json:"paperId"`
}

type addRecentSearchRequest struct {
	Query   string              `json:"query"`
	Filters domain.SearchFilter `json:"filters"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Headers are already sent; an encode failure only truncates the body.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// writeDomainError maps domain errors to HTTP status codes. Unknown errors are
// reported as a generic 500 without leaking details.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var (
		ve  *domain.ValidationError
		nfe *domain.NotFoundError
		aee *domain.AlreadyExistsError
	)

	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.As(err, &nfe):
		writeError(w, http.StatusNotFound, nfe.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.As(err, &aee):
		writeError(w, http.StatusBadRequest, aee.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, "resource already exists")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// isClientError reports whether err maps to a 4xx response.
func isClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrAlreadyExists)
}
