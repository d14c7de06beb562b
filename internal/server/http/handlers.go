package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// Validation constants.
const (
	maxQueryLength     = 1000
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// parseID parses a positive integer path parameter, writing a 400 error
// response if invalid. The raw value is not echoed back.
func parseID(w http.ResponseWriter, s, fieldName string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a positive integer", fieldName))
		return 0, false
	}
	return id, true
}

// decodeBody reads a JSON request body into v, writing a 400 error response on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	return true
}

// parseSearchFilter builds a search filter from query parameters. Defaults and
// semantic validation are applied by the aggregator.
func parseSearchFilter(q url.Values) (domain.SearchFilter, error) {
	filter := domain.SearchFilter{
		Query:     strings.TrimSpace(q.Get("query")),
		Platform:  strings.TrimSpace(q.Get("platform")),
		Domain:    strings.TrimSpace(q.Get("domain")),
		Author:    strings.TrimSpace(q.Get("author")),
		Journal:   strings.TrimSpace(q.Get("journal")),
		DateRange: domain.DateRange(q.Get("dateRange")),
		SortBy:    domain.SortBy(q.Get("sortBy")),
	}
	if len(filter.Query) > maxQueryLength {
		return filter, domain.NewValidationError("query", fmt.Sprintf("must be at most %d characters", maxQueryLength))
	}

	var err error
	if filter.Page, err = parseIntParam(q, "page"); err != nil {
		return filter, err
	}
	if filter.Limit, err = parseIntParam(q, "limit"); err != nil {
		return filter, err
	}
	if filter.CustomStartDate, err = parseDateParam(q, "customStartDate"); err != nil {
		return filter, err
	}
	if filter.CustomEndDate, err = parseDateParam(q, "customEndDate"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseIntParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

// parseDateParam accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDateParam(q url.Values, name string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.NewValidationError(name, "must be a date (YYYY-MM-DD or RFC 3339)")
}
