package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

func TestSavedPapers_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	paper := createPaper(t, store, "bookmarked", "10.5/bookmarked")
	srv := newTestHTTPServer(nil, nil, store)

	savedPath := "/api/users/1/saved-papers"
	itemPath := fmt.Sprintf("%s/%d", savedPath, paper.ID)
	body := fmt.Sprintf(`{"paperId":%d}`, paper.ID)

	// Nothing saved yet.
	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, savedPath, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %s", got)
	}

	rr = serveHTTP(srv, httptest.NewRequest(http.MethodPost, savedPath, strings.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var saved domain.SavedPaper
	decodeJSON(t, rr, &saved)
	if saved.UserID != 1 || saved.PaperID != paper.ID {
		t.Errorf("unexpected saved paper: %+v", saved)
	}

	// Saving twice is rejected.
	rr = serveHTTP(srv, httptest.NewRequest(http.MethodPost, savedPath, strings.NewReader(body)))
	expectError(t, rr, http.StatusBadRequest, "Paper already saved")

	rr = serveHTTP(srv, httptest.NewRequest(http.MethodGet, itemPath, nil))
	var check isSavedResponse
	decodeJSON(t, rr, &check)
	if !check.IsSaved {
		t.Error("expected paper to be saved")
	}

	rr = serveHTTP(srv, httptest.NewRequest(http.MethodGet, savedPath, nil))
	var papers []domain.Paper
	decodeJSON(t, rr, &papers)
	if len(papers) != 1 || papers[0].Title != "bookmarked" {
		t.Errorf("unexpected saved papers: %+v", papers)
	}

	rr = serveHTTP(srv, httptest.NewRequest(http.MethodDelete, itemPath, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rr.Body.String())
	}

	// Removing a paper that is no longer saved is a 404.
	rr = serveHTTP(srv, httptest.NewRequest(http.MethodDelete, itemPath, nil))
	expectError(t, rr, http.StatusNotFound, "")

	rr = serveHTTP(srv, httptest.NewRequest(http.MethodGet, itemPath, nil))
	check = isSavedResponse{IsSaved: true}
	decodeJSON(t, rr, &check)
	if check.IsSaved {
		t.Error("expected paper to no longer be saved")
	}
}

func TestSavePaper_Errors(t *testing.T) {
	store := newTestStore(t)
	srv := newTestHTTPServer(nil, nil, store)

	tests := []struct {
		name    string
		path    string
		body    string
		status  int
		message string
	}{
		{"unknown paper", "/api/users/1/saved-papers", `{"paperId":404}`, http.StatusNotFound, "paper not found: 404"},
		{"unknown user", "/api/users/77/saved-papers", `{"paperId":1}`, http.StatusNotFound, ""},
		{"missing paper id", "/api/users/1/saved-papers", `{}`, http.StatusBadRequest, "paperId must be a positive integer"},
		{"malformed json", "/api/users/1/saved-papers", `{"paperId":`, http.StatusBadRequest, "invalid JSON request body"},
		{"bad user id", "/api/users/zero/saved-papers", `{"paperId":1}`, http.StatusBadRequest, "userId must be a positive integer"},
		{"oversized body", "/api/users/1/saved-papers", `{"pad":"` + strings.Repeat("x", maxRequestBodySize) + `"}`, http.StatusRequestEntityTooLarge, "request body too large"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body)))
			expectError(t, rr, tc.status, tc.message)
		})
	}
}

func TestRecentSearches_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	srv := newTestHTTPServer(nil, nil, store)
	path := "/api/users/1/recent-searches"

	for _, q := range []string{"protein folding", "  dark matter  "} {
		body := fmt.Sprintf(`{"query":%q,"filters":{"platform":"PubMed","page":1,"limit":10}}`, q)
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}
	}

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, path, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var searches []domain.RecentSearch
	decodeJSON(t, rr, &searches)
	if len(searches) != 2 {
		t.Fatalf("expected 2 searches, got %d", len(searches))
	}
	queries := map[string]bool{searches[0].Query: true, searches[1].Query: true}
	if !queries["protein folding"] || !queries["dark matter"] {
		t.Errorf("unexpected queries: %v", queries)
	}
	if searches[0].Filters.Platform != "PubMed" {
		t.Errorf("expected filters to round trip, got %+v", searches[0].Filters)
	}

	rr = serveHTTP(srv, httptest.NewRequest(http.MethodDelete, path, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}

	rr = serveHTTP(srv, httptest.NewRequest(http.MethodGet, path, nil))
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("expected empty history, got %s", got)
	}
}

func TestAddRecentSearch_Errors(t *testing.T) {
	srv := newTestHTTPServer(nil, nil, newTestStore(t))

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/users/1/recent-searches", strings.NewReader("not json")))
	expectError(t, rr, http.StatusBadRequest, "invalid JSON request body")

	long := fmt.Sprintf(`{"query":%q}`, strings.Repeat("q", maxQueryLength+1))
	rr = serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/users/1/recent-searches", strings.NewReader(long)))
	expectError(t, rr, http.StatusBadRequest, "query is too long")

	rr = serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/users/42/recent-searches", strings.NewReader(`{"query":"x"}`)))
	expectError(t, rr, http.StatusNotFound, "")
}

func TestUserScopedRoutes_UnknownUserOrPaper(t *testing.T) {
	store := newTestStore(t)
	paper := createPaper(t, store, "kept", "10.5/kept")
	srv := newTestHTTPServer(nil, nil, store)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		msg    string
	}{
		{"list saved papers", http.MethodGet, "/api/users/999/saved-papers", "", "user not found: 999"},
		{"is saved", http.MethodGet, fmt.Sprintf("/api/users/999/saved-papers/%d", paper.ID), "", "user not found: 999"},
		{"remove saved paper", http.MethodDelete, fmt.Sprintf("/api/users/999/saved-papers/%d", paper.ID), "", "user not found: 999"},
		{"list recent searches", http.MethodGet, "/api/users/999/recent-searches", "", "user not found: 999"},
		{"add recent search", http.MethodPost, "/api/users/999/recent-searches", `{"query":"x"}`, "user not found: 999"},
		{"clear recent searches", http.MethodDelete, "/api/users/999/recent-searches", "", "user not found: 999"},
		{"is saved unknown paper", http.MethodGet, "/api/users/1/saved-papers/424242", "", "paper not found: 424242"},
		{"remove unknown paper", http.MethodDelete, "/api/users/1/saved-papers/424242", "", "paper not found: 424242"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rr := serveHTTP(srv, req)
			expectError(t, rr, http.StatusNotFound, tt.msg)
		})
	}

	// Nothing was written for the unknown user.
	searches, err := store.RecentSearches.List(context.Background(), 999)
	if err != nil {
		t.Fatalf("list recent searches: %v", err)
	}
	if len(searches) != 0 {
		t.Errorf("expected no searches for unknown user, got %d", len(searches))
	}
}
