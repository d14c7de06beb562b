package httpserver

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// searchPapers handles GET /api/papers.
// It serves a page from the store and tops the store up from the paper sources
// when the page is short.
func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r.URL.Query())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := s.searcher.Search(r.Context(), filter)
	if err != nil {
		s.logFailure(r, err, "paper search failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newSearchResponse(res))
}

// getPaper handles GET /api/papers/{id}.
func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "id")
	if !ok {
		return
	}

	paper, err := s.papers.Get(r.Context(), id)
	if err != nil {
		s.logFailure(r, err, "get paper failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, paper)
}

// getPaperByDOI handles GET /api/papers/doi/*. DOIs contain slashes, so the
// whole remaining path is the DOI. Unknown DOIs are resolved live and stored.
func (s *Server) getPaperByDOI(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	doi, err := url.PathUnescape(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "doi is not a valid path")
		return
	}
	doi = strings.TrimSpace(doi)
	if doi == "" {
		writeError(w, http.StatusBadRequest, "doi is required")
		return
	}

	paper, err := s.searcher.LookupDOI(r.Context(), doi)
	if err != nil {
		s.logFailure(r, err, "doi lookup failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, paper)
}

// getSummary handles GET /api/papers/{id}/summary.
// The summary is generated and stored on first access.
func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "id")
	if !ok {
		return
	}

	summary, err := s.summaries.Get(r.Context(), id)
	if err != nil {
		s.logFailure(r, err, "get summary failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// regenerateSummary handles POST /api/papers/{id}/regenerate-summary.
func (s *Server) regenerateSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "id")
	if !ok {
		return
	}

	summary, err := s.summaries.Regenerate(r.Context(), id)
	if err != nil {
		s.logFailure(r, err, "regenerate summary failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// listDomains handles GET /api/domains.
func (s *Server) listDomains(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.ResearchDomains)
}

// listPlatforms handles GET /api/platforms.
func (s *Server) listPlatforms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Platforms)
}

// logFailure logs handler errors that map to a server error. Client errors are
// covered by the request log.
func (s *Server) logFailure(r *http.Request, err error, msg string) {
	if isClientError(err) {
		return
	}
	log := observability.LoggerFromContext(r.Context(), s.logger)
	log.Error().Err(err).Msg(msg)
}
