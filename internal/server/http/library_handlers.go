package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// requireUser resolves {userID} for the user-scoped routes. Unknown users get
// a 404 before any handler runs.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseID(w, chi.URLParam(r, "userID"), "userId")
		if !ok {
			return
		}
		if _, err := s.users.Get(r.Context(), userID); err != nil {
			s.logFailure(r, err, "user lookup failed")
			writeDomainError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(observability.WithUserID(r.Context(), userID)))
	})
}

// userIDFrom returns the user resolved by requireUser.
func userIDFrom(r *http.Request) int64 {
	id, _ := observability.UserIDFromContext(r.Context())
	return id
}

// paperExists writes a 404 and returns false when paperID is unknown.
func (s *Server) paperExists(w http.ResponseWriter, r *http.Request, paperID int64) bool {
	if _, err := s.papers.Get(r.Context(), paperID); err != nil {
		s.logFailure(r, err, "paper lookup failed")
		writeDomainError(w, err)
		return false
	}
	return true
}

// listSavedPapers handles GET /api/users/{userID}/saved-papers.
func (s *Server) listSavedPapers(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	papers, err := s.savedPapers.List(r.Context(), userID)
	if err != nil {
		s.logFailure(r, err, "list saved papers failed")
		writeDomainError(w, err)
		return
	}
	if papers == nil {
		papers = []*domain.Paper{}
	}

	writeJSON(w, http.StatusOK, papers)
}

// isPaperSaved handles GET /api/users/{userID}/saved-papers/{paperID}.
func (s *Server) isPaperSaved(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	paperID, ok := parseID(w, chi.URLParam(r, "paperID"), "paperId")
	if !ok || !s.paperExists(w, r, paperID) {
		return
	}

	saved, err := s.savedPapers.IsSaved(r.Context(), userID, paperID)
	if err != nil {
		s.logFailure(r, err, "check saved paper failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, isSavedResponse{IsSaved: saved})
}

// savePaper handles POST /api/users/{userID}/saved-papers.
func (s *Server) savePaper(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req savePaperRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PaperID <= 0 {
		writeError(w, http.StatusBadRequest, "paperId must be a positive integer")
		return
	}

	saved, err := s.savedPapers.Save(r.Context(), userID, req.PaperID)
	if errors.Is(err, domain.ErrAlreadyExists) {
		writeError(w, http.StatusBadRequest, "Paper already saved")
		return
	}
	if err != nil {
		s.logFailure(r, err, "save paper failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

// removeSavedPaper handles DELETE /api/users/{userID}/saved-papers/{paperID}.
func (s *Server) removeSavedPaper(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	paperID, ok := parseID(w, chi.URLParam(r, "paperID"), "paperId")
	if !ok || !s.paperExists(w, r, paperID) {
		return
	}

	if err := s.savedPapers.Remove(r.Context(), userID, paperID); err != nil {
		s.logFailure(r, err, "remove saved paper failed")
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listRecentSearches handles GET /api/users/{userID}/recent-searches.
func (s *Server) listRecentSearches(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	searches, err := s.recentSearches.List(r.Context(), userID)
	if err != nil {
		s.logFailure(r, err, "list recent searches failed")
		writeDomainError(w, err)
		return
	}
	if searches == nil {
		searches = []*domain.RecentSearch{}
	}

	writeJSON(w, http.StatusOK, searches)
}

// addRecentSearch handles POST /api/users/{userID}/recent-searches.
func (s *Server) addRecentSearch(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req addRecentSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if len(req.Query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query is too long")
		return
	}

	search, err := s.recentSearches.Add(r.Context(), userID, req.Query, req.Filters)
	if err != nil {
		s.logFailure(r, err, "add recent search failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, search)
}

// clearRecentSearches handles DELETE /api/users/{userID}/recent-searches.
func (s *Server) clearRecentSearches(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	if err := s.recentSearches.Clear(r.Context(), userID); err != nil {
		s.logFailure(r, err, "clear recent searches failed")
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
