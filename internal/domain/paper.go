package domain

import (
	"strings"
	"time"
)

// doiPrefixes are stripped, in order, when normalizing a DOI.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// NormalizeDOI returns the dedup key for a DOI: trimmed, resolver prefixes removed,
// lower-cased. DOIs are case-insensitive, so "10.1/X" and "10.1/x" are the same paper.
// Returns an empty string for an empty or prefix-only input.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	lower := strings.ToLower(doi)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(lower, prefix) {
			lower = lower[len(prefix):]
			break
		}
	}
	return strings.TrimSpace(lower)
}

// PaperInput is a paper as produced by a source adapter or DOI lookup, before the
// store has assigned it an identity.
type PaperInput struct {
	Title         string         `json:"title"`
	Authors       []string       `json:"authors"`
	Abstract      string         `json:"abstract,omitempty"`
	DOI           string         `json:"doi,omitempty"`
	URL           string         `json:"url,omitempty"`
	PDFURL        string         `json:"pdfUrl,omitempty"`
	Platform      Platform       `json:"platform"`
	Domain        ResearchDomain `json:"domain"`
	Journal       string         `json:"journal,omitempty"`
	PublishedDate time.Time      `json:"publishedDate"`
	PageCount     int            `json:"pageCount"`
	ViewCount     int            `json:"viewCount"`
	CitationCount int            `json:"citation_count"`
}

// NormalizedDOI returns the dedup key of the input's DOI.
func (p *PaperInput) NormalizedDOI() string {
	return NormalizeDOI(p.DOI)
}

// Validate checks the invariants a paper must satisfy before it is persisted.
func (p *PaperInput) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return NewValidationError("title", "must not be empty")
	}
	if !p.Platform.IsValid() {
		return NewValidationError("platform", "unknown platform "+string(p.Platform))
	}
	if p.PageCount < 0 {
		return NewValidationError("pageCount", "must not be negative")
	}
	if p.ViewCount < 0 {
		return NewValidationError("viewCount", "must not be negative")
	}
	if p.CitationCount < 0 {
		return NewValidationError("citation_count", "must not be negative")
	}
	return nil
}

// Paper is a stored paper. Papers are immutable once created.
type Paper struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Authors       []string       `json:"authors"`
	Abstract      string         `json:"abstract"`
	DOI           string         `json:"doi,omitempty"`
	URL           string         `json:"url"`
	PDFURL        string         `json:"pdfUrl,omitempty"`
	Platform      Platform       `json:"platform"`
	Domain        ResearchDomain `json:"domain"`
	Journal       string         `json:"journal,omitempty"`
	PublishedDate time.Time      `json:"publishedDate"`
	PageCount     int            `json:"pageCount"`
	ViewCount     int            `json:"viewCount"`
	CitationCount int            `json:"citation_count"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// NewPaper materializes an input into a stored paper with the given identity.
// Missing authors become an empty list and an unknown domain becomes DomainOther.
func NewPaper(id int64, in PaperInput, createdAt time.Time) *Paper {
	authors := make([]string, len(in.Authors))
	copy(authors, in.Authors)

	researchDomain := in.Domain
	if !researchDomain.IsValid() {
		researchDomain = DomainOther
	}

	return &Paper{
		ID:            id,
		Title:         strings.TrimSpace(in.Title),
		Authors:       authors,
		Abstract:      in.Abstract,
		DOI:           strings.TrimSpace(in.DOI),
		URL:           in.URL,
		PDFURL:        in.PDFURL,
		Platform:      in.Platform,
		Domain:        researchDomain,
		Journal:       in.Journal,
		PublishedDate: in.PublishedDate,
		PageCount:     in.PageCount,
		ViewCount:     in.ViewCount,
		CitationCount: in.CitationCount,
		CreatedAt:     createdAt,
	}
}

// NormalizedDOI returns the dedup key of the paper's DOI.
func (p *Paper) NormalizedDOI() string {
	return NormalizeDOI(p.DOI)
}

// HasDOI reports whether the paper participates in DOI de-duplication.
func (p *Paper) HasDOI() bool {
	return p.NormalizedDOI() != ""
}
