// Package sciencedirect implements the ScienceDirect adapter over Elsevier's
// PUT search API. Without an API key it serves placeholder papers from a
// simulated generator.
//
// API documentation: https://dev.elsevier.com/documentation/ScienceDirectSearchAPI.wadl
package sciencedirect

// SearchRequest is the PUT body of the search endpoint.
type SearchRequest struct {
	Query   string  `json:"qs,omitempty"`
	Authors string  `json:"authors,omitempty"`
	Pub     string  `json:"pub,omitempty"`
	Date    string  `json:"date,omitempty"` // "2019" or "2015-2019"
	Display Display `json:"display"`
}

// Display controls paging and ordering.
type Display struct {
	Offset int    `json:"offset"`
	Show   int    `json:"show"`
	SortBy string `json:"sortBy,omitempty"` // "date" or "relevance"
}

// SearchResponse is the search endpoint's body.
type SearchResponse struct {
	ResultsFound int      `json:"resultsFound"`
	Results      []Result `json:"results"`
}

// Result is one search hit. The search API does not return abstracts.
type Result struct {
	DOI             string   `json:"doi"`
	PII             string   `json:"pii"`
	Title           string   `json:"title"`
	SourceTitle     string   `json:"sourceTitle"`
	PublicationDate string   `json:"publicationDate"` // "2024-01-15"
	URI             string   `json:"uri"`
	OpenAccess      bool     `json:"openAccess"`
	Pages           Pages    `json:"pages"`
	Authors         []Author `json:"authors"`
}

// Pages is the first and last page of the article.
type Pages struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Author is a listed author.
type Author struct {
	Order int    `json:"order"`
	Name  string `json:"name"`
}
