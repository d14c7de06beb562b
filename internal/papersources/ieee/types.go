// Package ieee implements the IEEE Xplore adapter. With an API key it queries
// the Xplore metadata search API; without one it serves placeholder papers from
// a simulated generator.
//
// API documentation: https://developer.ieee.org/docs/read/Metadata_API_details
package ieee

// SearchResponse is the body of the articles search endpoint.
type SearchResponse struct {
	TotalRecords int       `json:"total_records"`
	Articles     []Article `json:"articles"`
}

// Article is one search hit.
type Article struct {
	ArticleNumber    string     `json:"article_number"`
	DOI              string     `json:"doi"`
	Title            string     `json:"title"`
	Abstract         string     `json:"abstract"`
	PublicationTitle string     `json:"publication_title"`
	PublicationDate  string     `json:"publication_date"`
	PublicationYear  int        `json:"publication_year"`
	HTMLURL          string     `json:"html_url"`
	PDFURL           string     `json:"pdf_url"`
	StartPage        string     `json:"start_page"`
	EndPage          string     `json:"end_page"`
	CitingPaperCount int        `json:"citing_paper_count"`
	Authors          AuthorList `json:"authors"`
	IndexTerms       IndexTerms `json:"index_terms"`
}

// AuthorList wraps the author array.
type AuthorList struct {
	Authors []Author `json:"authors"`
}

// Author is an article author.
type Author struct {
	FullName    string `json:"full_name"`
	AuthorOrder int    `json:"author_order"`
	Affiliation string `json:"affiliation"`
}

// IndexTerms groups controlled and author-supplied terms.
type IndexTerms struct {
	IEEETerms   TermList `json:"ieee_terms"`
	AuthorTerms TermList `json:"author_terms"`
}

// TermList is a list of index terms.
type TermList struct {
	Terms []string `json:"terms"`
}
