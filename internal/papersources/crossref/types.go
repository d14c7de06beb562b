// Package crossref resolves DOIs to paper metadata through the CrossRef REST API.
//
// API documentation: https://api.crossref.org/swagger-ui/index.html
package crossref

// WorkResponse is the envelope of /works/{doi}.
type WorkResponse struct {
	Status  string `json:"status"`
	Message *Work  `json:"message"`
}

// Work is a CrossRef work record.
type Work struct {
	DOI                 string     `json:"DOI"`
	Title               []string   `json:"title"`
	Author              []Author   `json:"author"`
	Abstract            string     `json:"abstract"` // JATS XML
	Publisher           string     `json:"publisher"`
	ContainerTitle      []string   `json:"container-title"`
	Subject             []string   `json:"subject"`
	URL                 string     `json:"URL"`
	Link                []Link     `json:"link"`
	Page                string     `json:"page"`
	IsReferencedByCount int        `json:"is-referenced-by-count"`
	Published           *DateParts `json:"published"`
	PublishedPrint      *DateParts `json:"published-print"`
	PublishedOnline     *DateParts `json:"published-online"`
	Created             *DateParts `json:"created"`
}

// Author is a work contributor. Organizations carry only Name.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// Link is a full-text link.
type Link struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}

// DateParts holds [[year, month, day]] with trailing parts optional.
type DateParts struct {
	Parts [][]int `json:"date-parts"`
}
