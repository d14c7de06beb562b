// Package springer implements the Springer Nature adapter over the Meta API.
// Without an API key it serves placeholder papers from a simulated generator.
//
// API documentation: https://dev.springernature.com/docs
package springer

import (
	"encoding/json"
	"strings"
)

// SearchResponse is the body of the meta/v2/json endpoint.
type SearchResponse struct {
	Result  []ResultInfo `json:"result"`
	Records []Record     `json:"records"`
}

// ResultInfo carries the paging counters, all encoded as strings.
type ResultInfo struct {
	Total            string `json:"total"`
	Start            string `json:"start"`
	PageLength       string `json:"pageLength"`
	RecordsDisplayed string `json:"recordsDisplayed"`
}

// Record is one search hit.
type Record struct {
	Identifier      string       `json:"identifier"`
	Title           string       `json:"title"`
	Creators        []Creator    `json:"creators"`
	PublicationName string       `json:"publicationName"`
	DOI             string       `json:"doi"`
	PublicationDate string       `json:"publicationDate"`
	OnlineDate      string       `json:"onlineDate"`
	Abstract        Abstract     `json:"abstract"`
	URL             []Link       `json:"url"`
	StartingPage    string       `json:"startingPage"`
	EndingPage      string       `json:"endingPage"`
	Subjects        []string     `json:"subjects"`
	Disciplines     []Discipline `json:"disciplines"`
}

// Creator is an author as "Family, Given".
type Creator struct {
	Creator string `json:"creator"`
}

// Link is a typed record link.
type Link struct {
	Format string `json:"format"`
	Value  string `json:"value"`
}

// Discipline is a top-level subject classification.
type Discipline struct {
	Term string `json:"term"`
}

// Abstract is either a plain string or a structured {"h1": ..., "p": ...}
// object, depending on the record.
type Abstract string

// UnmarshalJSON accepts both abstract encodings.
func (a *Abstract) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Abstract(s)
		return nil
	}

	var structured struct {
		P json.RawMessage `json:"p"`
	}
	if err := json.Unmarshal(data, &structured); err != nil {
		// Unknown shapes decode as empty.
		*a = ""
		return nil
	}

	var paragraphs []string
	if err := json.Unmarshal(structured.P, &paragraphs); err == nil {
		*a = Abstract(strings.Join(paragraphs, " "))
		return nil
	}
	var single string
	_ = json.Unmarshal(structured.P, &single)
	*a = Abstract(single)
	return nil
}
