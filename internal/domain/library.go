package domain

import "time"

// DefaultUserID is the id of the user seeded into every store.
const DefaultUserID int64 = 1

// User owns saved papers and search history.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Summary holds the three generated summary tiers of a paper. A paper has at most
// one summary; regeneration updates it in place.
type Summary struct {
	ID              int64     `json:"id"`
	PaperID         int64     `json:"paperId"`
	ShortSummary    *string   `json:"shortSummary"`
	MediumSummary   *string   `json:"mediumSummary"`
	DetailedSummary *string   `json:"detailedSummary"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SummaryContent is the generated text of a summary.
type SummaryContent struct {
	Short    string
	Medium   string
	Detailed string
}

// Apply copies content into the summary's text fields.
func (s *Summary) Apply(content SummaryContent) {
	s.ShortSummary = stringPtr(content.Short)
	s.MediumSummary = stringPtr(content.Medium)
	s.DetailedSummary = stringPtr(content.Detailed)
}

// SavedPaper records that a user bookmarked a paper.
type SavedPaper struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	PaperID   int64     `json:"paperId"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecentSearch is an entry in a user's search history.
type RecentSearch struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"userId"`
	Query     string       `json:"query"`
	Filters   SearchFilter `json:"filters"`
	CreatedAt time.Time    `json:"createdAt"`
}

func stringPtr(s string) *string {
	return &s
}
